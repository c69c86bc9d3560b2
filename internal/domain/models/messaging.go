// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package models

// MessageAction is the operation an indexer message describes.
type MessageAction string

const (
	ActionCreated MessageAction = "created"
	ActionUpdated MessageAction = "updated"
	ActionDeleted MessageAction = "deleted"
)

// NATS subjects for search-index fan-out on definition and override
// writes.
const (
	IndexEventDefinitionSubject    = "gatherhall.index.event-definition"
	IndexOccurrenceOverrideSubject = "gatherhall.index.occurrence-override"
)

// IndexerMessage is the msgpack-encoded envelope published to the
// indexing pipeline whenever a definition or override changes.
type IndexerMessage struct {
	Action MessageAction `msgpack:"action"`
	Tags   []string      `msgpack:"tags,omitempty"`
	Data   []byte        `msgpack:"data"`
}
