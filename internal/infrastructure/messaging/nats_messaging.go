// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package messaging publishes index fan-out messages over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/logging"
)

// MessageBuilder publishes msgpack-encoded indexer envelopes on
// definition and override writes.
type MessageBuilder struct {
	NatsConn *nats.Conn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn *nats.Conn) *MessageBuilder {
	return &MessageBuilder{NatsConn: natsConn}
}

func (m *MessageBuilder) sendIndexerMessage(ctx context.Context, subject string, action models.MessageAction, data []byte, tags []string) error {
	if m.NatsConn == nil {
		return domain.NewUnavailableError("NATS connection is not available")
	}

	envelope := models.IndexerMessage{
		Action: action,
		Tags:   tags,
		Data:   data,
	}

	payload, err := msgpack.Marshal(envelope)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling indexer message", logging.ErrKey, err, "subject", subject)
		return domain.NewInternalError("failed to marshal indexer message", err)
	}

	if err := m.NatsConn.Publish(subject, payload); err != nil {
		slog.ErrorContext(ctx, "error publishing indexer message", logging.ErrKey, err, "subject", subject)
		return domain.NewInternalError("failed to publish indexer message", err)
	}

	slog.DebugContext(ctx, "published indexer message", "subject", subject, "action", action)
	return nil
}

// SendIndexEventDefinition publishes an index message for a definition.
func (m *MessageBuilder) SendIndexEventDefinition(ctx context.Context, action models.MessageAction, definition *models.EventDefinition) error {
	data, err := json.Marshal(definition)
	if err != nil {
		return domain.NewInternalError("failed to marshal event definition", err)
	}
	return m.sendIndexerMessage(ctx, models.IndexEventDefinitionSubject, action, data, definition.Tags())
}

// SendDeleteIndexEventDefinition publishes an index tombstone for a
// deleted definition.
func (m *MessageBuilder) SendDeleteIndexEventDefinition(ctx context.Context, uid string) error {
	return m.sendIndexerMessage(ctx, models.IndexEventDefinitionSubject, models.ActionDeleted, []byte(uid), nil)
}

// SendIndexOccurrenceOverride publishes an index message for an
// override.
func (m *MessageBuilder) SendIndexOccurrenceOverride(ctx context.Context, action models.MessageAction, override *models.OccurrenceOverride) error {
	data, err := json.Marshal(override)
	if err != nil {
		return domain.NewInternalError("failed to marshal occurrence override", err)
	}
	tags := []string{override.DefinitionUID, string(override.DateKey)}
	return m.sendIndexerMessage(ctx, models.IndexOccurrenceOverrideSubject, action, data, tags)
}

// SendDeleteIndexOccurrenceOverride publishes an index tombstone for a
// reset override.
func (m *MessageBuilder) SendDeleteIndexOccurrenceOverride(ctx context.Context, key string) error {
	return m.sendIndexerMessage(ctx, models.IndexOccurrenceOverrideSubject, models.ActionDeleted, []byte(key), nil)
}

// Compile-time interface check
var _ domain.MessageBuilder = (*MessageBuilder)(nil)
