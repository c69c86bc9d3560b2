// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/gatherhall/events-service/internal/domain/models"
)

// MessageBuilder publishes indexer messages on definition and override
// writes. Implementations must be safe for concurrent use.
type MessageBuilder interface {
	SendIndexEventDefinition(ctx context.Context, action models.MessageAction, definition *models.EventDefinition) error
	SendDeleteIndexEventDefinition(ctx context.Context, uid string) error
	SendIndexOccurrenceOverride(ctx context.Context, action models.MessageAction, override *models.OccurrenceOverride) error
	SendDeleteIndexOccurrenceOverride(ctx context.Context, key string) error
}
