// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// DefinitionRepository is the persistence port for event definitions.
// The occurrence engine only ever reads definitions; writes happen
// through the edit operations of the event service.
type DefinitionRepository interface {
	Create(ctx context.Context, definition *models.EventDefinition) error
	Get(ctx context.Context, uid string) (*models.EventDefinition, error)
	GetWithRevision(ctx context.Context, uid string) (*models.EventDefinition, uint64, error)
	Update(ctx context.Context, definition *models.EventDefinition, revision uint64) error
	Delete(ctx context.Context, uid string, revision uint64) error
	ListAll(ctx context.Context) ([]*models.EventDefinition, error)
}

// OverrideRepository is the persistence port for per-occurrence
// overrides, keyed by (definition UID, date key).
type OverrideRepository interface {
	Put(ctx context.Context, override *models.OccurrenceOverride) error
	Get(ctx context.Context, definitionUID string, dateKey dates.DateKey) (*models.OccurrenceOverride, error)
	Delete(ctx context.Context, definitionUID string, dateKey dates.DateKey) error
	ListForDefinition(ctx context.Context, definitionUID string) ([]*models.OccurrenceOverride, error)
}
