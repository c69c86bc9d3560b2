// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// NatsOverrideRepository persists occurrence overrides in the
// "occurrence-overrides" bucket, keyed by "<definitionUID>.<dateKey>".
type NatsOverrideRepository struct {
	*NatsBaseRepository[models.OccurrenceOverride]
}

// NewNatsOverrideRepository creates the override repository.
func NewNatsOverrideRepository(kvStore INatsKeyValue) *NatsOverrideRepository {
	return &NatsOverrideRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.OccurrenceOverride](kvStore, "occurrence override"),
	}
}

func (r *NatsOverrideRepository) Put(ctx context.Context, override *models.OccurrenceOverride) error {
	if override == nil || override.DefinitionUID == "" || override.DateKey.IsZero() {
		return domain.NewValidationError("override definition UID and date key are required")
	}
	return r.NatsBaseRepository.Put(ctx, override.Key(), override)
}

func (r *NatsOverrideRepository) Get(ctx context.Context, definitionUID string, dateKey dates.DateKey) (*models.OccurrenceOverride, error) {
	return r.NatsBaseRepository.Get(ctx, models.OverrideKey(definitionUID, dateKey))
}

func (r *NatsOverrideRepository) Delete(ctx context.Context, definitionUID string, dateKey dates.DateKey) error {
	// Overrides use last-writer-wins semantics; no revision gating.
	return r.NatsBaseRepository.Delete(ctx, models.OverrideKey(definitionUID, dateKey), 0)
}

func (r *NatsOverrideRepository) ListForDefinition(ctx context.Context, definitionUID string) ([]*models.OccurrenceOverride, error) {
	return r.ListEntities(ctx, definitionUID+".")
}

// Compile-time interface check
var _ domain.OverrideRepository = (*NatsOverrideRepository)(nil)
