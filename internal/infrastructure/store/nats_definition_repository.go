// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
)

// NatsDefinitionRepository persists event definitions in the
// "event-definitions" bucket, keyed by definition UID.
type NatsDefinitionRepository struct {
	*NatsBaseRepository[models.EventDefinition]
}

// NewNatsDefinitionRepository creates the definition repository.
func NewNatsDefinitionRepository(kvStore INatsKeyValue) *NatsDefinitionRepository {
	return &NatsDefinitionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.EventDefinition](kvStore, "event definition"),
	}
}

func (r *NatsDefinitionRepository) Create(ctx context.Context, definition *models.EventDefinition) error {
	if definition == nil || definition.UID == "" {
		return domain.NewValidationError("event definition UID is required")
	}
	return r.Put(ctx, definition.UID, definition)
}

func (r *NatsDefinitionRepository) Get(ctx context.Context, uid string) (*models.EventDefinition, error) {
	return r.NatsBaseRepository.Get(ctx, uid)
}

func (r *NatsDefinitionRepository) GetWithRevision(ctx context.Context, uid string) (*models.EventDefinition, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, uid)
}

func (r *NatsDefinitionRepository) Update(ctx context.Context, definition *models.EventDefinition, revision uint64) error {
	if definition == nil || definition.UID == "" {
		return domain.NewValidationError("event definition UID is required")
	}
	return r.NatsBaseRepository.Update(ctx, definition.UID, definition, revision)
}

func (r *NatsDefinitionRepository) Delete(ctx context.Context, uid string, revision uint64) error {
	return r.NatsBaseRepository.Delete(ctx, uid, revision)
}

func (r *NatsDefinitionRepository) ListAll(ctx context.Context) ([]*models.EventDefinition, error) {
	return r.ListEntities(ctx, "")
}

// Compile-time interface check
var _ domain.DefinitionRepository = (*NatsDefinitionRepository)(nil)
