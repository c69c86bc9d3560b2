// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// mockDefinitionRepository is an in-memory DefinitionRepository.
type mockDefinitionRepository struct {
	definitions map[string]*models.EventDefinition
	revisions   map[string]uint64
}

func newMockDefinitionRepository(definitions ...*models.EventDefinition) *mockDefinitionRepository {
	repo := &mockDefinitionRepository{
		definitions: make(map[string]*models.EventDefinition),
		revisions:   make(map[string]uint64),
	}
	for _, definition := range definitions {
		repo.definitions[definition.UID] = definition
		repo.revisions[definition.UID] = 1
	}
	return repo
}

func (m *mockDefinitionRepository) Create(_ context.Context, definition *models.EventDefinition) error {
	m.definitions[definition.UID] = definition
	m.revisions[definition.UID] = 1
	return nil
}

func (m *mockDefinitionRepository) Get(_ context.Context, uid string) (*models.EventDefinition, error) {
	definition, ok := m.definitions[uid]
	if !ok {
		return nil, domain.NewNotFoundError("event definition not found")
	}
	return definition, nil
}

func (m *mockDefinitionRepository) GetWithRevision(ctx context.Context, uid string) (*models.EventDefinition, uint64, error) {
	definition, err := m.Get(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	return definition, m.revisions[uid], nil
}

func (m *mockDefinitionRepository) Update(_ context.Context, definition *models.EventDefinition, revision uint64) error {
	current, ok := m.revisions[definition.UID]
	if !ok {
		return domain.NewNotFoundError("event definition not found")
	}
	if revision != current {
		return domain.NewConflictError("event definition has been modified")
	}
	m.definitions[definition.UID] = definition
	m.revisions[definition.UID] = current + 1
	return nil
}

func (m *mockDefinitionRepository) Delete(_ context.Context, uid string, _ uint64) error {
	if _, ok := m.definitions[uid]; !ok {
		return domain.NewNotFoundError("event definition not found")
	}
	delete(m.definitions, uid)
	delete(m.revisions, uid)
	return nil
}

func (m *mockDefinitionRepository) ListAll(_ context.Context) ([]*models.EventDefinition, error) {
	out := make([]*models.EventDefinition, 0, len(m.definitions))
	for _, definition := range m.definitions {
		out = append(out, definition)
	}
	return out, nil
}

// mockOverrideRepository is an in-memory OverrideRepository.
type mockOverrideRepository struct {
	overrides map[string]*models.OccurrenceOverride
}

func newMockOverrideRepository(overrides ...*models.OccurrenceOverride) *mockOverrideRepository {
	repo := &mockOverrideRepository{overrides: make(map[string]*models.OccurrenceOverride)}
	for _, override := range overrides {
		repo.overrides[override.Key()] = override
	}
	return repo
}

func (m *mockOverrideRepository) Put(_ context.Context, override *models.OccurrenceOverride) error {
	m.overrides[override.Key()] = override
	return nil
}

func (m *mockOverrideRepository) Get(_ context.Context, definitionUID string, dateKey dates.DateKey) (*models.OccurrenceOverride, error) {
	override, ok := m.overrides[models.OverrideKey(definitionUID, dateKey)]
	if !ok {
		return nil, domain.NewNotFoundError("occurrence override not found")
	}
	return override, nil
}

func (m *mockOverrideRepository) Delete(_ context.Context, definitionUID string, dateKey dates.DateKey) error {
	key := models.OverrideKey(definitionUID, dateKey)
	if _, ok := m.overrides[key]; !ok {
		return domain.NewNotFoundError("occurrence override not found")
	}
	delete(m.overrides, key)
	return nil
}

func (m *mockOverrideRepository) ListForDefinition(_ context.Context, definitionUID string) ([]*models.OccurrenceOverride, error) {
	var out []*models.OccurrenceOverride
	for _, override := range m.overrides {
		if override.DefinitionUID == definitionUID {
			out = append(out, override)
		}
	}
	return out, nil
}

// mockMessageBuilder records published indexer messages.
type mockMessageBuilder struct {
	indexed   []string
	deleted   []string
	sendError error
}

func (m *mockMessageBuilder) SendIndexEventDefinition(_ context.Context, _ models.MessageAction, definition *models.EventDefinition) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.indexed = append(m.indexed, definition.UID)
	return nil
}

func (m *mockMessageBuilder) SendDeleteIndexEventDefinition(_ context.Context, uid string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.deleted = append(m.deleted, uid)
	return nil
}

func (m *mockMessageBuilder) SendIndexOccurrenceOverride(_ context.Context, _ models.MessageAction, override *models.OccurrenceOverride) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.indexed = append(m.indexed, override.Key())
	return nil
}

func (m *mockMessageBuilder) SendDeleteIndexOccurrenceOverride(_ context.Context, key string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.deleted = append(m.deleted, key)
	return nil
}

var (
	_ domain.DefinitionRepository = (*mockDefinitionRepository)(nil)
	_ domain.OverrideRepository   = (*mockOverrideRepository)(nil)
	_ domain.MessageBuilder       = (*mockMessageBuilder)(nil)
)
