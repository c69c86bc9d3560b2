// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/logging"
)

// EventService owns the write path for event definitions. Every write
// re-runs strict canonicalization, so a definition that would expand
// ambiguously never reaches the store.
type EventService struct {
	DefinitionRepository domain.DefinitionRepository
	OverrideRepository   domain.OverrideRepository
	MessageBuilder       domain.MessageBuilder
	Recurrence           *RecurrenceService
	Config               ServiceConfig
}

// NewEventService creates a new EventService.
func NewEventService(
	definitionRepository domain.DefinitionRepository,
	overrideRepository domain.OverrideRepository,
	messageBuilder domain.MessageBuilder,
	config ServiceConfig,
) *EventService {
	return &EventService{
		DefinitionRepository: definitionRepository,
		OverrideRepository:   overrideRepository,
		MessageBuilder:       messageBuilder,
		Recurrence:           NewRecurrenceService(),
		Config:               config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *EventService) ServiceReady() bool {
	return s.DefinitionRepository != nil &&
		s.OverrideRepository != nil &&
		s.MessageBuilder != nil &&
		s.Recurrence != nil
}

func (s *EventService) validateDefinition(ctx context.Context, definition *models.EventDefinition) error {
	if definition == nil {
		return domain.NewValidationError("event definition is required")
	}
	if err := validate.Struct(definition); err != nil {
		slog.WarnContext(ctx, "event definition failed validation", logging.ErrKey, err)
		return domain.NewValidationError("invalid event definition", err)
	}
	// Strict canonicalization: inconsistencies like a weekday that
	// disagrees with the anchor date block the write. Which side is
	// correct is the host's call, not ours.
	if _, err := s.Recurrence.Canonicalize(definition); err != nil {
		return err
	}
	return nil
}

// CreateEvent validates and stores a new definition.
func (s *EventService) CreateEvent(ctx context.Context, definition *models.EventDefinition) (*models.EventDefinition, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("event service is not available")
	}

	if err := s.validateDefinition(ctx, definition); err != nil {
		return nil, err
	}

	definition.UID = uuid.New().String()
	now := time.Now().UTC()
	definition.CreatedAt = &now
	definition.UpdatedAt = &now

	if err := s.DefinitionRepository.Create(ctx, definition); err != nil {
		return nil, err
	}

	if err := s.MessageBuilder.SendIndexEventDefinition(ctx, models.ActionCreated, definition); err != nil {
		slog.ErrorContext(ctx, "failed to publish definition index message", logging.ErrKey, err,
			"definition_uid", definition.UID)
	}

	slog.DebugContext(ctx, "created event definition", "definition_uid", definition.UID)
	return definition, nil
}

// GetEvent fetches one definition with its revision for ETag use.
func (s *EventService) GetEvent(ctx context.Context, uid string) (*models.EventDefinition, uint64, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, 0, domain.NewUnavailableError("event service is not available")
	}
	return s.DefinitionRepository.GetWithRevision(ctx, uid)
}

// ListEvents fetches all definitions.
func (s *EventService) ListEvents(ctx context.Context) ([]*models.EventDefinition, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("event service is not available")
	}
	return s.DefinitionRepository.ListAll(ctx)
}

// UpdateEvent validates and stores an edit of an existing definition.
// Editing the base definition never touches override rows: an override
// whose slot the new recurrence no longer produces becomes an orphan
// and is reported by the audit surface instead of being deleted.
func (s *EventService) UpdateEvent(ctx context.Context, definition *models.EventDefinition, revision uint64) (*models.EventDefinition, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("event service is not available")
	}

	if err := s.validateDefinition(ctx, definition); err != nil {
		return nil, err
	}

	existing, existingRevision, err := s.DefinitionRepository.GetWithRevision(ctx, definition.UID)
	if err != nil {
		return nil, err
	}
	// Revision zero means the caller sent no If-Match; the write is
	// unconditional and proceeds against whatever revision is current.
	if s.Config.SkipRevisionValidation || revision == 0 {
		revision = existingRevision
	}

	definition.CreatedAt = existing.CreatedAt
	now := time.Now().UTC()
	definition.UpdatedAt = &now

	if err := s.DefinitionRepository.Update(ctx, definition, revision); err != nil {
		return nil, err
	}

	if err := s.MessageBuilder.SendIndexEventDefinition(ctx, models.ActionUpdated, definition); err != nil {
		slog.ErrorContext(ctx, "failed to publish definition index message", logging.ErrKey, err,
			"definition_uid", definition.UID)
	}

	slog.DebugContext(ctx, "updated event definition", "definition_uid", definition.UID)
	return definition, nil
}

// DeleteEvent removes a definition and its overrides.
func (s *EventService) DeleteEvent(ctx context.Context, uid string, revision uint64) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("event service is not available")
	}

	// As with updates, no If-Match means an unconditional delete
	// resolved against the current revision.
	if s.Config.SkipRevisionValidation || revision == 0 {
		_, existingRevision, err := s.DefinitionRepository.GetWithRevision(ctx, uid)
		if err != nil {
			return err
		}
		revision = existingRevision
	}

	if err := s.DefinitionRepository.Delete(ctx, uid, revision); err != nil {
		return err
	}

	// Child overrides are meaningless without the definition; clean
	// them up best-effort.
	overrides, err := s.OverrideRepository.ListForDefinition(ctx, uid)
	if err != nil {
		slog.WarnContext(ctx, "failed to list overrides for deleted definition", logging.ErrKey, err,
			"definition_uid", uid)
	}
	for _, override := range overrides {
		if err := s.OverrideRepository.Delete(ctx, override.DefinitionUID, override.DateKey); err != nil {
			slog.WarnContext(ctx, "failed to delete override of deleted definition", logging.ErrKey, err,
				"definition_uid", uid, "date_key", override.DateKey)
			continue
		}
		if err := s.MessageBuilder.SendDeleteIndexOccurrenceOverride(ctx, override.Key()); err != nil {
			slog.ErrorContext(ctx, "failed to publish override index delete message", logging.ErrKey, err,
				"definition_uid", uid, "date_key", override.DateKey)
		}
	}

	if err := s.MessageBuilder.SendDeleteIndexEventDefinition(ctx, uid); err != nil {
		slog.ErrorContext(ctx, "failed to publish definition index delete message", logging.ErrKey, err,
			"definition_uid", uid)
	}

	slog.DebugContext(ctx, "deleted event definition", "definition_uid", uid)
	return nil
}
