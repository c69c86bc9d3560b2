// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/pkg/dates"
)

// OverrideService owns the write boundary for per-occurrence overrides.
// It enforces the patch allow-list before anything reaches the merge
// step: a request naming a field outside the allow-list is rejected,
// never silently dropped.
type OverrideService struct {
	DefinitionRepository domain.DefinitionRepository
	OverrideRepository   domain.OverrideRepository
	MessageBuilder       domain.MessageBuilder
	Config               ServiceConfig
}

// NewOverrideService creates a new OverrideService.
func NewOverrideService(
	definitionRepository domain.DefinitionRepository,
	overrideRepository domain.OverrideRepository,
	messageBuilder domain.MessageBuilder,
	config ServiceConfig,
) *OverrideService {
	return &OverrideService{
		DefinitionRepository: definitionRepository,
		OverrideRepository:   overrideRepository,
		MessageBuilder:       messageBuilder,
		Config:               config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *OverrideService) ServiceReady() bool {
	return s.DefinitionRepository != nil &&
		s.OverrideRepository != nil &&
		s.MessageBuilder != nil
}

// OverrideWriteRequest is the wire payload of an override upsert.
type OverrideWriteRequest struct {
	Status string               `json:"status" validate:"omitempty,oneof=normal cancelled"`
	Patch  models.OverridePatch `json:"patch"`
}

// ParseOverrideWrite decodes an upsert body, enforcing the patch field
// allow-list on the raw JSON so that misspelled or disallowed fields
// fail loudly instead of vanishing.
func ParseOverrideWrite(body []byte) (*OverrideWriteRequest, error) {
	var envelope struct {
		Status string                     `json:"status"`
		Patch  map[string]json.RawMessage `json:"patch"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, domain.NewValidationError("malformed override payload", err)
	}

	var rejected []string
	for field := range envelope.Patch {
		if _, ok := models.PatchableFields[field]; !ok {
			rejected = append(rejected, field)
		}
	}
	if len(rejected) > 0 {
		slices.Sort(rejected)
		return nil, domain.NewValidationError(
			fmt.Sprintf("fields not patchable per occurrence: %s", strings.Join(rejected, ", ")))
	}

	request := &OverrideWriteRequest{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(request); err != nil {
		return nil, domain.NewValidationError("malformed override payload", err)
	}
	if request.Status == "" {
		request.Status = models.OverrideStatusNormal
	}
	if err := validate.Struct(request); err != nil {
		return nil, domain.NewValidationError("invalid override payload", err)
	}
	return request, nil
}

// UpsertOverride creates or replaces the override for one occurrence
// slot. Two concurrent writes to the same slot serialize in the store;
// last writer wins.
func (s *OverrideService) UpsertOverride(ctx context.Context, definitionUID string, dateKey dates.DateKey, request *OverrideWriteRequest) (*models.OccurrenceOverride, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("override service is not available")
	}
	if request == nil {
		return nil, domain.NewValidationError("override payload is required")
	}
	if _, err := dates.ParseDateKey(string(dateKey)); err != nil {
		return nil, domain.NewValidationError("invalid occurrence date", err)
	}

	// The parent definition must exist; overrides are children of a
	// definition, never free-standing.
	if _, err := s.DefinitionRepository.Get(ctx, definitionUID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	override := &models.OccurrenceOverride{
		DefinitionUID: definitionUID,
		DateKey:       dateKey,
		Status:        request.Status,
		Patch:         request.Patch,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	if existing, err := s.OverrideRepository.Get(ctx, definitionUID, dateKey); err == nil {
		override.CreatedAt = existing.CreatedAt
	}

	if err := s.OverrideRepository.Put(ctx, override); err != nil {
		return nil, err
	}

	if err := s.MessageBuilder.SendIndexOccurrenceOverride(ctx, models.ActionUpdated, override); err != nil {
		slog.ErrorContext(ctx, "failed to publish override index message", logging.ErrKey, err,
			"definition_uid", definitionUID, "date_key", dateKey)
	}

	slog.DebugContext(ctx, "stored occurrence override",
		"definition_uid", definitionUID, "date_key", dateKey, "status", override.Status)
	return override, nil
}

// GetOverride fetches the override for one slot.
func (s *OverrideService) GetOverride(ctx context.Context, definitionUID string, dateKey dates.DateKey) (*models.OccurrenceOverride, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("override service is not available")
	}
	return s.OverrideRepository.Get(ctx, definitionUID, dateKey)
}

// ListOverrides fetches all overrides of a definition.
func (s *OverrideService) ListOverrides(ctx context.Context, definitionUID string) ([]*models.OccurrenceOverride, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("override service is not available")
	}
	return s.OverrideRepository.ListForDefinition(ctx, definitionUID)
}

// ResetOverride clears one slot back to the base definition.
func (s *OverrideService) ResetOverride(ctx context.Context, definitionUID string, dateKey dates.DateKey) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("override service is not available")
	}

	if err := s.OverrideRepository.Delete(ctx, definitionUID, dateKey); err != nil {
		return err
	}

	if err := s.MessageBuilder.SendDeleteIndexOccurrenceOverride(ctx, models.OverrideKey(definitionUID, dateKey)); err != nil {
		slog.ErrorContext(ctx, "failed to publish override index delete message", logging.ErrKey, err,
			"definition_uid", definitionUID, "date_key", dateKey)
	}

	slog.DebugContext(ctx, "reset occurrence override",
		"definition_uid", definitionUID, "date_key", dateKey)
	return nil
}
