// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"slices"

	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// DefaultVerificationStalenessDays is how long a base verification
// timestamp stays "confirmed" before the badge degrades to
// needs_verification.
const DefaultVerificationStalenessDays = 180

// ResolutionService joins expanded occurrence dates with their override
// rows and derives the verification badge. It is the single choke point
// every discovery surface renders from; a surface merging base fields
// on its own is out of contract.
type ResolutionService struct {
	stalenessDays int
}

// NewResolutionService creates a ResolutionService. A non-positive
// stalenessDays falls back to the default horizon.
func NewResolutionService(stalenessDays int) *ResolutionService {
	if stalenessDays <= 0 {
		stalenessDays = DefaultVerificationStalenessDays
	}
	return &ResolutionService{stalenessDays: stalenessDays}
}

// Merge produces one ResolvedOccurrence per expanded date, applying the
// matching override field-by-field with override-wins-base precedence.
// Cancelled occurrences are kept in the result (flagged, for surfaces
// that ask for them); filtering happens in the projections. Overrides
// that did not join any of the given dates are returned as orphan
// candidates; the expansion here is window-scoped, so a candidate may
// still name a slot the series produces outside the window. Callers
// reporting orphans must confirm each candidate against the series
// itself.
func (s *ResolutionService) Merge(
	definition *models.EventDefinition,
	occurrenceDates []dates.DateKey,
	overrides []*models.OccurrenceOverride,
	today dates.DateKey,
) ([]models.ResolvedOccurrence, []models.OrphanedOverride) {
	byDate := make(map[dates.DateKey]*models.OccurrenceOverride, len(overrides))
	for _, override := range overrides {
		if override != nil {
			byDate[override.DateKey] = override
		}
	}

	resolved := make([]models.ResolvedOccurrence, 0, len(occurrenceDates))
	for _, dateKey := range occurrenceDates {
		override := byDate[dateKey]
		delete(byDate, dateKey)
		resolved = append(resolved, s.resolve(definition, dateKey, override, today))
	}

	var orphans []models.OrphanedOverride
	for _, override := range byDate {
		orphans = append(orphans, models.OrphanedOverride{
			DefinitionUID: override.DefinitionUID,
			DateKey:       override.DateKey,
			Status:        override.Status,
		})
	}
	slices.SortFunc(orphans, func(a, b models.OrphanedOverride) int {
		if a.DateKey < b.DateKey {
			return -1
		}
		if a.DateKey > b.DateKey {
			return 1
		}
		return 0
	})

	return resolved, orphans
}

// resolve builds the effective occurrence for one date slot.
func (s *ResolutionService) resolve(
	definition *models.EventDefinition,
	dateKey dates.DateKey,
	override *models.OccurrenceOverride,
	today dates.DateKey,
) models.ResolvedOccurrence {
	occurrence := models.ResolvedOccurrence{
		DefinitionUID:  definition.UID,
		DateKey:        dateKey,
		DisplayDateKey: dateKey,
		Title:          definition.Title,
		Description:    definition.Description,
		HostName:       definition.HostName,
		StartTime:      definition.StartTime,
		EndTime:        definition.EndTime,
		VenueName:      definition.VenueName,
		Address:        definition.Address,
		Capacity:       definition.Capacity,
		Cost:           definition.Cost,
		CoverImageURL:  definition.CoverImageURL,
		EventURL:       definition.EventURL,
	}

	if override != nil {
		occurrence.HasOverride = true
		occurrence.IsCancelled = override.IsCancelled()
		applyPatch(&occurrence, override.Patch)
	}

	occurrence.Verification = s.Verify(definition, override, today)
	return occurrence
}

// applyPatch copies each set patch field over the base value. A patch
// touching only one field must leave every other field at its base
// value.
func applyPatch(occurrence *models.ResolvedOccurrence, patch models.OverridePatch) {
	if patch.Title != nil {
		occurrence.Title = *patch.Title
	}
	if patch.Description != nil {
		occurrence.Description = *patch.Description
	}
	if patch.StartTime != nil {
		occurrence.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		occurrence.EndTime = *patch.EndTime
	}
	if patch.VenueName != nil {
		occurrence.VenueName = *patch.VenueName
	}
	if patch.Address != nil {
		occurrence.Address = *patch.Address
	}
	if patch.Capacity != nil {
		occurrence.Capacity = *patch.Capacity
	}
	if patch.Cost != nil {
		occurrence.Cost = *patch.Cost
	}
	if patch.CoverImageURL != nil {
		occurrence.CoverImageURL = *patch.CoverImageURL
	}
	if patch.RescheduledTo != nil && !patch.RescheduledTo.IsZero() {
		occurrence.DisplayDateKey = *patch.RescheduledTo
	}
}

// Verify derives the tri-state badge from the full base row. Overrides
// carry no verification timestamp of their own; the signal is
// deliberately base-level, so every surface resolves badges from the
// same row.
func (s *ResolutionService) Verify(
	definition *models.EventDefinition,
	override *models.OccurrenceOverride,
	today dates.DateKey,
) models.VerificationState {
	if override.IsCancelled() {
		return models.VerificationUnconfirmed
	}
	if definition == nil || definition.VerifiedAt == nil {
		return models.VerificationUnconfirmed
	}
	verifiedOn := dates.FromTime(*definition.VerifiedAt)
	if !today.IsZero() && dates.DaysBetween(verifiedOn, today) > s.stalenessDays {
		return models.VerificationNeedsReview
	}
	return models.VerificationConfirmed
}
