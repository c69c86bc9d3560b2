// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/pkg/dates"
)

// ScheduleService runs the full occurrence pipeline (repair, interpret,
// expand, resolve) and projects the resolved stream into the shapes the
// discovery surfaces render. Every surface (homepage, timeline, series
// cards, digest, detail page, calendar export) consumes this service and
// nothing else; that is what keeps them from disagreeing.
type ScheduleService struct {
	DefinitionRepository domain.DefinitionRepository
	OverrideRepository   domain.OverrideRepository
	Recurrence           *RecurrenceService
	Occurrences          *OccurrenceService
	Resolution           *ResolutionService
	Clock                *dates.Clock
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	definitionRepository domain.DefinitionRepository,
	overrideRepository domain.OverrideRepository,
	clock *dates.Clock,
	config ServiceConfig,
) *ScheduleService {
	return &ScheduleService{
		DefinitionRepository: definitionRepository,
		OverrideRepository:   overrideRepository,
		Recurrence:           NewRecurrenceService(),
		Occurrences:          NewOccurrenceService(),
		Resolution:           NewResolutionService(config.VerificationStalenessDays),
		Clock:                clock,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *ScheduleService) ServiceReady() bool {
	return s.DefinitionRepository != nil &&
		s.OverrideRepository != nil &&
		s.Recurrence != nil &&
		s.Occurrences != nil &&
		s.Resolution != nil &&
		s.Clock != nil
}

// WindowFromToday builds a window starting at the shared "today" and
// spanning the given number of days.
func (s *ScheduleService) WindowFromToday(days int) models.Window {
	today := s.Clock.Today()
	if days < 1 {
		days = 1
	}
	return models.Window{Start: today, End: today.AddDays(days - 1)}
}

// resolvedSchedule is the per-definition output of the pipeline, shared
// by every projection.
type resolvedSchedule struct {
	definition  *models.EventDefinition
	spec        models.RecurrenceSpec
	label       string
	occurrences []models.ResolvedOccurrence
	orphans     []models.OrphanedOverride
	issues      []models.CanonicalizationIssue
}

// resolveDefinition runs the pipeline for one definition over a window.
// Read-time canonicalization is lenient: a damaged row degrades to its
// most defensible interpretation and the repairs are reported, never
// silently discarded.
func (s *ScheduleService) resolveDefinition(ctx context.Context, definition *models.EventDefinition, window models.Window) (*resolvedSchedule, error) {
	canonical := s.Recurrence.Repair(definition)
	spec := s.Recurrence.Interpret(canonical)

	occurrenceDates, err := s.Occurrences.Expand(spec, window, canonical.Bounds())
	if err != nil {
		return nil, err
	}

	overrides, err := s.OverrideRepository.ListForDefinition(ctx, definition.UID)
	if err != nil {
		return nil, err
	}

	resolved, unmatched := s.Resolution.Merge(definition, occurrenceDates, overrides, s.Clock.Today())
	orphans := s.orphanedOnly(spec, canonical.Bounds(), unmatched)

	if len(orphans) > 0 {
		slog.DebugContext(ctx, "overrides no longer join to an expanded occurrence",
			"definition_uid", definition.UID, "orphan_count", len(orphans))
	}
	for _, issue := range canonical.Issues {
		slog.WarnContext(ctx, "definition repaired at read time",
			"definition_uid", definition.UID, "issue", issue.Code, "detail", issue.Detail)
	}

	return &resolvedSchedule{
		definition:  definition,
		spec:        spec,
		label:       HumanizeRecurrence(spec),
		occurrences: resolved,
		orphans:     orphans,
		issues:      canonical.Issues,
	}, nil
}

// orphanedOnly keeps only overrides whose date the series genuinely no
// longer produces. An unmatched override merely outside the queried
// window still names a valid slot; reporting it would flag last month's
// cancellation as a data-hygiene problem on every 90-day audit.
func (s *ScheduleService) orphanedOnly(
	spec models.RecurrenceSpec,
	bounds models.ExpansionBounds,
	candidates []models.OrphanedOverride,
) []models.OrphanedOverride {
	var orphans []models.OrphanedOverride
	for _, candidate := range candidates {
		day := models.Window{Start: candidate.DateKey, End: candidate.DateKey}
		produced, err := s.Occurrences.Expand(spec, day, bounds)
		if err == nil && len(produced) > 0 {
			continue
		}
		orphans = append(orphans, candidate)
	}
	return orphans
}

// Timeline returns the flat, date-grouped projection over all
// definitions. Cancelled occurrences are excluded unless explicitly
// requested; rescheduled occurrences group under their display date.
func (s *ScheduleService) Timeline(ctx context.Context, window models.Window, includeCancelled bool) (*models.Timeline, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("schedule service is not available")
	}

	definitions, err := s.DefinitionRepository.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[dates.DateKey][]models.ResolvedOccurrence)
	for _, definition := range definitions {
		schedule, err := s.resolveDefinition(ctx, definition, window)
		if err != nil {
			return nil, err
		}
		for _, occurrence := range schedule.occurrences {
			if occurrence.IsCancelled && !includeCancelled {
				continue
			}
			byDay[occurrence.DisplayDateKey] = append(byDay[occurrence.DisplayDateKey], occurrence)
		}
	}

	days := make([]models.TimelineDay, 0, len(byDay))
	for day, occurrences := range byDay {
		slices.SortFunc(occurrences, compareOccurrences)
		days = append(days, models.TimelineDay{Date: day, Occurrences: occurrences})
	}
	slices.SortFunc(days, func(a, b models.TimelineDay) int {
		return compareDateKeys(a.Date, b.Date)
	})

	return &models.Timeline{Window: window, Days: days}, nil
}

// Series returns the collapsed per-definition projection: the humanized
// label plus up to limit upcoming occurrences from the same resolved
// stream the timeline uses.
func (s *ScheduleService) Series(ctx context.Context, window models.Window, limit int) ([]models.SeriesView, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("schedule service is not available")
	}
	if limit < 1 {
		limit = 3
	}

	definitions, err := s.DefinitionRepository.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.SeriesView, 0, len(definitions))
	for _, definition := range definitions {
		schedule, err := s.resolveDefinition(ctx, definition, window)
		if err != nil {
			return nil, err
		}

		next := make([]models.ResolvedOccurrence, 0, limit)
		verification := models.VerificationUnconfirmed
		for _, occurrence := range schedule.occurrences {
			if occurrence.IsCancelled {
				continue
			}
			if len(next) < limit {
				next = append(next, occurrence)
			}
		}
		if len(next) > 0 {
			verification = next[0].Verification
		} else {
			verification = s.Resolution.Verify(definition, nil, s.Clock.Today())
		}

		views = append(views, models.SeriesView{
			DefinitionUID:   definition.UID,
			Title:           definition.Title,
			Label:           schedule.label,
			Verification:    verification,
			NextOccurrences: next,
		})
	}

	slices.SortFunc(views, func(a, b models.SeriesView) int {
		switch {
		case a.Title < b.Title:
			return -1
		case a.Title > b.Title:
			return 1
		default:
			return 0
		}
	})

	return views, nil
}

// EventSchedule returns the detail-page projection for one definition.
func (s *ScheduleService) EventSchedule(ctx context.Context, uid string, window models.Window, includeCancelled bool) (*models.EventSchedule, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("schedule service is not available")
	}

	definition, err := s.DefinitionRepository.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	schedule, err := s.resolveDefinition(ctx, definition, window)
	if err != nil {
		return nil, err
	}

	occurrences := schedule.occurrences
	if !includeCancelled {
		occurrences = slices.DeleteFunc(slices.Clone(occurrences), func(o models.ResolvedOccurrence) bool {
			return o.IsCancelled
		})
	}

	return &models.EventSchedule{
		Definition:  definition,
		Label:       schedule.label,
		Occurrences: occurrences,
	}, nil
}

// ResolveForExport runs the pipeline for one definition and hands back
// the raw resolved schedule pieces the calendar export needs.
func (s *ScheduleService) ResolveForExport(ctx context.Context, uid string, window models.Window) (*models.EventDefinition, models.RecurrenceSpec, []models.ResolvedOccurrence, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, models.RecurrenceSpec{}, nil, domain.NewUnavailableError("schedule service is not available")
	}

	definition, err := s.DefinitionRepository.Get(ctx, uid)
	if err != nil {
		return nil, models.RecurrenceSpec{}, nil, err
	}

	schedule, err := s.resolveDefinition(ctx, definition, window)
	if err != nil {
		return nil, models.RecurrenceSpec{}, nil, err
	}

	return definition, schedule.spec, schedule.occurrences, nil
}

// Audit returns the host-facing data-hygiene report for one definition:
// orphaned overrides and read-time canonicalization repairs.
func (s *ScheduleService) Audit(ctx context.Context, uid string, window models.Window) (*models.ScheduleAudit, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("schedule service is not available")
	}

	definition, err := s.DefinitionRepository.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	schedule, err := s.resolveDefinition(ctx, definition, window)
	if err != nil {
		return nil, err
	}

	audit := &models.ScheduleAudit{
		DefinitionUID:     uid,
		OrphanedOverrides: schedule.orphans,
		Issues:            schedule.issues,
	}
	if audit.OrphanedOverrides == nil {
		audit.OrphanedOverrides = []models.OrphanedOverride{}
	}
	if audit.Issues == nil {
		audit.Issues = []models.CanonicalizationIssue{}
	}
	return audit, nil
}

func compareOccurrences(a, b models.ResolvedOccurrence) int {
	if c := compareDateKeys(a.DisplayDateKey, b.DisplayDateKey); c != 0 {
		return c
	}
	switch {
	case a.StartTime < b.StartTime:
		return -1
	case a.StartTime > b.StartTime:
		return 1
	case a.Title < b.Title:
		return -1
	case a.Title > b.Title:
		return 1
	default:
		return 0
	}
}

func compareDateKeys(a, b dates.DateKey) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
