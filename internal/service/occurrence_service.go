// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// maxExpansionIterations caps the walkers against runaway loops on
// pathological bounds. A query window spans at most a few hundred days,
// so well-formed expansions never get near it.
const maxExpansionIterations = 1000

// OccurrenceService expands a RecurrenceSpec into the ordered list of
// occurrence dates inside a bounded window. It is pure and stateless.
type OccurrenceService struct{}

// NewOccurrenceService creates a new OccurrenceService.
func NewOccurrenceService() *OccurrenceService {
	return &OccurrenceService{}
}

// Expand returns the strictly increasing, deduplicated occurrence dates
// of spec inside [window.Start, window.End], additionally capped by
// bounds. MaxOccurrences counts from the series anchor: an occurrence
// past the cap is excluded even when it falls inside the window.
//
// An inverted window is a programmer error at the call site and fails
// loudly; it is never silently clamped.
func (s *OccurrenceService) Expand(spec models.RecurrenceSpec, window models.Window, bounds models.ExpansionBounds) ([]dates.DateKey, error) {
	if window.Start.IsZero() || window.End.IsZero() {
		return nil, domain.NewValidationError("expansion window bounds are required")
	}
	if window.End.Before(window.Start) {
		return nil, domain.NewValidationError(
			fmt.Sprintf("expansion window end %s precedes start %s", window.End, window.Start))
	}

	var expanded []dates.DateKey
	switch spec.Kind {
	case models.RecurrenceNone:
		expanded = s.expandNone(spec, window, bounds)
	case models.RecurrenceWeekly:
		expanded = s.expandWeekly(spec, window, bounds)
	case models.RecurrenceMonthly:
		expanded = s.expandMonthly(spec, window, bounds)
	case models.RecurrenceCustom:
		expanded = s.expandCustom(spec, window, bounds)
	default:
		return nil, domain.NewInternalError(fmt.Sprintf("impossible recurrence kind %d", spec.Kind))
	}

	slices.Sort(expanded)
	return slices.Compact(expanded), nil
}

func (s *OccurrenceService) expandNone(spec models.RecurrenceSpec, window models.Window, bounds models.ExpansionBounds) []dates.DateKey {
	if spec.Date.IsZero() || !window.Contains(spec.Date) {
		return nil
	}
	if !bounds.EndDate.IsZero() && spec.Date.After(bounds.EndDate) {
		return nil
	}
	return []dates.DateKey{spec.Date}
}

func (s *OccurrenceService) expandWeekly(spec models.RecurrenceSpec, window models.Window, bounds models.ExpansionBounds) []dates.DateKey {
	interval := spec.IntervalWeeks
	if interval < 1 {
		interval = 1
	}
	stepDays := 7 * interval

	// Walk from the series anchor so that both the biweekly phase and
	// the anchor-relative occurrence count are exact. Without an anchor
	// (repaired legacy data) the phase aligns to the window instead and
	// the occurrence count starts there.
	first := spec.Anchor
	if first.IsZero() {
		first = window.Start
	}
	first = dates.NextWeekday(first, spec.Weekday)

	var occurrences []dates.DateKey
	position := 0
	for current, i := first, 0; i < maxExpansionIterations; current, i = current.AddDays(stepDays), i+1 {
		if current.After(window.End) {
			break
		}
		if !bounds.EndDate.IsZero() && current.After(bounds.EndDate) {
			break
		}
		position++
		if bounds.MaxOccurrences > 0 && position > bounds.MaxOccurrences {
			break
		}
		if current.Before(window.Start) {
			continue
		}
		occurrences = append(occurrences, current)
	}
	return occurrences
}

func (s *OccurrenceService) expandMonthly(spec models.RecurrenceSpec, window models.Window, bounds models.ExpansionBounds) []dates.DateKey {
	// Count from the anchor month so MaxOccurrences applies to the
	// series, not the window.
	start := spec.Anchor
	if start.IsZero() {
		start = window.Start
	}

	cursor := start.Time()
	year, month := cursor.Year(), cursor.Month()

	var occurrences []dates.DateKey
	position := 0
	for i := 0; i < maxExpansionIterations; i++ {
		firstOfMonth := dates.NewDateKey(year, month, 1)
		if firstOfMonth.After(window.End) {
			break
		}
		monthDates := s.ordinalDatesInMonth(year, month, spec.Weekday, spec.Ordinals)

		exhausted := false
		for _, d := range monthDates {
			// Dates before the anchor are not part of the series.
			if !spec.Anchor.IsZero() && d.Before(spec.Anchor) {
				continue
			}
			if !bounds.EndDate.IsZero() && d.After(bounds.EndDate) {
				exhausted = true
				break
			}
			position++
			if bounds.MaxOccurrences > 0 && position > bounds.MaxOccurrences {
				exhausted = true
				break
			}
			if window.Contains(d) {
				occurrences = append(occurrences, d)
			}
		}
		if exhausted {
			break
		}

		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return occurrences
}

// ordinalDatesInMonth resolves the requested ordinals of a weekday
// within one month, in calendar order with duplicates removed. A 5th
// occurrence that does not exist in the month is silently skipped.
func (s *OccurrenceService) ordinalDatesInMonth(year int, month time.Month, weekday time.Weekday, ordinals []int) []dates.DateKey {
	var monthDates []dates.DateKey
	for _, ordinal := range ordinals {
		d, ok := dates.NthWeekdayOfMonth(year, month, weekday, ordinal)
		if !ok {
			continue
		}
		monthDates = append(monthDates, d)
	}
	slices.Sort(monthDates)
	return slices.Compact(monthDates)
}

func (s *OccurrenceService) expandCustom(spec models.RecurrenceSpec, window models.Window, bounds models.ExpansionBounds) []dates.DateKey {
	var occurrences []dates.DateKey
	position := 0
	for _, d := range spec.Dates {
		if !bounds.EndDate.IsZero() && d.After(bounds.EndDate) {
			break
		}
		position++
		if bounds.MaxOccurrences > 0 && position > bounds.MaxOccurrences {
			break
		}
		if window.Contains(d) {
			occurrences = append(occurrences, d)
		}
	}
	return occurrences
}
