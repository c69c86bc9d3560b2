// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

func window(start, end string) models.Window {
	return models.Window{Start: dates.DateKey(start), End: dates.DateKey(end)}
}

func dateKeys(keys ...string) []dates.DateKey {
	out := make([]dates.DateKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, dates.DateKey(k))
	}
	return out
}

func TestOccurrenceService_Expand(t *testing.T) {
	service := NewOccurrenceService()

	tests := []struct {
		name     string
		spec     models.RecurrenceSpec
		window   models.Window
		bounds   models.ExpansionBounds
		expected []dates.DateKey
	}{
		{
			name:     "one-time inside window",
			spec:     models.RecurrenceSpec{Kind: models.RecurrenceNone, Date: "2026-02-14"},
			window:   window("2026-02-01", "2026-02-28"),
			expected: dateKeys("2026-02-14"),
		},
		{
			name:     "one-time outside window",
			spec:     models.RecurrenceSpec{Kind: models.RecurrenceNone, Date: "2026-03-14"},
			window:   window("2026-02-01", "2026-02-28"),
			expected: nil,
		},
		{
			name:     "dateless definition expands to nothing",
			spec:     models.RecurrenceSpec{Kind: models.RecurrenceNone},
			window:   window("2026-02-01", "2026-02-28"),
			expected: nil,
		},
		{
			name: "weekly every Monday",
			spec: models.RecurrenceSpec{
				Kind:          models.RecurrenceWeekly,
				Weekday:       time.Monday,
				IntervalWeeks: 1,
				Anchor:        "2026-01-05",
			},
			window:   window("2026-02-01", "2026-02-28"),
			expected: dateKeys("2026-02-02", "2026-02-09", "2026-02-16", "2026-02-23"),
		},
		{
			name: "biweekly phase follows the anchor, not the window",
			spec: models.RecurrenceSpec{
				Kind:          models.RecurrenceWeekly,
				Weekday:       time.Monday,
				IntervalWeeks: 2,
				Anchor:        "2025-12-01",
			},
			window:   window("2026-01-01", "2026-01-31"),
			expected: dateKeys("2026-01-12", "2026-01-26"),
		},
		{
			name: "biweekly without anchor aligns to the window start",
			spec: models.RecurrenceSpec{
				Kind:          models.RecurrenceWeekly,
				Weekday:       time.Monday,
				IntervalWeeks: 2,
			},
			window:   window("2026-01-01", "2026-01-31"),
			expected: dateKeys("2026-01-05", "2026-01-19"),
		},
		{
			name: "weekly max occurrences count from the anchor",
			spec: models.RecurrenceSpec{
				Kind:          models.RecurrenceWeekly,
				Weekday:       time.Monday,
				IntervalWeeks: 1,
				Anchor:        "2026-01-05",
			},
			window: window("2026-01-15", "2026-02-28"),
			bounds: models.ExpansionBounds{MaxOccurrences: 3},
			// Occurrences 1 and 2 (Jan 5, Jan 12) fall before the
			// window; only the 3rd survives the cap.
			expected: dateKeys("2026-01-19"),
		},
		{
			name: "weekly end date bound",
			spec: models.RecurrenceSpec{
				Kind:          models.RecurrenceWeekly,
				Weekday:       time.Monday,
				IntervalWeeks: 1,
				Anchor:        "2026-01-05",
			},
			window:   window("2026-01-01", "2026-02-28"),
			bounds:   models.ExpansionBounds{EndDate: "2026-01-20"},
			expected: dateKeys("2026-01-05", "2026-01-12", "2026-01-19"),
		},
		{
			name: "monthly 1st and 3rd Saturday",
			spec: models.RecurrenceSpec{
				Kind:     models.RecurrenceMonthly,
				Weekday:  time.Saturday,
				Ordinals: []int{1, 3},
				Anchor:   "2026-01-03",
			},
			window:   window("2026-02-01", "2026-02-28"),
			expected: dateKeys("2026-02-07", "2026-02-21"),
		},
		{
			name: "monthly 5th Saturday skips months without one",
			spec: models.RecurrenceSpec{
				Kind:     models.RecurrenceMonthly,
				Weekday:  time.Saturday,
				Ordinals: []int{5},
				Anchor:   "2026-01-31",
			},
			// February 2026 has four Saturdays; May has five.
			window:   window("2026-02-01", "2026-05-31"),
			expected: dateKeys("2026-05-30"),
		},
		{
			name: "monthly last Thursday lands on the actual last one",
			spec: models.RecurrenceSpec{
				Kind:     models.RecurrenceMonthly,
				Weekday:  time.Thursday,
				Ordinals: []int{dates.OrdinalLast},
				Anchor:   "2026-01-29",
			},
			window:   window("2026-02-01", "2026-03-31"),
			expected: dateKeys("2026-02-26", "2026-03-26"),
		},
		{
			name: "monthly occurrences before the anchor are excluded",
			spec: models.RecurrenceSpec{
				Kind:     models.RecurrenceMonthly,
				Weekday:  time.Saturday,
				Ordinals: []int{1, 3},
				Anchor:   "2026-01-17",
			},
			window: window("2026-01-01", "2026-01-31"),
			// Jan 3 is the 1st Saturday but precedes the anchor.
			expected: dateKeys("2026-01-17"),
		},
		{
			name: "monthly max occurrences count from the anchor",
			spec: models.RecurrenceSpec{
				Kind:     models.RecurrenceMonthly,
				Weekday:  time.Saturday,
				Ordinals: []int{1},
				Anchor:   "2026-01-03",
			},
			window:   window("2026-01-01", "2026-06-30"),
			bounds:   models.ExpansionBounds{MaxOccurrences: 3},
			expected: dateKeys("2026-01-03", "2026-02-07", "2026-03-07"),
		},
		{
			name: "custom dates filter to the window",
			spec: models.RecurrenceSpec{
				Kind:  models.RecurrenceCustom,
				Dates: dateKeys("2026-01-02", "2026-02-09", "2026-03-01"),
			},
			window:   window("2026-02-01", "2026-02-28"),
			expected: dateKeys("2026-02-09"),
		},
		{
			name: "custom max occurrences count by series position",
			spec: models.RecurrenceSpec{
				Kind:  models.RecurrenceCustom,
				Dates: dateKeys("2026-01-02", "2026-01-09", "2026-01-16", "2026-01-23"),
			},
			window:   window("2026-01-10", "2026-01-31"),
			bounds:   models.ExpansionBounds{MaxOccurrences: 3},
			expected: dateKeys("2026-01-16"),
		},
		{
			name:     "empty custom series",
			spec:     models.RecurrenceSpec{Kind: models.RecurrenceCustom},
			window:   window("2026-01-01", "2026-12-31"),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrences, err := service.Expand(tt.spec, tt.window, tt.bounds)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, occurrences)

			// Every result must fall inside the window, in strictly
			// increasing order.
			for i, d := range occurrences {
				assert.True(t, tt.window.Contains(d), "occurrence %s outside window", d)
				if i > 0 {
					assert.True(t, occurrences[i-1].Before(d), "occurrences not strictly increasing")
				}
			}
		})
	}
}

func TestOccurrenceService_ExpandWeekdayConsistency(t *testing.T) {
	service := NewOccurrenceService()

	spec := models.RecurrenceSpec{
		Kind:          models.RecurrenceWeekly,
		Weekday:       time.Wednesday,
		IntervalWeeks: 1,
		Anchor:        "2026-01-07",
	}
	occurrences, err := service.Expand(spec, window("2026-01-01", "2026-06-30"), models.ExpansionBounds{})
	require.NoError(t, err)
	require.NotEmpty(t, occurrences)

	for _, d := range occurrences {
		assert.Equal(t, time.Wednesday, d.Weekday(), "occurrence %s not on spec weekday", d)
	}
}

func TestOccurrenceService_ExpandInvalidWindow(t *testing.T) {
	service := NewOccurrenceService()
	spec := models.RecurrenceSpec{Kind: models.RecurrenceNone, Date: "2026-02-14"}

	tests := []struct {
		name   string
		window models.Window
	}{
		{name: "inverted window", window: window("2026-02-28", "2026-02-01")},
		{name: "missing start", window: models.Window{End: "2026-02-28"}},
		{name: "missing end", window: models.Window{Start: "2026-02-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Expand(spec, tt.window, models.ExpansionBounds{})
			require.Error(t, err)
			assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		})
	}
}
