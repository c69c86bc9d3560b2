// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// maxLabelDates is how many explicit dates a custom-series label spells
// out before collapsing the rest into a count.
const maxLabelDates = 3

// HumanizeRecurrence renders the one human label for a RecurrenceSpec.
// Labels are always derived from the interpreted shape, never from raw
// stored strings: an independent re-implementation in a UI layer is the
// documented root cause of preview/actual mismatches.
func HumanizeRecurrence(spec models.RecurrenceSpec) string {
	switch spec.Kind {
	case models.RecurrenceWeekly:
		if spec.IntervalWeeks == 2 {
			return "Every other " + spec.Weekday.String()
		}
		return "Every " + spec.Weekday.String()
	case models.RecurrenceMonthly:
		return fmt.Sprintf("%s %s monthly", joinWithAmpersand(ordinalNames(spec.Ordinals)), spec.Weekday)
	case models.RecurrenceCustom:
		return humanizeCustom(spec.Dates)
	default:
		if spec.Date.IsZero() {
			return "Unscheduled"
		}
		return spec.Date.Format("Jan 2, 2006")
	}
}

func humanizeCustom(customDates []dates.DateKey) string {
	if len(customDates) == 0 {
		return "No scheduled dates"
	}
	shown := customDates
	remainder := 0
	if len(shown) > maxLabelDates {
		shown = shown[:maxLabelDates]
		remainder = len(customDates) - maxLabelDates
	}
	parts := make([]string, 0, len(shown)+1)
	for _, d := range shown {
		parts = append(parts, d.Format("Jan 2"))
	}
	if remainder > 0 {
		parts = append(parts, fmt.Sprintf("%d more dates", remainder))
	}
	return joinWithAmpersand(parts)
}

func ordinalNames(ordinals []int) []string {
	names := make([]string, 0, len(ordinals))
	for _, n := range ordinals {
		names = append(names, ordinalName(n))
	}
	return names
}

func ordinalName(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	case dates.OrdinalLast:
		return "Last"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// joinWithAmpersand renders "a", "a & b", "a, b & c".
func joinWithAmpersand(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " & " + parts[len(parts)-1]
}
