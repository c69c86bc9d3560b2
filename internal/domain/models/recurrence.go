// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"

	"github.com/gatherhall/events-service/pkg/dates"
)

// RecurrenceKind discriminates the closed set of recurrence shapes the
// expander understands. It is derived by the interpreter and never
// persisted; downstream code must never branch on the raw stored rule
// string.
type RecurrenceKind int

const (
	RecurrenceNone RecurrenceKind = iota
	RecurrenceWeekly
	RecurrenceMonthly
	RecurrenceCustom
)

func (k RecurrenceKind) String() string {
	switch k {
	case RecurrenceNone:
		return "none"
	case RecurrenceWeekly:
		return "weekly"
	case RecurrenceMonthly:
		return "monthly"
	case RecurrenceCustom:
		return "custom"
	}
	return "unknown"
}

// RecurrenceSpec is the single authoritative recurrence shape consumed
// by the expander. Exactly the fields relevant to Kind are set:
//
//	None:    Date (may be unset for a dateless definition)
//	Weekly:  Weekday, IntervalWeeks (1 or 2), Anchor (phase reference)
//	Monthly: Weekday, Ordinals (1..5 and/or dates.OrdinalLast)
//	Custom:  Dates (sorted, deduplicated)
type RecurrenceSpec struct {
	Kind          RecurrenceKind
	Date          dates.DateKey
	Weekday       time.Weekday
	IntervalWeeks int
	Anchor        dates.DateKey
	Ordinals      []int
	Dates         []dates.DateKey
}

// CanonicalDefinition is the validated, repaired form of a stored
// definition: rule parsed, weekday derived where derivable, custom
// dates sorted. It feeds the interpreter and is never persisted.
type CanonicalDefinition struct {
	UID            string
	Rule           string // one of the Rule* constants
	Ordinals       []int  // populated for RuleMonthly
	AnchorDate     dates.DateKey
	Weekday        *time.Weekday
	CustomDates    []dates.DateKey
	EndDate        dates.DateKey
	MaxOccurrences int

	// Issues collects read-time repairs that should be visible to host
	// tooling. Strict (write-time) canonicalization fails instead of
	// recording issues.
	Issues []CanonicalizationIssue
}

// Canonicalization issue codes surfaced by lenient (read-time) repair.
const (
	IssueWeekdayMismatch   = "weekday_mismatch"   // weekday and anchor date name different days
	IssueWeekdayDerived    = "weekday_derived"    // missing weekday filled in from anchor date
	IssueEmptyCustomSeries = "empty_custom_series" // custom rule with no dates, treated as no occurrences
	IssueUnknownRule       = "unknown_rule"        // unrecognized rule string, treated as one-time
	IssueMissingWeekday    = "missing_weekday"     // rule needs a weekday and none could be derived
	IssueMissingAnchor     = "missing_anchor"      // biweekly rule without an anchor; phase aligned to the window
)

// CanonicalizationIssue describes one defensive repair applied while
// reading a stored definition.
type CanonicalizationIssue struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Window is the inclusive date range over which occurrences are
// materialized. The engine never expands an unbounded series.
type Window struct {
	Start dates.DateKey
	End   dates.DateKey
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d dates.DateKey) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// ExpansionBounds caps a series independently of the query window.
// MaxOccurrences counts from the series anchor, not from the window
// start: the 53rd occurrence of a 52-max series is excluded even when
// it falls inside the window.
type ExpansionBounds struct {
	EndDate        dates.DateKey
	MaxOccurrences int
}

// Bounds extracts the expansion bounds of the canonical definition.
func (c *CanonicalDefinition) Bounds() ExpansionBounds {
	return ExpansionBounds{
		EndDate:        c.EndDate,
		MaxOccurrences: c.MaxOccurrences,
	}
}
