// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"github.com/gatherhall/events-service/pkg/dates"
)

// TimelineDay is one date group of the flat timeline projection,
// grouped by DisplayDateKey so rescheduled occurrences appear under
// their new day.
type TimelineDay struct {
	Date        dates.DateKey        `json:"date"`
	Occurrences []ResolvedOccurrence `json:"occurrences"`
}

// Timeline is the "what's happening on date X" projection.
type Timeline struct {
	Window Window        `json:"window"`
	Days   []TimelineDay `json:"days"`
}

// SeriesView is the collapsed "this recurring thing" projection: one
// card per definition with its humanized label and the next window of
// occurrences. It is built from the same resolved-occurrence stream as
// the timeline so the two can never disagree.
type SeriesView struct {
	DefinitionUID   string               `json:"definition_uid"`
	Title           string               `json:"title"`
	Label           string               `json:"label"`
	Verification    VerificationState    `json:"verification"`
	NextOccurrences []ResolvedOccurrence `json:"next_occurrences"`
}

// ScheduleAudit is the host-facing data-hygiene report for one
// definition: overrides that no longer join to an expanded slot and
// repairs the canonicalizer had to apply at read time.
type ScheduleAudit struct {
	DefinitionUID     string                  `json:"definition_uid"`
	OrphanedOverrides []OrphanedOverride      `json:"orphaned_overrides"`
	Issues            []CanonicalizationIssue `json:"issues"`
}

// EventSchedule is the detail-page projection for one definition.
type EventSchedule struct {
	Definition  *EventDefinition     `json:"definition"`
	Label       string               `json:"label"`
	Occurrences []ResolvedOccurrence `json:"occurrences"`
}
