// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package models contains the domain models of the events service.
package models

import (
	"time"

	"github.com/gatherhall/events-service/pkg/dates"
)

// Stored recurrence rule spellings. The raw column is a string grab-bag
// in the source data; everything downstream of the canonicalizer works
// on [RecurrenceSpec] instead.
const (
	RuleNone     = "none"
	RuleWeekly   = "weekly"
	RuleBiweekly = "biweekly"
	RuleMonthly  = "monthly" // "monthly:1,3" or "monthly:last"
	RuleCustom   = "custom"
)

// EventDefinition is the key-value store representation of a recurring
// (or one-time) event as the host entered it. The occurrence engine
// never mutates a definition; it only reads one.
type EventDefinition struct {
	UID         string `json:"uid"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	HostName    string `json:"host_name,omitempty"`

	// Displayable base fields, individually overridable per occurrence.
	StartTime     string `json:"start_time,omitempty" validate:"omitempty,wallclock"` // wall clock "19:00" in the site timezone
	EndTime       string `json:"end_time,omitempty" validate:"omitempty,wallclock"`
	VenueName     string `json:"venue_name,omitempty"`
	Address       string `json:"address,omitempty"`
	Capacity      int    `json:"capacity,omitempty" validate:"gte=0"`
	Cost          string `json:"cost,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	EventURL      string `json:"event_url,omitempty" validate:"omitempty,url"`

	// Recurrence as stored. AnchorDate is the first/reference
	// occurrence; Weekday is the stored day name and may be absent or
	// inconsistent with AnchorDate (legacy data), which the
	// canonicalizer detects.
	AnchorDate        dates.DateKey   `json:"anchor_date,omitempty"`
	Weekday           string          `json:"weekday,omitempty"`
	RecurrenceRule    string          `json:"recurrence_rule,omitempty"`
	CustomDates       []dates.DateKey `json:"custom_dates,omitempty"`
	RecurrenceEndDate dates.DateKey   `json:"recurrence_end_date,omitempty"`
	MaxOccurrences    int             `json:"max_occurrences,omitempty"`

	// VerifiedAt is the base-level trust signal. Verification is
	// deliberately not overridable per occurrence; every surface must
	// resolve badges from this row, never from a lossy projection.
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Tags returns contextual tags used for indexer messages and logging.
func (e *EventDefinition) Tags() []string {
	var tags []string
	if e == nil {
		return tags
	}
	if e.UID != "" {
		tags = append(tags, e.UID, "event_uid:"+e.UID)
	}
	if e.Title != "" {
		tags = append(tags, e.Title)
	}
	if e.VenueName != "" {
		tags = append(tags, e.VenueName)
	}
	return tags
}
