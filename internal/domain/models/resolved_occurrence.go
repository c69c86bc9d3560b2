// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"github.com/gatherhall/events-service/pkg/dates"
)

// VerificationState is the tri-state trust badge derived per
// occurrence.
type VerificationState string

const (
	VerificationConfirmed   VerificationState = "confirmed"
	VerificationNeedsReview VerificationState = "needs_verification"
	VerificationUnconfirmed VerificationState = "unconfirmed"
)

// ResolvedOccurrence is one concrete calendar instance after override
// resolution: base fields with the patch applied field-by-field,
// cancellation and reschedule state, and the verification badge.
// Instances are recomputed per request and never persisted; identity is
// (DefinitionUID, DateKey) plus the override row they were merged with.
type ResolvedOccurrence struct {
	DefinitionUID string `json:"definition_uid"`

	// DateKey is the canonical slot the expander produced and the key
	// override lookups use. DisplayDateKey is where the occurrence
	// appears in date-grouped views; it differs from DateKey only when
	// an override rescheduled the occurrence.
	DateKey        dates.DateKey `json:"date_key"`
	DisplayDateKey dates.DateKey `json:"display_date_key"`

	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	HostName      string `json:"host_name,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	VenueName     string `json:"venue_name,omitempty"`
	Address       string `json:"address,omitempty"`
	Capacity      int    `json:"capacity,omitempty"`
	Cost          string `json:"cost,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	EventURL      string `json:"event_url,omitempty"`

	IsCancelled  bool              `json:"is_cancelled"`
	HasOverride  bool              `json:"has_override"`
	Verification VerificationState `json:"verification"`
}

// OrphanedOverride records an override whose date the expander no
// longer produces, typically because the base definition was edited
// after the override was created. Orphans have no effect on any surface
// and are reported to host audit tooling as a data-hygiene signal.
type OrphanedOverride struct {
	DefinitionUID string        `json:"definition_uid"`
	DateKey       dates.DateKey `json:"date_key"`
	Status        string        `json:"status"`
}
