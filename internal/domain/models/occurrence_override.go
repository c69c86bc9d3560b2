// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"

	"github.com/gatherhall/events-service/pkg/dates"
)

// Override statuses.
const (
	OverrideStatusNormal    = "normal"
	OverrideStatusCancelled = "cancelled"
)

// OccurrenceOverride is a per-occurrence exception keyed by
// (DefinitionUID, DateKey). It is created when a host edits exactly one
// occurrence and never implies a change to the base definition.
type OccurrenceOverride struct {
	DefinitionUID string        `json:"definition_uid"`
	DateKey       dates.DateKey `json:"date_key"`
	Status        string        `json:"status"`
	Patch         OverridePatch `json:"patch"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty"`
}

// Key returns the composite store key for the override.
func (o *OccurrenceOverride) Key() string {
	return OverrideKey(o.DefinitionUID, o.DateKey)
}

// OverrideKey builds the composite store key for a (definition, date)
// pair. Definition UIDs never contain dots, so "." is a safe separator
// in KV key space.
func OverrideKey(definitionUID string, dateKey dates.DateKey) string {
	return definitionUID + "." + string(dateKey)
}

// IsCancelled reports whether the override cancels its occurrence.
func (o *OccurrenceOverride) IsCancelled() bool {
	return o != nil && o.Status == OverrideStatusCancelled
}

// OverridePatch carries the allow-listed displayable fields a host may
// change for a single occurrence. Nil fields leave the base value in
// place; the merge is always field-by-field.
type OverridePatch struct {
	Title         *string        `json:"title,omitempty"`
	Description   *string        `json:"description,omitempty"`
	StartTime     *string        `json:"start_time,omitempty" validate:"omitempty,wallclock"`
	EndTime       *string        `json:"end_time,omitempty" validate:"omitempty,wallclock"`
	VenueName     *string        `json:"venue_name,omitempty"`
	Address       *string        `json:"address,omitempty"`
	Capacity      *int           `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Cost          *string        `json:"cost,omitempty"`
	CoverImageURL *string        `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	// RescheduledTo relocates the occurrence to a different calendar
	// day for display and grouping. The override stays keyed by the
	// original slot so lookups remain stable.
	RescheduledTo *dates.DateKey `json:"rescheduled_to,omitempty" validate:"omitempty,datekey"`
}

// PatchableFields is the allow-list of JSON field names accepted at the
// override write boundary. Requests naming any other field are
// rejected, not silently dropped.
var PatchableFields = map[string]struct{}{
	"title":           {},
	"description":     {},
	"start_time":      {},
	"end_time":        {},
	"venue_name":      {},
	"address":         {},
	"capacity":        {},
	"cost":            {},
	"cover_image_url": {},
	"rescheduled_to":  {},
}

// IsEmpty reports whether the patch changes nothing.
func (p OverridePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.StartTime == nil &&
		p.EndTime == nil && p.VenueName == nil && p.Address == nil &&
		p.Capacity == nil && p.Cost == nil && p.CoverImageURL == nil &&
		p.RescheduledTo == nil
}
