// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package ics renders per-event calendar feeds from resolved
// occurrences.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
)

// ProdID identifies feeds generated by this service.
const ProdID = "-//Gatherhall//Events Service//EN"

// uidDomain suffixes every VEVENT UID.
const uidDomain = "events.gatherhall.org"

// FeedBuilder renders an iCalendar feed for one event definition. The
// feed is built from the resolved-occurrence stream, so overrides,
// cancellations and reschedules appear exactly as every other surface
// shows them.
type FeedBuilder struct {
	location *time.Location
}

// NewFeedBuilder creates a feed builder rendering times in the site
// timezone.
func NewFeedBuilder(location *time.Location) *FeedBuilder {
	return &FeedBuilder{location: location}
}

// Build serializes the feed. A series with no overrides in the window
// is emitted as a single master VEVENT with an RRULE; as soon as any
// occurrence diverges from the base definition, every occurrence is
// emitted concretely so that calendar clients cannot drift from what
// the site shows.
func (b *FeedBuilder) Build(definition *models.EventDefinition, spec models.RecurrenceSpec, occurrences []models.ResolvedOccurrence) (string, error) {
	if definition == nil {
		return "", domain.NewValidationError("event definition is required")
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProdID)

	if rule, ok := b.seriesRule(spec, occurrences); ok {
		event := cal.AddEvent(fmt.Sprintf("%s@%s", definition.UID, uidDomain))
		b.fillEvent(event, occurrences[0])
		event.AddRrule(rule)
		return cal.Serialize(), nil
	}

	for _, occurrence := range occurrences {
		uid := fmt.Sprintf("%s-%s@%s", definition.UID, occurrence.DateKey, uidDomain)
		event := cal.AddEvent(uid)
		b.fillEvent(event, occurrence)
		if occurrence.IsCancelled {
			event.SetStatus(ical.ObjectStatusCancelled)
		}
	}

	return cal.Serialize(), nil
}

func (b *FeedBuilder) fillEvent(event *ical.VEvent, occurrence models.ResolvedOccurrence) {
	event.SetDtStampTime(time.Now().UTC())
	event.SetSummary(occurrence.Title)
	if occurrence.Description != "" {
		event.SetDescription(occurrence.Description)
	}
	if occurrence.VenueName != "" {
		location := occurrence.VenueName
		if occurrence.Address != "" {
			location += ", " + occurrence.Address
		}
		event.SetLocation(location)
	}
	if occurrence.EventURL != "" {
		event.SetURL(occurrence.EventURL)
	}

	if occurrence.StartTime == "" {
		event.SetAllDayStartAt(occurrence.DisplayDateKey.Time())
		return
	}
	start := occurrence.DisplayDateKey.At(occurrence.StartTime, b.location)
	event.SetStartAt(start)
	if occurrence.EndTime != "" {
		end := occurrence.DisplayDateKey.At(occurrence.EndTime, b.location)
		if end.After(start) {
			event.SetEndAt(end)
		}
	}
}

// seriesRule builds the RRULE body for a clean recurring series: one
// with at least one occurrence in the window and no overrides applied.
func (b *FeedBuilder) seriesRule(spec models.RecurrenceSpec, occurrences []models.ResolvedOccurrence) (string, bool) {
	if len(occurrences) == 0 {
		return "", false
	}
	for _, occurrence := range occurrences {
		if occurrence.HasOverride {
			return "", false
		}
	}

	first := occurrences[0]
	dtstart := first.DisplayDateKey.At(first.StartTime, b.location)
	last := occurrences[len(occurrences)-1]
	until := last.DisplayDateKey.At(first.StartTime, b.location)

	option := rrule.ROption{Dtstart: dtstart, Until: until}
	switch spec.Kind {
	case models.RecurrenceWeekly:
		option.Freq = rrule.WEEKLY
		option.Interval = spec.IntervalWeeks
		option.Byweekday = []rrule.Weekday{rruleWeekday(spec.Weekday)}
	case models.RecurrenceMonthly:
		option.Freq = rrule.MONTHLY
		for _, ordinal := range spec.Ordinals {
			weekday := rruleWeekday(spec.Weekday)
			option.Byweekday = append(option.Byweekday, weekday.Nth(ordinal))
		}
	default:
		return "", false
	}

	rule, err := rrule.NewRRule(option)
	if err != nil {
		return "", false
	}
	// The master VEVENT carries its own DTSTART, so the property value
	// must hold the recurrence parts only.
	return rule.OrigOptions.RRuleString(), true
}

var rruleWeekdays = [...]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

func rruleWeekday(weekday time.Weekday) rrule.Weekday {
	return rruleWeekdays[int(weekday)%7]
}
