// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"github.com/gatherhall/events-service/internal/infrastructure/ics"
	"github.com/gatherhall/events-service/internal/service"
)

// Default lookahead horizons per surface, in days.
const (
	defaultTimelineDays   = 7
	defaultSeriesDays     = 60
	defaultScheduleDays   = 90
	defaultCalendarDays   = 365
	defaultSeriesCardSize = 3
)

// Handlers bundles the HTTP handlers over the service layer.
type Handlers struct {
	Events   *service.EventService
	Override *service.OverrideService
	Schedule *service.ScheduleService
	Digest   *service.DigestService
	Feed     *ics.FeedBuilder
}

// NewHandlers creates the handler set.
func NewHandlers(
	events *service.EventService,
	override *service.OverrideService,
	schedule *service.ScheduleService,
	digest *service.DigestService,
	feed *ics.FeedBuilder,
) *Handlers {
	return &Handlers{
		Events:   events,
		Override: override,
		Schedule: schedule,
		Digest:   digest,
		Feed:     feed,
	}
}

// Ready reports whether every backing service can serve requests.
func (h *Handlers) Ready() bool {
	return h.Events != nil && h.Events.ServiceReady() &&
		h.Override != nil && h.Override.ServiceReady() &&
		h.Schedule != nil && h.Schedule.ServiceReady() &&
		h.Digest != nil && h.Digest.ServiceReady() &&
		h.Feed != nil
}
