// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// windowFromQuery builds the expansion window for a request. The start
// defaults to the shared "today"; an explicit date or from/to pair wins.
func (h *Handlers) windowFromQuery(r *http.Request, startParam string, defaultDays int) (models.Window, error) {
	days := queryInt(r, "days", defaultDays)
	if days < 1 {
		days = 1
	}

	start := h.Schedule.Clock.Today()
	if raw := r.URL.Query().Get(startParam); raw != "" {
		parsed, err := dates.ParseDateKey(raw)
		if err != nil {
			return models.Window{}, domain.NewValidationError("invalid "+startParam+" parameter", err)
		}
		start = parsed
	}

	end := start.AddDays(days - 1)
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := dates.ParseDateKey(raw)
		if err != nil {
			return models.Window{}, domain.NewValidationError("invalid to parameter", err)
		}
		end = parsed
	}

	return models.Window{Start: start, End: end}, nil
}

// Happenings handles GET /happenings: the date-grouped timeline.
func (h *Handlers) Happenings(w http.ResponseWriter, r *http.Request) {
	window, err := h.windowFromQuery(r, "date", defaultTimelineDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	timeline, err := h.Schedule.Timeline(r.Context(), window, queryBool(r, "include_cancelled"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, timeline)
}

// Series handles GET /series: one card per definition.
func (h *Handlers) Series(w http.ResponseWriter, r *http.Request) {
	window, err := h.windowFromQuery(r, "date", defaultSeriesDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.Schedule.Series(r.Context(), window, queryInt(r, "limit", defaultSeriesCardSize))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// EventOccurrences handles GET /events/{uid}/occurrences.
func (h *Handlers) EventOccurrences(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	window, err := h.windowFromQuery(r, "from", defaultScheduleDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	schedule, err := h.Schedule.EventSchedule(r.Context(), uid, window, queryBool(r, "include_cancelled"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// Calendar handles GET /events/{uid}/calendar.ics.
func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	window, err := h.windowFromQuery(r, "from", defaultCalendarDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	definition, spec, occurrences, err := h.Schedule.ResolveForExport(r.Context(), uid, window)
	if err != nil {
		writeError(w, r, err)
		return
	}

	feed, err := h.Feed.Build(definition, spec, occurrences)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

// Audit handles GET /events/{uid}/audit: orphaned overrides and
// read-time repairs, for host tooling.
func (h *Handlers) Audit(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	window, err := h.windowFromQuery(r, "from", defaultScheduleDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit, err := h.Schedule.Audit(r.Context(), uid, window)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, audit)
}
