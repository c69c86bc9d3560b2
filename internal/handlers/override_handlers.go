// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/service"
	"github.com/gatherhall/events-service/pkg/dates"
)

func overrideParams(r *http.Request) (string, dates.DateKey, error) {
	uid := chi.URLParam(r, "uid")
	dateKey, err := dates.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		return "", "", domain.NewValidationError("invalid occurrence date", err)
	}
	return uid, dateKey, nil
}

// UpsertOverride handles PUT /events/{uid}/occurrences/{date}. The body
// is parsed against the patch allow-list; unknown or non-overridable
// fields reject the whole write.
func (h *Handlers) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	uid, dateKey, err := overrideParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, domain.NewValidationError("failed to read request body", err))
		return
	}

	request, err := service.ParseOverrideWrite(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	override, err := h.Override.UpsertOverride(r.Context(), uid, dateKey, request)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, override)
}

// GetOverride handles GET /events/{uid}/occurrences/{date}.
func (h *Handlers) GetOverride(w http.ResponseWriter, r *http.Request) {
	uid, dateKey, err := overrideParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	override, err := h.Override.GetOverride(r.Context(), uid, dateKey)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, override)
}

// ResetOverride handles DELETE /events/{uid}/occurrences/{date}: the
// occurrence falls back to the base definition.
func (h *Handlers) ResetOverride(w http.ResponseWriter, r *http.Request) {
	uid, dateKey, err := overrideParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Override.ResetOverride(r.Context(), uid, dateKey); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
