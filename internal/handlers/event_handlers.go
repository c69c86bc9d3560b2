// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherhall/events-service/internal/domain/models"
)

// CreateEvent handles POST /events.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var definition models.EventDefinition
	if err := decodeJSON(r, &definition); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.Events.CreateEvent(r.Context(), &definition)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListEvents handles GET /events.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	definitions, err := h.Events.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if definitions == nil {
		definitions = []*models.EventDefinition{}
	}
	writeJSON(w, http.StatusOK, definitions)
}

// GetEvent handles GET /events/{uid}. The KV revision is exposed as an
// ETag so edits can be made conditional with If-Match.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	definition, revision, err := h.Events.GetEvent(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	setEtag(w, revision)
	writeJSON(w, http.StatusOK, definition)
}

// UpdateEvent handles PUT /events/{uid}.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	revision, err := parseIfMatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var definition models.EventDefinition
	if err := decodeJSON(r, &definition); err != nil {
		writeError(w, r, err)
		return
	}
	definition.UID = uid

	updated, err := h.Events.UpdateEvent(r.Context(), &definition, revision)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent handles DELETE /events/{uid}.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	revision, err := parseIfMatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Events.DeleteEvent(r.Context(), uid, revision); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
