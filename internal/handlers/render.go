// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package handlers implements the chi HTTP surface over the services.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/pkg/constants"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Internal details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		status = http.StatusBadRequest
		message = errorMessage(err)
	case domain.ErrorTypeNotFound:
		status = http.StatusNotFound
		message = errorMessage(err)
	case domain.ErrorTypeConflict:
		status = http.StatusConflict
		message = errorMessage(err)
	case domain.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
		message = "service unavailable"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", logging.ErrKey, err)
	} else {
		slog.DebugContext(r.Context(), "request rejected", logging.ErrKey, err, "status", status)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

// errorMessage returns the domain message without the wrapped cause.
func errorMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return domain.NewValidationError("invalid request body", err)
	}
	return nil
}

// parseIfMatch reads the revision a conditional write expects. Zero
// means the header was absent and the service resolves the current
// revision, making the write unconditional.
func parseIfMatch(r *http.Request) (uint64, error) {
	raw := r.Header.Get(constants.IfMatchHeader)
	if raw == "" {
		return 0, nil
	}
	revision, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("invalid If-Match header", err)
	}
	return revision, nil
}

func setEtag(w http.ResponseWriter, revision uint64) {
	w.Header().Set(constants.EtagHeader, strconv.FormatUint(revision, 10))
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryBool(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}
