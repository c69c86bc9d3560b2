// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package logging configures structured logging for the events service.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

// ErrKey is the conventional slog attribute key for errors.
const ErrKey = "error"

const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelInfo

	// Log field for errors that should page somebody rather than sit
	// in a dashboard.
	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds attributes stashed in the context to the record before
// delegating to the wrapped handler.
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, attr := range attrs {
			r.AddAttrs(attr)
		}
	}
	return h.Handler.Handle(ctx, r)
}

// AppendCtx attaches a slog attribute to the context so that every
// record logged with that context carries it.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if attrs, ok := parent.Value(slogFields).([]slog.Attr); ok {
		attrs = append(attrs, attr)
		return context.WithValue(parent, slogFields, attrs)
	}
	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// InitStructuredLogging installs a JSON slog handler as the process
// default. Level and source annotation are controlled by LOG_LEVEL and
// LOG_ADD_SOURCE.
func InitStructuredLogging() slog.Handler {
	opts := &slog.HandlerOptions{Level: logLevelDefault}

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	addSource := os.Getenv("LOG_ADD_SOURCE")
	opts.AddSource = addSource == "true" || addSource == "t" || addSource == "1"

	handler := contextHandler{slog.NewJSONHandler(os.Stdout, opts)}
	slog.SetDefault(slog.New(handler))

	slog.Info("log config", "logLevel", opts.Level, "addSource", opts.AddSource)

	return handler
}

// PriorityCritical marks a log record as requiring human attention.
func PriorityCritical() slog.Attr {
	return slog.String("priority", priorityCritical)
}
