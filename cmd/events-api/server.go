// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gatherhall/events-service/internal/handlers"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/internal/metrics"
	"github.com/gatherhall/events-service/internal/middleware"
)

// newRouter wires all HTTP routes for the events API.
func newRouter(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLoggerMiddleware())
	r.Use(metrics.Middleware())

	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !h.Ready() {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.Handler().ServeHTTP(w, r)
	})

	r.Get("/happenings", h.Happenings)
	r.Get("/series", h.Series)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)

		r.Route("/{uid}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateEvent)
			r.Delete("/", h.DeleteEvent)

			r.Get("/occurrences", h.EventOccurrences)
			r.Route("/occurrences/{date}", func(r chi.Router) {
				r.Get("/", h.GetOverride)
				r.Put("/", h.UpsertOverride)
				r.Delete("/", h.ResetOverride)
			})

			r.Get("/calendar.ics", h.Calendar)
			r.Get("/audit", h.Audit)
		})
	})

	r.Post("/digest/preview", h.PreviewDigest)

	return otelhttp.NewHandler(r, "events-api")
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, h *handlers.Handlers, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newRouter(h),
		ReadHeaderTimeout: 3 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
