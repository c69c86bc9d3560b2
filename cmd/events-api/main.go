// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package main is the events service API that serves the discovery
// surfaces (timeline, series, detail schedules, calendar export) and
// the host-facing write path for definitions and overrides.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/handlers"
	"github.com/gatherhall/events-service/internal/infrastructure/email"
	"github.com/gatherhall/events-service/internal/infrastructure/ics"
	"github.com/gatherhall/events-service/internal/infrastructure/messaging"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/internal/service"
	"github.com/gatherhall/events-service/pkg/dates"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructuredLogging()

	// The clock pins "today" to the site civil timezone for every surface.
	clock, err := dates.NewClock(env.Timezone)
	if err != nil {
		slog.With(logging.ErrKey, err, "timezone", env.Timezone).Error("invalid EVENTS_TIMEZONE")
		os.Exit(1)
	}

	emailService := setupEmailService(env)

	templates, err := email.NewTemplateManager()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error loading digest templates")
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		SkipRevisionValidation:    env.SkipRevisionValidation,
		VerificationStalenessDays: env.StalenessDays,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	eventService := service.NewEventService(
		repos.Definitions,
		repos.Overrides,
		messageBuilder,
		serviceConfig,
	)
	overrideService := service.NewOverrideService(
		repos.Definitions,
		repos.Overrides,
		messageBuilder,
		serviceConfig,
	)
	scheduleService := service.NewScheduleService(
		repos.Definitions,
		repos.Overrides,
		clock,
		serviceConfig,
	)
	digestService := service.NewDigestService(
		scheduleService,
		templates,
		emailService,
		service.DigestConfig{
			SiteName:    env.SiteName,
			Recipients:  env.Digest.Recipients,
			WindowDays:  env.Digest.WindowDays,
			SendWorkers: env.Digest.SendWorkers,
		},
	)

	feedBuilder := ics.NewFeedBuilder(clock.Location())

	handlerSet := handlers.NewHandlers(
		eventService,
		overrideService,
		scheduleService,
		digestService,
		feedBuilder,
	)

	httpServer := setupHTTPServer(flags, handlerSet, &gracefulCloseWG)

	startDigestScheduler(ctx, digestService, clock)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}

// setupEmailService picks the SMTP sender when configured, else the
// logging no-op sender.
func setupEmailService(env environment) domain.EmailService {
	if env.SMTP.Host == "" {
		slog.Info("SMTP_HOST not set, digest emails disabled")
		return email.NewNoOpService()
	}
	return email.NewSMTPService(email.SMTPConfig{
		Host:     env.SMTP.Host,
		Port:     env.SMTP.Port,
		From:     env.SMTP.From,
		Username: env.SMTP.Username,
		Password: env.SMTP.Password,
	})
}

// startDigestScheduler fires the weekly digest every Monday morning in
// the site timezone. It wakes hourly and keys off the civil date, but
// the sent marker lives in process memory, so a restart on a Monday
// after the send window may deliver the digest a second time.
func startDigestScheduler(ctx context.Context, digestService *service.DigestService, clock *dates.Clock) {
	go func() {
		var lastSent dates.DateKey
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			today := clock.Today()
			if today.Weekday() != time.Monday || today == lastSent {
				continue
			}
			if clock.Now().Hour() < 8 {
				continue
			}

			if err := digestService.SendWeeklyDigest(ctx); err != nil {
				slog.ErrorContext(ctx, "weekly digest send failed", logging.ErrKey, err)
				continue
			}
			lastSent = today
		}
	}()
}

// gracefulShutdown drains HTTP and NATS before exiting.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("http server shutdown error")
	}
	gracefulCloseWG.Done()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}
