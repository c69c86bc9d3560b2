// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/pkg/utils"
)

// flags are the command line flags for the events service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the events service.
type environment struct {
	Port                   string
	NatsURL                string
	Timezone               string
	SiteName               string
	SkipRevisionValidation bool
	StalenessDays          int
	Digest                 digestConfig
	SMTP                   smtpConfig
}

// digestConfig holds weekly digest configuration.
type digestConfig struct {
	Recipients  []string
	WindowDays  int
	SendWorkers int
}

// smtpConfig holds SMTP settings; an empty host disables sending.
type smtpConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// parseFlags parses command line flags for the events service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructuredLogging]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the events service
func parseEnv() environment {
	return environment{
		Port:    utils.CoalesceString(os.Getenv("PORT"), "8080"),
		NatsURL: utils.CoalesceString(os.Getenv("NATS_URL"), "nats://localhost:4222"),
		// The site civil timezone is the single source of "today" for
		// every surface. All date math happens in this zone.
		Timezone:               utils.CoalesceString(os.Getenv("EVENTS_TIMEZONE"), "UTC"),
		SiteName:               utils.CoalesceString(os.Getenv("SITE_NAME"), "Gatherhall"),
		SkipRevisionValidation: os.Getenv("SKIP_REVISION_VALIDATION") == "true",
		StalenessDays:          envInt("VERIFICATION_STALENESS_DAYS", 0),
		Digest:                 parseDigestConfig(),
		SMTP:                   parseSMTPConfig(),
	}
}

// parseDigestConfig parses weekly digest settings from environment variables
func parseDigestConfig() digestConfig {
	var recipients []string
	for _, recipient := range strings.Split(os.Getenv("DIGEST_RECIPIENTS"), ",") {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			recipients = append(recipients, recipient)
		}
	}

	return digestConfig{
		Recipients:  recipients,
		WindowDays:  envInt("DIGEST_WINDOW_DAYS", 0),
		SendWorkers: envInt("DIGEST_SEND_WORKERS", 4),
	}
}

// parseSMTPConfig parses SMTP settings from environment variables
func parseSMTPConfig() smtpConfig {
	return smtpConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envInt("SMTP_PORT", 587),
		From:     os.Getenv("SMTP_FROM"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).Error("invalid integer environment variable, using default")
		return fallback
	}
	return value
}
