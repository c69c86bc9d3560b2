// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/infrastructure/email"
	"github.com/gatherhall/events-service/internal/logging"
	"github.com/gatherhall/events-service/pkg/concurrent"
)

// DefaultDigestWindowDays is how far ahead the weekly digest looks.
const DefaultDigestWindowDays = 7

// DigestConfig configures the weekly digest.
type DigestConfig struct {
	// SiteName appears in the digest subject and headings.
	SiteName string
	// Recipients is the subscriber list the digest fans out to.
	Recipients []string
	// WindowDays is the lookahead; zero means DefaultDigestWindowDays.
	WindowDays int
	// SendWorkers bounds concurrent SMTP sends; zero means 1.
	SendWorkers int
}

// DigestPreview is a rendered digest before any send happens.
type DigestPreview struct {
	Subject string        `json:"subject"`
	Window  models.Window `json:"window"`
	HTML    string        `json:"html"`
	Text    string        `json:"text"`
}

// DigestService composes the weekly digest from the same resolved
// timeline the site renders and fans it out to subscribers.
type DigestService struct {
	Schedule     *ScheduleService
	Templates    *email.TemplateManager
	EmailService domain.EmailService
	Config       DigestConfig
	pool         *concurrent.WorkerPool
}

// NewDigestService creates a new digest service.
func NewDigestService(
	schedule *ScheduleService,
	templates *email.TemplateManager,
	emailService domain.EmailService,
	config DigestConfig,
) *DigestService {
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultDigestWindowDays
	}
	return &DigestService{
		Schedule:     schedule,
		Templates:    templates,
		EmailService: emailService,
		Config:       config,
		pool:         concurrent.NewWorkerPool(config.SendWorkers),
	}
}

// ServiceReady checks if the service is ready to compose digests.
func (s *DigestService) ServiceReady() bool {
	return s.Schedule != nil &&
		s.Schedule.ServiceReady() &&
		s.Templates != nil &&
		s.EmailService != nil
}

// Preview renders the digest for the upcoming window without sending
// anything. Cancelled occurrences are left out; a recipient only cares
// about what is actually on.
func (s *DigestService) Preview(ctx context.Context) (*DigestPreview, error) {
	window := s.Schedule.WindowFromToday(s.Config.WindowDays)

	timeline, err := s.Schedule.Timeline(ctx, window, false)
	if err != nil {
		return nil, err
	}

	data := s.digestData(timeline)
	rendered, err := s.Templates.RenderDigest(data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render digest", logging.ErrKey, err)
		return nil, domain.NewInternalError("failed to render digest", err)
	}

	return &DigestPreview{
		Subject: s.subject(window),
		Window:  window,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}, nil
}

// SendWeeklyDigest renders the digest once and sends it to every
// configured recipient. One failed send never blocks the others; the
// returned error reports how many sends failed.
func (s *DigestService) SendWeeklyDigest(ctx context.Context) error {
	if len(s.Config.Recipients) == 0 {
		slog.InfoContext(ctx, "no digest recipients configured, skipping send")
		return nil
	}

	preview, err := s.Preview(ctx)
	if err != nil {
		return err
	}

	functions := make([]func() error, 0, len(s.Config.Recipients))
	for _, recipient := range s.Config.Recipients {
		digest := domain.EmailDigest{
			RecipientEmail: recipient,
			Subject:        preview.Subject,
			HTMLContent:    preview.HTML,
			TextContent:    preview.Text,
		}
		functions = append(functions, func() error {
			return s.EmailService.SendDigest(ctx, digest)
		})
	}

	errors := s.pool.RunAll(ctx, functions...)
	if len(errors) > 0 {
		slog.ErrorContext(ctx, "some digest sends failed",
			logging.ErrKey, errors[0],
			slog.Int("failed", len(errors)),
			slog.Int("total", len(s.Config.Recipients)),
		)
		return domain.NewInternalError(
			fmt.Sprintf("%d of %d digest sends failed", len(errors), len(s.Config.Recipients)),
			errors[0],
		)
	}

	slog.InfoContext(ctx, "weekly digest sent",
		slog.Int("recipients", len(s.Config.Recipients)),
		slog.String("window_start", preview.Window.Start.String()),
		slog.String("window_end", preview.Window.End.String()),
	)
	return nil
}

// digestData maps a timeline projection to the template payload.
func (s *DigestService) digestData(timeline *models.Timeline) email.DigestData {
	data := email.DigestData{
		SiteName:  s.Config.SiteName,
		WeekStart: timeline.Window.Start.Format("Jan 2"),
		WeekEnd:   timeline.Window.End.Format("Jan 2"),
	}
	for _, day := range timeline.Days {
		digestDay := email.DigestDay{
			Heading: day.Date.Format("Monday, Jan 2"),
		}
		for _, occurrence := range day.Occurrences {
			digestDay.Items = append(digestDay.Items, email.DigestItemFromOccurrence(occurrence))
		}
		data.Days = append(data.Days, digestDay)
	}
	return data
}

func (s *DigestService) subject(window models.Window) string {
	return fmt.Sprintf("%s: what's happening %s – %s",
		s.Config.SiteName, window.Start.Format("Jan 2"), window.End.Format("Jan 2"))
}
