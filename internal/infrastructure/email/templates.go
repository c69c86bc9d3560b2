// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package email renders and sends the weekly digest.
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"github.com/gatherhall/events-service/internal/domain/models"
)

//go:embed templates/*
var templateFS embed.FS

// RenderedEmail holds both HTML and text versions of a rendered email.
type RenderedEmail struct {
	HTML string
	Text string
}

// DigestData is the template payload for one digest render.
type DigestData struct {
	SiteName  string
	WeekStart string
	WeekEnd   string
	Days      []DigestDay
}

// DigestDay is one date group in the digest body.
type DigestDay struct {
	Heading string // e.g. "Monday, Feb 2"
	Items   []DigestItem
}

// DigestItem is one occurrence line.
type DigestItem struct {
	Title       string
	TimeRange   string
	Venue       string
	Cost        string
	Unconfirmed bool
	URL         string
}

// TemplateManager renders digest emails from the embedded templates.
type TemplateManager struct {
	html *template.Template
	text *texttemplate.Template
}

// NewTemplateManager loads the digest templates.
func NewTemplateManager() (*TemplateManager, error) {
	htmlTmpl, err := template.ParseFS(templateFS, "templates/digest.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing digest HTML template: %w", err)
	}
	textTmpl, err := texttemplate.ParseFS(templateFS, "templates/digest.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing digest text template: %w", err)
	}
	return &TemplateManager{html: htmlTmpl, text: textTmpl}, nil
}

// RenderDigest renders both digest bodies from a timeline projection.
func (m *TemplateManager) RenderDigest(data DigestData) (*RenderedEmail, error) {
	var htmlBuf bytes.Buffer
	if err := m.html.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("rendering digest HTML: %w", err)
	}
	var textBuf bytes.Buffer
	if err := m.text.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("rendering digest text: %w", err)
	}
	return &RenderedEmail{HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}

// DigestItemFromOccurrence maps one resolved occurrence to its digest
// line. Fields come from the resolved stream, never re-read from the
// base row, so the digest can't disagree with the site.
func DigestItemFromOccurrence(occurrence models.ResolvedOccurrence) DigestItem {
	timeRange := occurrence.StartTime
	if timeRange != "" && occurrence.EndTime != "" {
		timeRange += "–" + occurrence.EndTime
	}
	return DigestItem{
		Title:       occurrence.Title,
		TimeRange:   timeRange,
		Venue:       occurrence.VenueName,
		Cost:        occurrence.Cost,
		Unconfirmed: occurrence.Verification != models.VerificationConfirmed,
		URL:         occurrence.EventURL,
	}
}
