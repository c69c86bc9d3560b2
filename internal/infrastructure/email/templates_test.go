// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

func TestNewTemplateManager(t *testing.T) {
	manager, err := NewTemplateManager()
	require.NoError(t, err)
	require.NotNil(t, manager)
}

func TestRenderDigest(t *testing.T) {
	manager, err := NewTemplateManager()
	require.NoError(t, err)

	data := DigestData{
		SiteName:  "Gatherhall",
		WeekStart: "Feb 2",
		WeekEnd:   "Feb 8",
		Days: []DigestDay{
			{
				Heading: "Monday, Feb 2",
				Items: []DigestItem{
					{
						Title:     "Trivia Night",
						TimeRange: "19:00–21:00",
						Venue:     "The Anchor",
						Cost:      "Free",
						URL:       "https://gatherhall.org/events/trivia",
					},
				},
			},
			{
				Heading: "Saturday, Feb 7",
				Items: []DigestItem{
					{Title: "Flea Market", Venue: "Town Square", Unconfirmed: true},
				},
			},
		},
	}

	rendered, err := manager.RenderDigest(data)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, "Monday, Feb 2")
	assert.Contains(t, rendered.HTML, "Trivia Night")
	assert.Contains(t, rendered.HTML, "19:00–21:00")
	assert.Contains(t, rendered.HTML, "The Anchor")
	assert.Contains(t, rendered.HTML, "(unconfirmed)")
	assert.Contains(t, rendered.HTML, "https://gatherhall.org/events/trivia")

	assert.Contains(t, rendered.Text, "Monday, Feb 2")
	assert.Contains(t, rendered.Text, "Flea Market")
	assert.Contains(t, rendered.Text, "[unconfirmed]")
	assert.NotContains(t, rendered.Text, "<")
}

func TestRenderDigestEmptyWeek(t *testing.T) {
	manager, err := NewTemplateManager()
	require.NoError(t, err)

	rendered, err := manager.RenderDigest(DigestData{
		SiteName:  "Gatherhall",
		WeekStart: "Feb 2",
		WeekEnd:   "Feb 8",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rendered.HTML)
	assert.NotEmpty(t, rendered.Text)
}

func TestDigestItemFromOccurrence(t *testing.T) {
	occurrence := models.ResolvedOccurrence{
		DefinitionUID:  "trivia",
		DateKey:        dates.DateKey("2026-02-02"),
		DisplayDateKey: dates.DateKey("2026-02-02"),
		Title:          "Trivia Night",
		StartTime:      "19:00",
		EndTime:        "21:00",
		VenueName:      "The Anchor",
		Cost:           "Free",
		EventURL:       "https://gatherhall.org/events/trivia",
		Verification:   models.VerificationConfirmed,
	}

	item := DigestItemFromOccurrence(occurrence)
	assert.Equal(t, "Trivia Night", item.Title)
	assert.Equal(t, "19:00–21:00", item.TimeRange)
	assert.Equal(t, "The Anchor", item.Venue)
	assert.Equal(t, "Free", item.Cost)
	assert.False(t, item.Unconfirmed)

	occurrence.Verification = models.VerificationNeedsReview
	assert.True(t, DigestItemFromOccurrence(occurrence).Unconfirmed)

	occurrence.EndTime = ""
	assert.Equal(t, "19:00", DigestItemFromOccurrence(occurrence).TimeRange)

	occurrence.StartTime = ""
	assert.Empty(t, DigestItemFromOccurrence(occurrence).TimeRange)
}
