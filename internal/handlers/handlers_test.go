// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/internal/infrastructure/email"
	"github.com/gatherhall/events-service/internal/infrastructure/ics"
	"github.com/gatherhall/events-service/internal/service"
	"github.com/gatherhall/events-service/pkg/constants"
	"github.com/gatherhall/events-service/pkg/dates"
)

// memDefinitionRepository is an in-memory DefinitionRepository.
type memDefinitionRepository struct {
	definitions map[string]*models.EventDefinition
	revisions   map[string]uint64
}

func newMemDefinitionRepository() *memDefinitionRepository {
	return &memDefinitionRepository{
		definitions: make(map[string]*models.EventDefinition),
		revisions:   make(map[string]uint64),
	}
}

func (m *memDefinitionRepository) Create(_ context.Context, definition *models.EventDefinition) error {
	m.definitions[definition.UID] = definition
	m.revisions[definition.UID] = 1
	return nil
}

func (m *memDefinitionRepository) Get(_ context.Context, uid string) (*models.EventDefinition, error) {
	definition, ok := m.definitions[uid]
	if !ok {
		return nil, domain.NewNotFoundError("event definition not found")
	}
	return definition, nil
}

func (m *memDefinitionRepository) GetWithRevision(ctx context.Context, uid string) (*models.EventDefinition, uint64, error) {
	definition, err := m.Get(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	return definition, m.revisions[uid], nil
}

func (m *memDefinitionRepository) Update(_ context.Context, definition *models.EventDefinition, revision uint64) error {
	current, ok := m.revisions[definition.UID]
	if !ok {
		return domain.NewNotFoundError("event definition not found")
	}
	if revision != current {
		return domain.NewConflictError("event definition has been modified")
	}
	m.definitions[definition.UID] = definition
	m.revisions[definition.UID] = current + 1
	return nil
}

func (m *memDefinitionRepository) Delete(_ context.Context, uid string, _ uint64) error {
	if _, ok := m.definitions[uid]; !ok {
		return domain.NewNotFoundError("event definition not found")
	}
	delete(m.definitions, uid)
	delete(m.revisions, uid)
	return nil
}

func (m *memDefinitionRepository) ListAll(_ context.Context) ([]*models.EventDefinition, error) {
	out := make([]*models.EventDefinition, 0, len(m.definitions))
	for _, definition := range m.definitions {
		out = append(out, definition)
	}
	return out, nil
}

// memOverrideRepository is an in-memory OverrideRepository.
type memOverrideRepository struct {
	overrides map[string]*models.OccurrenceOverride
}

func newMemOverrideRepository() *memOverrideRepository {
	return &memOverrideRepository{overrides: make(map[string]*models.OccurrenceOverride)}
}

func (m *memOverrideRepository) Put(_ context.Context, override *models.OccurrenceOverride) error {
	m.overrides[override.Key()] = override
	return nil
}

func (m *memOverrideRepository) Get(_ context.Context, definitionUID string, dateKey dates.DateKey) (*models.OccurrenceOverride, error) {
	override, ok := m.overrides[models.OverrideKey(definitionUID, dateKey)]
	if !ok {
		return nil, domain.NewNotFoundError("occurrence override not found")
	}
	return override, nil
}

func (m *memOverrideRepository) Delete(_ context.Context, definitionUID string, dateKey dates.DateKey) error {
	key := models.OverrideKey(definitionUID, dateKey)
	if _, ok := m.overrides[key]; !ok {
		return domain.NewNotFoundError("occurrence override not found")
	}
	delete(m.overrides, key)
	return nil
}

func (m *memOverrideRepository) ListForDefinition(_ context.Context, definitionUID string) ([]*models.OccurrenceOverride, error) {
	var out []*models.OccurrenceOverride
	for _, override := range m.overrides {
		if override.DefinitionUID == definitionUID {
			out = append(out, override)
		}
	}
	return out, nil
}

// noopMessageBuilder drops indexer messages.
type noopMessageBuilder struct{}

func (noopMessageBuilder) SendIndexEventDefinition(context.Context, models.MessageAction, *models.EventDefinition) error {
	return nil
}
func (noopMessageBuilder) SendDeleteIndexEventDefinition(context.Context, string) error { return nil }
func (noopMessageBuilder) SendIndexOccurrenceOverride(context.Context, models.MessageAction, *models.OccurrenceOverride) error {
	return nil
}
func (noopMessageBuilder) SendDeleteIndexOccurrenceOverride(context.Context, string) error {
	return nil
}

// noopEmailService drops digest sends.
type noopEmailService struct{}

func (noopEmailService) SendDigest(context.Context, domain.EmailDigest) error { return nil }

var (
	_ domain.DefinitionRepository = (*memDefinitionRepository)(nil)
	_ domain.OverrideRepository   = (*memOverrideRepository)(nil)
	_ domain.MessageBuilder       = noopMessageBuilder{}
	_ domain.EmailService         = noopEmailService{}
)

func newTestHandlers(t *testing.T) (*Handlers, http.Handler) {
	t.Helper()

	definitions := newMemDefinitionRepository()
	overrides := newMemOverrideRepository()
	messageBuilder := noopMessageBuilder{}
	clock := dates.FixedClock(time.UTC)
	config := service.ServiceConfig{}

	events := service.NewEventService(definitions, overrides, messageBuilder, config)
	override := service.NewOverrideService(definitions, overrides, messageBuilder, config)
	schedule := service.NewScheduleService(definitions, overrides, clock, config)
	templates, err := email.NewTemplateManager()
	require.NoError(t, err)
	digest := service.NewDigestService(schedule, templates, noopEmailService{}, service.DigestConfig{SiteName: "Gatherhall"})

	h := NewHandlers(events, override, schedule, digest, ics.NewFeedBuilder(time.UTC))

	r := chi.NewRouter()
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

	return h, r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createWeeklyEvent(t *testing.T, router http.Handler) string {
	t.Helper()
	body := `{
		"title": "Trivia Night",
		"start_time": "19:00",
		"end_time": "21:00",
		"venue_name": "The Anchor",
		"recurrence_rule": "weekly",
		"weekday": "Monday",
		"anchor_date": "2026-01-05"
	}`
	resp := doRequest(t, router, http.MethodPost, "/events", body, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created models.EventDefinition
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.UID)
	return created.UID
}

func TestCreateEvent(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodGet, "/events/"+uid, "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "1", resp.Header().Get(constants.EtagHeader))
	assert.Contains(t, resp.Body.String(), "Trivia Night")
}

func TestCreateEventInvalidBody(t *testing.T) {
	_, router := newTestHandlers(t)

	resp := doRequest(t, router, http.MethodPost, "/events", `{"title": "X", "bogus_field": 1}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "invalid request body", body.Error)
}

func TestCreateEventInconsistentRecurrence(t *testing.T) {
	_, router := newTestHandlers(t)

	// 2026-01-05 is a Monday; a Tuesday weekday must block the write.
	body := `{
		"title": "Trivia Night",
		"recurrence_rule": "weekly",
		"weekday": "Tuesday",
		"anchor_date": "2026-01-05"
	}`
	resp := doRequest(t, router, http.MethodPost, "/events", body, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListEvents(t *testing.T) {
	_, router := newTestHandlers(t)

	resp := doRequest(t, router, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "[]\n", resp.Body.String())

	createWeeklyEvent(t, router)
	resp = doRequest(t, router, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var definitions []models.EventDefinition
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &definitions))
	assert.Len(t, definitions, 1)
}

func TestGetEventNotFound(t *testing.T) {
	_, router := newTestHandlers(t)

	resp := doRequest(t, router, http.MethodGet, "/events/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "not found")
}

func TestUpdateEventConditional(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	body := `{
		"title": "Pub Quiz",
		"start_time": "19:00",
		"recurrence_rule": "weekly",
		"weekday": "Monday",
		"anchor_date": "2026-01-05"
	}`

	resp := doRequest(t, router, http.MethodPut, "/events/"+uid, body,
		map[string]string{constants.IfMatchHeader: "1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Pub Quiz")

	// The first edit bumped the revision, so revision 1 is stale.
	resp = doRequest(t, router, http.MethodPut, "/events/"+uid, body,
		map[string]string{constants.IfMatchHeader: "1"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doRequest(t, router, http.MethodPut, "/events/"+uid, body,
		map[string]string{constants.IfMatchHeader: "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateEventWithoutIfMatch(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	body := `{
		"title": "Pub Quiz",
		"start_time": "19:00",
		"recurrence_rule": "weekly",
		"weekday": "Monday",
		"anchor_date": "2026-01-05"
	}`

	// No If-Match makes the write unconditional, however many edits
	// have bumped the revision in the meantime.
	resp := doRequest(t, router, http.MethodPut, "/events/"+uid, body, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = doRequest(t, router, http.MethodPut, "/events/"+uid, body, nil)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestDeleteEventWithoutIfMatch(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodDelete, "/events/"+uid, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestDeleteEvent(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodDelete, "/events/"+uid, "",
		map[string]string{constants.IfMatchHeader: "1"})
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(t, router, http.MethodGet, "/events/"+uid, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpsertOverride(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodPut, "/events/"+uid+"/occurrences/2026-01-12",
		`{"status": "cancelled"}`, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = doRequest(t, router, http.MethodGet, "/events/"+uid+"/occurrences/2026-01-12", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "cancelled")
}

func TestUpsertOverrideRejectsRecurrenceFields(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodPut, "/events/"+uid+"/occurrences/2026-01-12",
		`{"patch": {"weekday": "Tuesday"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "weekday")
}

func TestUpsertOverrideInvalidDate(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodPut, "/events/"+uid+"/occurrences/Jan-12",
		`{"status": "cancelled"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid occurrence date")
}

func TestResetOverride(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	doRequest(t, router, http.MethodPut, "/events/"+uid+"/occurrences/2026-01-12",
		`{"status": "cancelled"}`, nil)

	resp := doRequest(t, router, http.MethodDelete, "/events/"+uid+"/occurrences/2026-01-12", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(t, router, http.MethodDelete, "/events/"+uid+"/occurrences/2026-01-12", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHappenings(t *testing.T) {
	_, router := newTestHandlers(t)
	createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodGet, "/happenings?date=2026-01-01&days=31", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var timeline models.Timeline
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &timeline))
	require.Len(t, timeline.Days, 4, "four Mondays in January 2026")
	assert.Equal(t, dates.DateKey("2026-01-05"), timeline.Days[0].Date)
}

func TestHappeningsInvalidDate(t *testing.T) {
	_, router := newTestHandlers(t)

	resp := doRequest(t, router, http.MethodGet, "/happenings?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEventOccurrences(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodGet,
		"/events/"+uid+"/occurrences?from=2026-01-01&days=14", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "2026-01-05")
	assert.Contains(t, resp.Body.String(), "2026-01-12")
}

func TestCalendarFeed(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	resp := doRequest(t, router, http.MethodGet,
		"/events/"+uid+"/calendar.ics?from=2026-01-01&days=31", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, resp.Body.String(), "RRULE")
}

func TestAudit(t *testing.T) {
	_, router := newTestHandlers(t)
	uid := createWeeklyEvent(t, router)

	// An override on a Tuesday slot the weekly rule never produces.
	doRequest(t, router, http.MethodPut, "/events/"+uid+"/occurrences/2026-01-13",
		`{"status": "cancelled"}`, nil)

	resp := doRequest(t, router, http.MethodGet,
		"/events/"+uid+"/audit?from=2026-01-01&days=31", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "2026-01-13")
}

func TestPreviewDigest(t *testing.T) {
	_, router := newTestHandlers(t)

	resp := doRequest(t, router, http.MethodPost, "/digest/preview", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Gatherhall: what's happening")
}

func TestReady(t *testing.T) {
	h, _ := newTestHandlers(t)
	assert.True(t, h.Ready())

	h.Feed = nil
	assert.False(t, h.Ready())
}
