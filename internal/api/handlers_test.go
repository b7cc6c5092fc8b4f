// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/shoprec/internal/events"
	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

type fakeEngine struct {
	mu          sync.Mutex
	resp        *recommend.Response
	err         error
	refreshErr  error
	lastUser    string
	lastContext recommend.Context
	hadDeadline bool
	refreshed   []string
}

func (f *fakeEngine) Recommend(ctx context.Context, userID string, rc recommend.Context) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	f.lastContext = rc
	_, f.hadDeadline = ctx.Deadline()
	return f.resp, f.err
}

func (f *fakeEngine) Refresh(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, name)
	return f.refreshErr
}

func (f *fakeEngine) Strategies() []recommend.StrategyStatus {
	return []recommend.StrategyStatus{
		{Name: recommend.StrategyPopular, IndexSize: 3},
		{Name: recommend.StrategyContent, IndexSize: 3},
	}
}

func (f *fakeEngine) Stats() recommend.Stats {
	return recommend.Stats{RequestCount: 7}
}

type fakeCatalog struct {
	items map[string]recommend.Item
	err   error
}

func (f *fakeCatalog) GetItems(_ context.Context, ids []string) (map[string]recommend.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]recommend.Item)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type fakeStore struct {
	mu   sync.Mutex
	last recommend.Interaction
	err  error
}

func (f *fakeStore) RecordInteraction(_ context.Context, in recommend.Interaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = in
	if f.err != nil {
		return "", f.err
	}
	return "int-1", nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakePublisher struct {
	mu      sync.Mutex
	changes []events.Change
	err     error
}

func (f *fakePublisher) PublishChange(_ context.Context, c events.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
	return f.err
}

type fakeBreaker struct{ state string }

func (f *fakeBreaker) State() string { return f.state }

type testEnv struct {
	engine    *fakeEngine
	catalog   *fakeCatalog
	store     *fakeStore
	db        *fakePinger
	publisher *fakePublisher
	breaker   *fakeBreaker
	handler   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	price := 249.0
	env := &testEnv{
		engine: &fakeEngine{resp: &recommend.Response{
			Items: []recommend.Recommendation{
				{ItemID: "P1", Score: 1, Reason: "Trending now", Strategy: recommend.StrategyPopular, Strategies: []string{recommend.StrategyPopular}},
				{ItemID: "P9", Score: 0.8, Strategy: recommend.StrategyPopular},
				{ItemID: "P2", Score: 0.5, Strategy: recommend.StrategyContent},
			},
			RequestID: "engine-request",
			Scene:     "home",
			Algorithm: recommend.AlgorithmHybrid,
			TookMS:    3,
		}},
		catalog: &fakeCatalog{items: map[string]recommend.Item{
			"P1": {ID: "P1", Name: "Headphones", Price: 199, OriginalPrice: &price, ImageURL: "https://img/p1.jpg"},
			"P2": {ID: "P2", Name: "Speaker", Price: 89},
		}},
		store:     &fakeStore{},
		db:        &fakePinger{},
		publisher: &fakePublisher{},
		breaker:   &fakeBreaker{state: "closed"},
	}

	h := NewHandler(Dependencies{
		Engine:         env.engine,
		Catalog:        env.catalog,
		Interactions:   env.store,
		Database:       env.db,
		Publisher:      env.publisher,
		Breaker:        env.breaker,
		RequestTimeout: time.Second,
	})
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://shop.example.com"}
	env.handler = NewRouter(h, cfg).SetupChi()
	return env
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRecommendations_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/recommendations",
		`{"user_id":"alice","scene_id":"detail","item_id":"P1","category_id":"audio","count":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeEnvelope(t, rec)
	assert.Equal(t, models.StatusSuccess, body.Status)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.Metadata.RequestID)
	assert.False(t, body.Metadata.Timestamp.IsZero())

	var data models.RecommendationsData
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.Len(t, data.Recommendations, 2, "items missing from the catalog are dropped")
	assert.Equal(t, "P1", data.Recommendations[0].ItemID)
	assert.Equal(t, "Headphones", data.Recommendations[0].Name)
	assert.Equal(t, "Trending now", data.Recommendations[0].Reason)
	require.NotNil(t, data.Recommendations[0].OriginalPrice)
	assert.Equal(t, 249.0, *data.Recommendations[0].OriginalPrice)
	assert.Equal(t, "P2", data.Recommendations[1].ItemID)
	assert.Equal(t, recommend.AlgorithmHybrid, data.Algorithm)
	assert.Equal(t, "engine-request", data.RequestID)

	assert.Equal(t, "alice", env.engine.lastUser)
	assert.Equal(t, recommend.Context{Count: 5, Scene: "detail", ItemID: "P1", CategoryID: "audio"}, env.engine.lastContext)
	assert.True(t, env.engine.hadDeadline)
}

func TestRecommendations_EmptyResult(t *testing.T) {
	env := newTestEnv(t)
	env.engine.resp = &recommend.Response{Scene: "home", Algorithm: recommend.AlgorithmHybrid}

	rec := env.do(http.MethodPost, "/api/v1/recommendations", `{"user_id":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.RecommendationsData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.NotNil(t, data.Recommendations)
	assert.Empty(t, data.Recommendations)
}

func TestRecommendations_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", `{"user_id":`},
		{"missing user", `{"scene_id":"home"}`},
		{"count too large", `{"user_id":"alice","count":51}`},
		{"negative count", `{"user_id":"alice","count":-1}`},
		{"bad identifier", `{"user_id":"alice","item_id":"has space"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(http.MethodPost, "/api/v1/recommendations", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, models.StatusError, body.Status)
			require.NotNil(t, body.Error)
			assert.Equal(t, ErrCodeValidation, body.Error.Code)
			assert.Empty(t, env.engine.lastUser, "engine must not be called")
		})
	}
}

func TestRecommendations_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		engineErr  error
		catalogErr error
		wantStatus int
		wantCode   string
	}{
		{"data unavailable", recommend.DataUnavailable("popular items", errors.New("down")), nil, http.StatusServiceUnavailable, ErrCodeDataUnavailable},
		{"invalid request", recommend.ErrInvalidRequest, nil, http.StatusBadRequest, ErrCodeValidation},
		{"internal", errors.New("boom"), nil, http.StatusInternalServerError, ErrCodeInternal},
		{"catalog unavailable", nil, recommend.DataUnavailable("get items", errors.New("down")), http.StatusServiceUnavailable, ErrCodeDataUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.engine.err = tt.engineErr
			env.catalog.err = tt.catalogErr

			rec := env.do(http.MethodPost, "/api/v1/recommendations", `{"user_id":"alice"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeEnvelope(t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "down", "internal details must not leak")
		})
	}
}

func TestStrategies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/recommendations/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Strategies []recommend.StrategyStatus `json:"strategies"`
		Stats      recommend.Stats            `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Len(t, data.Strategies, 2)
	assert.Equal(t, int64(7), data.Stats.RequestCount)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/recommendations/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all models.RefreshResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &all))
	assert.Equal(t, []string{recommend.StrategyPopular, recommend.StrategyContent}, all.Refreshed)

	rec = env.do(http.MethodPost, "/api/v1/recommendations/refresh?strategy=item_cf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one models.RefreshResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &one))
	assert.Equal(t, []string{recommend.StrategyItemCF}, one.Refreshed)

	assert.Equal(t, []string{"", recommend.StrategyItemCF}, env.engine.refreshed)
}

func TestRefresh_UnknownStrategy(t *testing.T) {
	env := newTestEnv(t)
	env.engine.refreshErr = recommend.ErrUnknownStrategy

	rec := env.do(http.MethodPost, "/api/v1/recommendations/refresh?strategy=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, decodeEnvelope(t, rec).Error.Code)
}

func TestRecordInteraction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/interactions",
		`{"user_id":"alice","item_id":"P2","event_type":"purchase","timestamp":"2026-03-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data models.InteractionRecorded
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, "int-1", data.ID)
	assert.Equal(t, "purchase", data.EventType)

	assert.Equal(t, recommend.EventPurchase, env.store.last.Kind)
	assert.True(t, env.store.last.Timestamp.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))

	require.Len(t, env.publisher.changes, 1)
	assert.Equal(t, events.KindInteractions, env.publisher.changes[0].Kind)
	assert.Equal(t, []string{"P2"}, env.publisher.changes[0].IDs)
}

func TestRecordInteraction_DefaultsTimestamp(t *testing.T) {
	env := newTestEnv(t)

	before := time.Now().UTC()
	rec := env.do(http.MethodPost, "/api/v1/interactions", `{"user_id":"alice","item_id":"P2","event_type":"view"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, env.store.last.Timestamp.Before(before.Add(-time.Second)))
}

func TestRecordInteraction_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/interactions", `{"user_id":"alice","item_id":"P2","event_type":"wishlist"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.publisher.changes)

	env.store.err = recommend.DataUnavailable("record interaction", errors.New("disk full"))
	rec = env.do(http.MethodPost, "/api/v1/interactions", `{"user_id":"alice","item_id":"P2","event_type":"view"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, env.publisher.changes)
}

func TestRecordInteraction_PublishFailureStillCreated(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("nats down")

	rec := env.do(http.MethodPost, "/api/v1/interactions", `{"user_id":"alice","item_id":"P2","event_type":"click"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthStatus
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Database)
	assert.Equal(t, "closed", health.Breaker)
	assert.Len(t, health.Strategies, 2)

	env.breaker.state = "open"
	rec = env.do(http.MethodGet, "/api/v1/health", "")
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &health))
	assert.Equal(t, "degraded", health.Status)
}

func TestHealthReady(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/health/live", "").Code)

	env.db.err = errors.New("database closed")
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/v1/health/ready", "").Code)

	rec := env.do(http.MethodGet, "/api/v1/health", "")
	var health models.HealthStatus
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &health))
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.Database)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, decodeEnvelope(t, rec).Error.Code)

	rec = env.do(http.MethodGet, "/api/v1/interactions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_MetricsAndHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/health/live", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
