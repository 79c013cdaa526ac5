package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruchit878/smart-job-kit-generator/internal/app"
	"github.com/ruchit878/smart-job-kit-generator/internal/archive"
	"github.com/ruchit878/smart-job-kit-generator/internal/backend"
	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/config"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt/mock"
)

const sampleTranscript = "Q1: What is your greatest strength?\nA1: Adaptability.\n---\nQ2: Why this role?\nA2: Growth opportunity."

type fakeBackend struct {
	raw string
	err error
}

func (b *fakeBackend) GenerateQuestionAnswers(ctx context.Context, reportID string) (string, error) {
	if reportID == "" {
		return "", backend.ErrMissingReportID
	}
	return b.raw, b.err
}

type fakeArchive struct {
	reportID string
	markdown string
	err      error
}

func (a *fakeArchive) PutMarkdown(ctx context.Context, reportID, markdown string) (archive.Object, error) {
	a.reportID = reportID
	a.markdown = markdown
	if a.err != nil {
		return archive.Object{}, a.err
	}
	return archive.Object{Key: "qa/" + reportID + "/doc.md", URL: "https://example.test/doc.md"}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []any
}

func (e *fakeEvents) PublishQA(ctx context.Context, reportID, eventType string, event any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

type testEnv struct {
	app     *app.Application
	backend *fakeBackend
	events  *fakeEvents
	server  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Service:       config.ServiceConfig{Principal: "svc-test"},
		Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "json"},
		STT:           config.STTConfig{Provider: "mock"},
		SessionLimits: config.SessionLimitsConfig{MaxFragments: 100, MaxAudioBytes: 1 << 20, MaxDuration: time.Hour},
	}
	a := app.New(cfg)

	env := &testEnv{
		app:     a,
		backend: &fakeBackend{raw: sampleTranscript},
		events:  &fakeEvents{},
	}
	a.Backend = env.backend
	a.Events = env.events
	a.Sessions = session.NewRegistry(session.Options{
		Caption:      caption.DefaultConfig(),
		MaxFragments: cfg.SessionLimits.MaxFragments,
		Metrics:      metrics.NewMetrics(prometheus.NewRegistry()),
	})
	a.NewSTT = func(ctx context.Context) (stt.Adapter, error) {
		return mock.New(mock.Utterance{Partials: []string{"I led"}, Final: "I led the migration.", Confidence: 0.9}), nil
	}
	require.NoError(t, a.Start())

	env.server = httptest.NewServer(NewRouter(a))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRouter_Probes(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/liveness", "").StatusCode)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/readiness", "").StatusCode)

	env.app.Shutdown()
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/v1/readiness", "").StatusCode)
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/nope", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	apiErr := decode[APIError](t, resp)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, apiErr.RequestID, resp.Header.Get("X-Request-Id"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/v1/qa/parse", "")

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodOptions, "/v1/sessions", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoverer_ReturnsInternalError(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "unexpected server error")
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Not Found: gone", errNotFound("gone").Error())
	assert.Equal(t, "Conflict", newAPIError(http.StatusConflict, "").Error())
}
