package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

func newTestClient(url string, retries int) *Client {
	c := New(Config{BaseURL: url + "/api/", Timeout: 5 * time.Second, MaxRetries: retries})
	c.backoff = func(int) time.Duration { return time.Millisecond }
	c.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	return c
}

func TestGenerateQuestionAnswers_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-question-answers", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("report_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"question_answers":"Q1: Why Go?\nA1: Simplicity."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	raw, err := c.GenerateQuestionAnswers(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, "Q1: Why Go?\nA1: Simplicity.", raw)
}

func TestGenerateQuestionAnswers_MissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv.URL, 1).GenerateQuestionAnswers(context.Background(), "42")

	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestGenerateQuestionAnswers_EmptyReportID(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", 3)

	_, err := c.GenerateQuestionAnswers(context.Background(), "")

	assert.ErrorIs(t, err, ErrMissingReportID)
}

func TestGenerateQuestionAnswers_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"question_answers":"Q1: a\nA1: b"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	raw, err := c.GenerateQuestionAnswers(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, "Q1: a\nA1: b", raw)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateQuestionAnswers_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such report", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	_, err := c.GenerateQuestionAnswers(context.Background(), "missing")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.BackendErrors.WithLabelValues(opGenerateQA)))
}

func TestGenerateQuestionAnswers_DoesNotRetryMalformedJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).GenerateQuestionAnswers(context.Background(), "1")

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateQuestionAnswers_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).GenerateQuestionAnswers(context.Background(), "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateQuestionAnswers_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 5).GenerateQuestionAnswers(ctx, "1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_AtLeastOneAttempt(t *testing.T) {
	c := New(Config{BaseURL: "http://x/", MaxRetries: 0})
	assert.Equal(t, 1, c.maxRetries)
}
