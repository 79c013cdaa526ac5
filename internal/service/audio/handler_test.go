package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt/mock"
)

// testAdapter implements stt.Adapter for testing
type testAdapter struct {
	started bool
	closed  bool
	audio   [][]byte
	cb      stt.Callback
}

func (m *testAdapter) Start(ctx context.Context, cb stt.Callback) error {
	m.started = true
	m.cb = cb
	return nil
}

func (m *testAdapter) SendAudio(ctx context.Context, audio []byte) error {
	m.audio = append(m.audio, audio)
	return nil
}

func (m *testAdapter) Close() error {
	m.closed = true
	return nil
}

type fakeSink struct {
	mu        sync.Mutex
	fragments []caption.Fragment
	dropped   string
	err       error
}

func (s *fakeSink) ID() string { return "sess-test" }

func (s *fakeSink) Ingest(ctx context.Context, f caption.Fragment) (caption.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = append(s.fragments, f)
	return caption.Mutation{Kind: caption.Append}, s.err
}

func (s *fakeSink) Drop(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped != "" {
		return false
	}
	s.dropped = reason
	return true
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestHandler(adapter stt.Adapter, sink Sink, limits Limits) (*Handler, *fakeClock) {
	h := NewHandler(adapter, sink, "test", limits)
	h.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	clock := &fakeClock{t: time.UnixMilli(1_000_000)}
	h.now = clock.now
	return h, clock
}

func TestHandler_MaxAudioBytesLimit(t *testing.T) {
	adapter := &testAdapter{}
	sink := &fakeSink{}
	h, _ := newTestHandler(adapter, sink, Limits{MaxAudioBytes: 100, MaxDuration: time.Hour})
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	require.NoError(t, h.SendAudio(ctx, make([]byte, 50)))

	err := h.SendAudio(ctx, make([]byte, 60))
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, "max_audio_bytes", sink.dropped)
	assert.Len(t, adapter.audio, 1, "over-limit frame must not reach the adapter")

	assert.ErrorIs(t, h.SendAudio(ctx, make([]byte, 1)), ErrLimitExceeded)
}

func TestHandler_MaxDurationLimit(t *testing.T) {
	adapter := &testAdapter{}
	sink := &fakeSink{}
	h, clock := newTestHandler(adapter, sink, Limits{MaxAudioBytes: 1 << 20, MaxDuration: time.Minute})
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	require.NoError(t, h.SendAudio(ctx, []byte("audio")))

	clock.advance(2 * time.Minute)
	assert.ErrorIs(t, h.SendAudio(ctx, []byte("audio")), ErrLimitExceeded)
	assert.Equal(t, "max_duration", sink.dropped)
}

func TestHandler_ZeroLimitsUnbounded(t *testing.T) {
	adapter := &testAdapter{}
	h, clock := newTestHandler(adapter, &fakeSink{}, Limits{})
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	clock.advance(24 * time.Hour)
	require.NoError(t, h.SendAudio(ctx, make([]byte, 10<<20)))
	assert.Equal(t, int64(10<<20), h.AudioBytes())
}

func TestHandler_TranscriptsBecomeUserFragments(t *testing.T) {
	sink := &fakeSink{}
	h, clock := newTestHandler(&testAdapter{}, sink, DefaultLimits())
	require.NoError(t, h.Start(context.Background()))

	h.OnPartial("I have")
	clock.advance(300 * time.Millisecond)
	h.OnFinal("I have five years.", 0.9)
	h.OnEndOfUtterance()

	require.Len(t, sink.fragments, 2)
	assert.Equal(t, caption.RoleUser, sink.fragments[0].Role)
	assert.Equal(t, "I have", sink.fragments[0].Text)
	assert.Equal(t, int64(300), sink.fragments[1].At-sink.fragments[0].At)
	assert.Equal(t, 1, h.UtteranceCount())
}

func TestHandler_STTErrorStopsStream(t *testing.T) {
	adapter := &testAdapter{}
	h, _ := newTestHandler(adapter, &fakeSink{}, DefaultLimits())
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	h.OnError(status.Error(codes.Unavailable, "stream reset"))

	err := h.SendAudio(ctx, []byte("audio"))
	assert.ErrorIs(t, err, ErrSTTFailed)
	assert.Empty(t, adapter.audio)
}

func TestHandler_SessionRejectionStopsStream(t *testing.T) {
	sink := &fakeSink{err: session.ErrSessionClosed}
	h, _ := newTestHandler(&testAdapter{}, sink, DefaultLimits())
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	h.OnPartial("hello")

	assert.True(t, errors.Is(h.SendAudio(ctx, []byte("audio")), session.ErrSessionClosed))
}

func TestHandler_MockAdapterIntoSession(t *testing.T) {
	reg := session.NewRegistry(session.Options{
		Caption: caption.DefaultConfig(),
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	})
	sess := reg.Create()
	script := []mock.Utterance{
		{Partials: []string{"I", "I led"}, Final: "I led the migration.", Confidence: 0.9},
	}
	h, clock := newTestHandler(mock.New(script...), sess, DefaultLimits())
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.SendAudio(ctx, []byte("frame")))
		clock.advance(200 * time.Millisecond)
	}
	require.NoError(t, h.Close())

	entries := sess.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Alex", entries[0].Speaker)
	assert.Equal(t, "I led the migration.", entries[0].Text)
	assert.Equal(t, 1, h.UtteranceCount())
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()

	assert.Equal(t, int64(64*1024*1024), limits.MaxAudioBytes)
	assert.Equal(t, 90*time.Minute, limits.MaxDuration)
}
