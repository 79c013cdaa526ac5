// Package audio bridges a candidate's audio stream to a caption session:
// the STT adapter's transcripts become user fragments on the session.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt"
)

var (
	ErrLimitExceeded = errors.New("audio limit exceeded")
	ErrSTTFailed     = errors.New("speech-to-text failed")
)

// Limits bound the audio one stream may push.
type Limits struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
}

// DefaultLimits allow a full-length interview at 16kHz 16-bit mono.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 64 * 1024 * 1024,
		MaxDuration:   90 * time.Minute,
	}
}

// Sink receives the fragments produced from audio. *session.Session
// satisfies it.
type Sink interface {
	ID() string
	Ingest(ctx context.Context, f caption.Fragment) (caption.Mutation, error)
	Drop(reason string) bool
}

// Handler manages one audio transcription stream.
// It implements stt.Callback.
type Handler struct {
	adapter  stt.Adapter
	sink     Sink
	provider string
	limits   Limits
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	mu         sync.Mutex
	ctx        context.Context
	startedAt  time.Time
	audioBytes int64
	utterances int
	failure    error
}

// NewHandler creates an audio handler feeding sink.
func NewHandler(adapter stt.Adapter, sink Sink, provider string, limits Limits) *Handler {
	return &Handler{
		adapter:  adapter,
		sink:     sink,
		provider: provider,
		limits:   limits,
		metrics:  metrics.DefaultMetrics,
		logger:   logging.WithSession(sink.ID()).With().Str("component", "audio").Logger(),
		now:      time.Now,
		ctx:      context.Background(),
	}
}

// Start begins the STT session with this handler as the callback receiver.
func (h *Handler) Start(ctx context.Context) error {
	h.mu.Lock()
	h.ctx = ctx
	h.startedAt = h.now()
	h.mu.Unlock()
	return h.adapter.Start(ctx, h)
}

// SendAudio forwards audio to the adapter. Exceeding a limit drops the
// session; an earlier STT or session failure is returned instead of
// sending.
func (h *Handler) SendAudio(ctx context.Context, audio []byte) error {
	h.mu.Lock()
	if h.failure != nil {
		err := h.failure
		h.mu.Unlock()
		return err
	}
	h.audioBytes += int64(len(audio))
	bytes := h.audioBytes
	elapsed := h.now().Sub(h.startedAt)
	h.mu.Unlock()

	h.metrics.RecordAudioReceived(len(audio))

	if h.limits.MaxAudioBytes > 0 && bytes > h.limits.MaxAudioBytes {
		return h.exceed("max_audio_bytes", fmt.Sprintf("%d > %d bytes", bytes, h.limits.MaxAudioBytes))
	}
	if h.limits.MaxDuration > 0 && elapsed > h.limits.MaxDuration {
		return h.exceed("max_duration", fmt.Sprintf("%v > %v", elapsed.Round(time.Second), h.limits.MaxDuration))
	}

	return h.adapter.SendAudio(ctx, audio)
}

func (h *Handler) exceed(reason, detail string) error {
	err := fmt.Errorf("%w: %s", ErrLimitExceeded, detail)
	h.fail(err)
	if h.sink.Drop(reason) {
		h.logger.Warn().Str("reason", reason).Str("detail", detail).Msg("Audio limit exceeded, session dropped")
	}
	return err
}

func (h *Handler) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failure == nil {
		h.failure = err
	}
}

// Close ends the STT session. Any utterance the adapter flushes on close is
// still ingested.
func (h *Handler) Close() error {
	return h.adapter.Close()
}

// UtteranceCount returns the number of utterances processed.
func (h *Handler) UtteranceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.utterances
}

// AudioBytes returns the total audio bytes received.
func (h *Handler) AudioBytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.audioBytes
}

// Err returns the failure that ended the stream, if any.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failure
}

// --- stt.Callback implementation ---

func (h *Handler) OnPartial(text string) {
	h.ingest(text)
}

func (h *Handler) OnFinal(text string, confidence float64) {
	h.logger.Debug().Float64("confidence", confidence).Msg("Final transcript")
	h.ingest(text)
}

func (h *Handler) OnEndOfUtterance() {
	h.mu.Lock()
	h.utterances++
	n := h.utterances
	h.mu.Unlock()

	h.metrics.RecordUtterance()
	h.logger.Debug().Int("utterance", n).Msg("End of utterance")
}

// OnError records the failure; the next SendAudio reports it so the
// stream owner can stop.
func (h *Handler) OnError(err error) {
	errType := stt.ErrorType(err)
	h.metrics.RecordSTTError(h.provider, errType)
	h.logger.Error().Err(err).Str("provider", h.provider).Str("errorType", errType).Msg("STT error")
	h.fail(fmt.Errorf("%w: %v", ErrSTTFailed, err))
}

func (h *Handler) ingest(text string) {
	h.mu.Lock()
	ctx := h.ctx
	h.mu.Unlock()

	f := caption.Fragment{Role: caption.RoleUser, Text: text, At: h.now().UnixMilli()}
	if _, err := h.sink.Ingest(ctx, f); err != nil {
		h.logger.Warn().Err(err).Msg("Transcript rejected by session")
		h.fail(err)
	}
}
