package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/models"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

// Publisher sends caption mutations to the event bus.
type Publisher interface {
	PublishCaption(ctx context.Context, sessionID, eventType string, event any) error
}

// subscriberBuffer is the per-subscriber mutation backlog. A subscriber
// that falls further behind misses mutations rather than stalling ingest.
const subscriberBuffer = 64

// Session is one live interview caption stream.
type Session struct {
	id        string
	createdAt time.Time
	lifecycle *Lifecycle

	mu           sync.Mutex
	lastActivity time.Time
	stabilizer   *caption.Stabilizer
	log          *caption.Log
	labels       caption.Labeler
	fragments    int
	maxFragments int
	subs         map[int]chan models.CaptionMutation
	nextSub      int

	// Bus writes happen outside mu. Each changed mutation takes a ticket
	// under mu and publishes when published reaches it, keeping ingest order.
	nextTicket  uint64
	publishMu   sync.Mutex
	publishCond *sync.Cond
	published   uint64
	publisher   Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func newSession(id string, opts Options) *Session {
	now := time.Now()
	s := &Session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		lifecycle:    NewLifecycle(id),
		stabilizer:   caption.New(opts.Caption),
		log:          caption.NewLog(opts.Labels),
		labels:       opts.Labels,
		maxFragments: opts.MaxFragments,
		subs:         make(map[int]chan models.CaptionMutation),
		publisher:    opts.Publisher,
		metrics:      opts.Metrics,
		logger:       logging.WithSession(id),
	}
	s.publishCond = sync.NewCond(&s.publishMu)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActivity returns when the session last accepted a fragment.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) State() State {
	return s.lifecycle.State()
}

// Ingest runs one fragment through the stabilizer. Non-suppressed
// mutations are applied to the log, fanned out and published in the order
// they were produced. The bus write happens outside the session lock, so
// readers and subscribers are not held up by a slow broker.
func (s *Session) Ingest(ctx context.Context, f caption.Fragment) (caption.Mutation, error) {
	s.mu.Lock()
	m, changed, err := s.ingestLocked(f)
	if err != nil || !changed {
		s.mu.Unlock()
		return m, err
	}
	event := s.toEvent(m)
	s.fanOut(event)
	ticket := s.nextTicket
	s.nextTicket++
	s.mu.Unlock()

	s.publish(ctx, ticket, event)

	s.logger.Debug().
		Str("kind", m.Kind.String()).
		Int("index", m.Index).
		Str("role", f.Role).
		Msg("Caption updated")

	return m, nil
}

func (s *Session) publish(ctx context.Context, ticket uint64, event models.CaptionMutation) {
	s.publishMu.Lock()
	for s.published != ticket {
		s.publishCond.Wait()
	}
	s.publishMu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishCaption(ctx, s.id, event.EventType, event); err != nil {
			s.logger.Error().Err(err).Int("index", event.Index).Msg("Failed to publish caption mutation")
		}
	}

	s.publishMu.Lock()
	s.published++
	s.publishCond.Broadcast()
	s.publishMu.Unlock()
}

func (s *Session) ingestLocked(f caption.Fragment) (caption.Mutation, bool, error) {
	if err := s.lifecycle.Accept(); err != nil {
		return caption.Mutation{Kind: caption.Suppress, Index: -1}, false, err
	}

	s.fragments++
	if s.maxFragments > 0 && s.fragments > s.maxFragments {
		s.logger.Warn().Int("maxFragments", s.maxFragments).Msg("Fragment limit exceeded, dropping session")
		s.dropLocked("max_fragments")
		return caption.Mutation{Kind: caption.Suppress, Index: -1}, false, ErrFragmentLimitExceeded
	}
	s.lastActivity = time.Now()

	m := s.stabilizer.Ingest(f)
	s.metrics.RecordFragment(f.Role, m.Kind.String())

	return m, s.log.Apply(m), nil
}

func (s *Session) toEvent(m caption.Mutation) models.CaptionMutation {
	eventType := models.EventCaptionAppend
	if m.Kind == caption.Replace {
		eventType = models.EventCaptionReplace
	}
	return models.CaptionMutation{
		EventType:     eventType,
		SessionID:     s.id,
		Index:         m.Index,
		Role:          m.Line.Role,
		Speaker:       s.labels.Label(m.Line.Role),
		Text:          m.Line.Text,
		FirstSeenAt:   m.Line.FirstSeenAt,
		LastUpdatedAt: m.Line.LastUpdatedAt,
	}
}

func (s *Session) fanOut(event models.CaptionMutation) {
	for id, ch := range s.subs {
		select {
		case ch <- event:
		default:
			s.logger.Warn().Int("subscriber", id).Msg("Subscriber behind, mutation skipped")
		}
	}
}

// Entries returns a snapshot of the caption log.
func (s *Session) Entries() []caption.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entries()
}

// Subscribe returns a channel of future mutations and a cancel func. The
// channel is closed when the session ends or cancel is called. Subscribing
// to a terminated session returns an already-closed channel.
func (s *Session) Subscribe() (<-chan models.CaptionMutation, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeLocked()
}

// Follow is Subscribe plus a snapshot of the log taken atomically with the
// subscription, so no mutation falls between the two.
func (s *Session) Follow() ([]caption.Entry, <-chan models.CaptionMutation, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, cancel := s.subscribeLocked()
	return s.log.Entries(), ch, cancel
}

func (s *Session) subscribeLocked() (<-chan models.CaptionMutation, func()) {
	ch := make(chan models.CaptionMutation, subscriberBuffer)
	if s.lifecycle.IsClosed() {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// SnapshotEvent renders a log entry as an append mutation, for clients that
// join mid-session.
func (s *Session) SnapshotEvent(index int, e caption.Entry) models.CaptionMutation {
	return models.CaptionMutation{
		EventType:     models.EventCaptionAppend,
		SessionID:     s.id,
		Index:         index,
		Role:          e.Role,
		Speaker:       e.Speaker,
		Text:          e.Text,
		FirstSeenAt:   e.FirstSeenAt,
		LastUpdatedAt: e.LastUpdatedAt,
	}
}

// Drop abandons the session and releases its subscribers.
func (s *Session) Drop(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropLocked(reason)
}

func (s *Session) dropLocked(reason string) bool {
	if !s.lifecycle.Drop() {
		return false
	}
	s.metrics.RecordSessionDropped(reason)
	s.closeSubsLocked()
	return true
}

func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := s.lifecycle.Close()
	s.closeSubsLocked()
	return closed
}

func (s *Session) closeSubsLocked() {
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
