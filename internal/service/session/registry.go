package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

// Options configure every session a registry creates.
type Options struct {
	Caption      caption.Config
	Labels       caption.Labeler
	MaxFragments int
	Publisher    Publisher
	Metrics      *metrics.Metrics
}

// Registry tracks live sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	gen      *Generator
	opts     Options
}

// NewRegistry creates an empty registry. Zero-valued labels fall back to the
// default speaker labels.
func NewRegistry(opts Options) *Registry {
	if opts.Labels == (caption.Labeler{}) {
		opts.Labels = caption.DefaultLabeler()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultMetrics
	}
	return &Registry{
		sessions: make(map[string]*Session),
		gen:      NewGenerator(),
		opts:     opts,
	}
}

// Create opens a session under a freshly generated ID.
func (r *Registry) Create() *Session {
	s := newSession(r.gen.Next(), r.opts)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.opts.Metrics.RecordSessionOpened()
	log.Info().Str("sessionId", s.id).Msg("Caption session opened")
	return s
}

// GetOrCreate returns the open session for id, opening one if none exists.
// Used for externally keyed sessions such as Kafka interactions.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		if !s.lifecycle.IsClosed() {
			return s
		}
		s.close()
		r.opts.Metrics.RecordSessionClosed()
	}
	s := newSession(id, r.opts)
	r.sessions[id] = s

	r.opts.Metrics.RecordSessionOpened()
	log.Info().Str("sessionId", id).Msg("Caption session opened")
	return s
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends the session and removes it from the registry. Dropped
// sessions are removed the same way.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	r.finish(s, "closed")
	return nil
}

func (r *Registry) finish(s *Session, reason string) {
	s.close()
	r.opts.Metrics.RecordSessionClosed()
	log.Info().
		Str("sessionId", s.id).
		Str("state", s.State().String()).
		Str("reason", reason).
		Int("lines", len(s.Entries())).
		Msg("Caption session closed")
}

// Sweep closes sessions that are already terminated, have seen no fragment
// for longer than idle, or have been open longer than maxAge. A zero bound
// is not enforced. It returns the IDs it removed.
func (r *Registry) Sweep(now time.Time, idle, maxAge time.Duration) []string {
	r.mu.RLock()
	candidates := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		candidates = append(candidates, s)
	}
	r.mu.RUnlock()

	var removed []string
	for _, s := range candidates {
		reason := ""
		switch {
		case s.State().IsTerminal():
			reason = "terminated"
		case maxAge > 0 && now.Sub(s.CreatedAt()) > maxAge:
			reason = "max_duration"
		case idle > 0 && now.Sub(s.LastActivity()) > idle:
			reason = "idle"
		default:
			continue
		}

		// GetOrCreate may have replaced the session since the snapshot.
		r.mu.Lock()
		current, ok := r.sessions[s.id]
		if ok && current == s {
			delete(r.sessions, s.id)
		}
		r.mu.Unlock()
		if !ok || current != s {
			continue
		}

		r.finish(s, reason)
		removed = append(removed, s.id)
	}
	return removed
}

// Reap runs Sweep every interval until ctx is done.
func (r *Registry) Reap(ctx context.Context, interval, idle, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if ids := r.Sweep(now, idle, maxAge); len(ids) > 0 {
				log.Info().Int("count", len(ids)).Msg("Reaped caption sessions")
			}
		}
	}
}

// CloseAll ends every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		_ = r.Close(id)
	}
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
