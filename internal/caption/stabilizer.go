// Package caption stabilizes a live speech-to-text feed into a readable,
// append-only display log.
//
// Speech engines resend a growing prefix of the same utterance and sometimes
// repeat the final fragment verbatim. The Stabilizer decides for every incoming
// fragment whether it is a duplicate, a refinement of the line currently at the
// tail, or a new line, and reports that as a Mutation the caller applies to its
// own log (see Log).
//
// A Stabilizer holds per-conversation state and is meant for a single owner.
// It never reads a clock: timestamps come with each Fragment.
package caption

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWindow is the suppression window used when none is configured.
const DefaultWindow = 2500 * time.Millisecond

// Kind is the type of change a fragment causes in the display log.
type Kind int

const (
	// Suppress means the fragment changes nothing.
	Suppress Kind = iota
	// Append means a new line is added at the end of the log.
	Append
	// Replace means the line at Mutation.Index gets new text.
	Replace
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Suppress:
		return "suppress"
	case Append:
		return "append"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Fragment is one incremental transcription update from a speaker.
// At is a caller-supplied timestamp in milliseconds.
type Fragment struct {
	Role string
	Text string
	At   int64
}

// Line is a displayed transcript line. Text keeps the original formatting of
// the newest fragment that produced it.
type Line struct {
	Role          string `json:"role"`
	Text          string `json:"text"`
	FirstSeenAt   int64  `json:"firstSeenAt"`
	LastUpdatedAt int64  `json:"lastUpdatedAt"`
}

// Mutation describes how the display log changes. Index is the 0-based log
// position of the affected line, or -1 for Suppress.
type Mutation struct {
	Kind  Kind
	Index int
	Line  Line
}

// Config tunes a Stabilizer.
type Config struct {
	Window time.Duration
}

// DefaultConfig returns the configuration observed in production use.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow}
}

type accepted struct {
	text string
	at   int64
}

// Stabilizer turns fragments into display log mutations.
type Stabilizer struct {
	windowMs int64

	lastByRole map[string]accepted

	tail      *Line
	tailNorm  string
	tailIndex int
	appended  int
}

// New creates a Stabilizer. A non-positive window falls back to DefaultWindow.
func New(cfg Config) *Stabilizer {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Stabilizer{
		windowMs:   window.Milliseconds(),
		lastByRole: make(map[string]accepted),
		tailIndex:  -1,
	}
}

// Window returns the configured suppression window.
func (s *Stabilizer) Window() time.Duration {
	return time.Duration(s.windowMs) * time.Millisecond
}

// Len returns the number of lines appended so far.
func (s *Stabilizer) Len() int {
	return s.appended
}

// Ingest decides what a fragment does to the display log and updates the
// stabilizer state accordingly.
func (s *Stabilizer) Ingest(f Fragment) Mutation {
	text := Normalize(f.Text)
	if text == "" {
		return suppressed()
	}

	sameRoleTail := s.tail != nil && s.tail.Role == f.Role

	if sameRoleTail && s.tailNorm == text {
		return suppressed()
	}

	if prev, ok := s.lastByRole[f.Role]; ok && prev.text == text && f.At-prev.at < s.windowMs {
		return suppressed()
	}

	if sameRoleTail && f.At-s.tail.LastUpdatedAt < s.windowMs && prefixRelated(text, s.tailNorm) {
		s.tail.Text = f.Text
		s.tail.LastUpdatedAt = f.At
		s.tailNorm = text
		s.lastByRole[f.Role] = accepted{text: text, at: f.At}
		return Mutation{Kind: Replace, Index: s.tailIndex, Line: *s.tail}
	}

	s.tail = &Line{
		Role:          f.Role,
		Text:          f.Text,
		FirstSeenAt:   f.At,
		LastUpdatedAt: f.At,
	}
	s.tailNorm = text
	s.tailIndex = s.appended
	s.appended++
	s.lastByRole[f.Role] = accepted{text: text, at: f.At}

	return Mutation{Kind: Append, Index: s.tailIndex, Line: *s.tail}
}

// Normalize collapses whitespace runs to a single space and trims the result.
// It is used for comparisons only.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func prefixRelated(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func suppressed() Mutation {
	return Mutation{Kind: Suppress, Index: -1}
}
