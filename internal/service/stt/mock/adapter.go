// Package mock provides a scripted STT adapter for running without cloud
// credentials. Each audio frame advances the script by one step: partials
// grow the current utterance, then one final and an end-of-utterance close
// it and the next utterance begins.
package mock

import (
	"context"
	"sync"

	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt"
)

// Utterance is one scripted candidate answer.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultScript is a short candidate self-introduction.
var DefaultScript = []Utterance{
	{
		Partials:   []string{"Sure", "Sure, I have", "Sure, I have five years"},
		Final:      "Sure, I have five years of backend experience.",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"Most recently", "Most recently I led", "Most recently I led a payments"},
		Final:      "Most recently I led a payments migration to Go.",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"We cut", "We cut latency", "We cut latency by half"},
		Final:      "We cut latency by half and removed two legacy services.",
		Confidence: 0.89,
	},
	{
		Partials:   []string{"I enjoy", "I enjoy mentoring"},
		Final:      "I enjoy mentoring and code review.",
		Confidence: 0.97,
	},
}

// Adapter implements stt.Adapter by replaying a script.
type Adapter struct {
	mu           sync.Mutex
	cb           stt.Callback
	script       []Utterance
	current      int
	partialIndex int
	frames       int
	inProgress   bool
	closed       bool
}

// New creates a mock adapter. An empty script uses DefaultScript.
func New(script ...Utterance) *Adapter {
	if len(script) == 0 {
		script = DefaultScript
	}
	return &Adapter{script: script}
}

// Start registers the callback.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio advances the script by one step. Callbacks run on the caller's
// goroutine, after the adapter lock is released, so they arrive in order.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	if a.closed || a.cb == nil || len(audio) == 0 {
		a.mu.Unlock()
		return nil
	}
	a.frames++
	cb := a.cb
	utt := a.script[a.current]

	if a.partialIndex < len(utt.Partials) {
		text := utt.Partials[a.partialIndex]
		a.partialIndex++
		a.inProgress = true
		a.mu.Unlock()

		cb.OnPartial(text)
		return nil
	}

	a.advanceLocked()
	a.mu.Unlock()

	cb.OnFinal(utt.Final, utt.Confidence)
	cb.OnEndOfUtterance()
	return nil
}

func (a *Adapter) advanceLocked() {
	a.current = (a.current + 1) % len(a.script)
	a.partialIndex = 0
	a.inProgress = false
}

// Close ends the session. An utterance cut off mid-way still gets its final.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true

	cb := a.cb
	utt := a.script[a.current]
	flush := a.inProgress && cb != nil
	if flush {
		a.advanceLocked()
	}
	a.mu.Unlock()

	if flush {
		cb.OnFinal(utt.Final, utt.Confidence)
		cb.OnEndOfUtterance()
	}
	return nil
}

// Frames returns the number of audio frames received.
func (a *Adapter) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}
