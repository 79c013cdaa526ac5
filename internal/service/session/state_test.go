package session

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if lc.State() != StateOpen {
		t.Errorf("expected StateOpen, got %v", lc.State())
	}
	if lc.SessionId() != "sess-1" {
		t.Errorf("expected sess-1, got %v", lc.SessionId())
	}
	if err := lc.Accept(); err != nil {
		t.Errorf("expected open session to accept, got %v", err)
	}
	if lc.IsClosed() {
		t.Error("expected IsClosed to be false")
	}
}

func TestLifecycle_Close(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if !lc.Close() {
		t.Error("expected first Close to report a transition")
	}
	if lc.Close() {
		t.Error("expected second Close to be a no-op")
	}
	if lc.State() != StateClosed {
		t.Errorf("expected StateClosed, got %v", lc.State())
	}
	if err := lc.Accept(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestLifecycle_Drop(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if !lc.Drop() {
		t.Error("expected Drop from OPEN to succeed")
	}
	if lc.Drop() {
		t.Error("expected second Drop to fail")
	}
	if !lc.IsDropped() || !lc.IsClosed() {
		t.Error("expected session to be dropped and terminal")
	}
	if err := lc.Accept(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed after drop, got %v", err)
	}
}

func TestLifecycle_CloseDoesNotOverrideDrop(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.Drop()

	if lc.Close() {
		t.Error("expected Close after Drop to be a no-op")
	}
	if lc.State() != StateDropped {
		t.Errorf("expected StateDropped to stick, got %v", lc.State())
	}
}

func TestLifecycle_DropFailsAfterClose(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.Close()

	if lc.Drop() {
		t.Error("expected Drop after Close to fail")
	}
	if lc.IsDropped() {
		t.Error("expected closed session not to be marked dropped")
	}
}

func TestLifecycle_ConcurrentTerminate(t *testing.T) {
	lc := NewLifecycle("sess-1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = lc.Close()
			} else {
				ok = lc.Drop()
			}
			if ok {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if transitions != 1 {
		t.Errorf("expected exactly one terminal transition, got %d", transitions)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateOpen, "OPEN"},
		{StateClosed, "CLOSED"},
		{StateDropped, "DROPPED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	if StateOpen.IsTerminal() {
		t.Error("OPEN should not be terminal")
	}
	if !StateClosed.IsTerminal() || !StateDropped.IsTerminal() {
		t.Error("CLOSED and DROPPED should be terminal")
	}
}
