package caption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabeler(t *testing.T) {
	l := DefaultLabeler()

	assert.Equal(t, "Sophie", l.Label(RoleAssistant))
	assert.Equal(t, "Alex", l.Label(RoleUser))
	assert.Equal(t, "Alex", l.Label("anything-else"))
}

func TestLog_FollowsStabilizer(t *testing.T) {
	s := New(DefaultConfig())
	log := NewLog(DefaultLabeler())

	feed := []Fragment{
		{Role: RoleAssistant, Text: "Hello", At: 0},
		{Role: RoleAssistant, Text: "Hello, welcome", At: 300},
		{Role: RoleAssistant, Text: "Hello, welcome", At: 400},
		{Role: RoleUser, Text: "Thanks", At: 900},
		{Role: RoleUser, Text: "Thanks, glad to be here", At: 1500},
		{Role: RoleAssistant, Text: "Let's start.", At: 2200},
	}

	changed := 0
	for _, f := range feed {
		if log.Apply(s.Ingest(f)) {
			changed++
		}
	}

	assert.Equal(t, 5, changed)
	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Sophie", entries[0].Speaker)
	assert.Equal(t, "Hello, welcome", entries[0].Text)
	assert.Equal(t, "Alex", entries[1].Speaker)
	assert.Equal(t, "Thanks, glad to be here", entries[1].Text)
	assert.Equal(t, int64(900), entries[1].FirstSeenAt)
	assert.Equal(t, "Let's start.", entries[2].Text)
	assert.Equal(t, s.Len(), log.Len())
}

func TestLog_ReplaceOutOfRangeAppends(t *testing.T) {
	log := NewLog(DefaultLabeler())

	ok := log.Apply(Mutation{Kind: Replace, Index: 4, Line: Line{Role: RoleUser, Text: "late"}})

	assert.True(t, ok)
	require.Equal(t, 1, log.Len())
	assert.Equal(t, "late", log.Entries()[0].Text)
}

func TestLog_SuppressIsNoop(t *testing.T) {
	log := NewLog(DefaultLabeler())

	assert.False(t, log.Apply(Mutation{Kind: Suppress, Index: -1}))
	assert.Equal(t, 0, log.Len())
}

func TestLog_EntriesIsACopy(t *testing.T) {
	log := NewLog(DefaultLabeler())
	log.Apply(Mutation{Kind: Append, Index: 0, Line: Line{Role: RoleUser, Text: "original"}})

	entries := log.Entries()
	entries[0].Text = "changed"

	assert.Equal(t, "original", log.Entries()[0].Text)
}
