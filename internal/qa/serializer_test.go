package qa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", ToMarkdown(nil))
	assert.Equal(t, "", ToMarkdown([]Pair{}))
}

func TestToMarkdown_Layout(t *testing.T) {
	pairs := []Pair{
		{Question: "What is your greatest strength?", Answer: "Adaptability."},
		{Question: "Why this role?", Answer: "Growth opportunity."},
	}

	want := "### Q1: What is your greatest strength?\n\nAdaptability.\n\n---\n" +
		"\n### Q2: Why this role?\n\nGrowth opportunity.\n\n"
	assert.Equal(t, want, ToMarkdown(pairs))
}

func TestToMarkdown_SinglePairHasNoRule(t *testing.T) {
	md := ToMarkdown([]Pair{{Question: "q", Answer: "a"}})

	assert.Equal(t, "### Q1: q\n\na\n\n", md)
	assert.NotContains(t, md, "---")
}

func TestToMarkdown_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		pairs []Pair
	}{
		{
			name:  "sample transcript",
			pairs: Parse(sampleTranscript),
		},
		{
			name:  "single pair",
			pairs: []Pair{{Question: "Only one?", Answer: "Yes."}},
		},
		{
			name: "multiline answers",
			pairs: []Pair{
				{Question: "Describe a conflict.", Answer: "We disagreed on scope.\n\nWe split the release."},
				{Question: "What did you learn?", Answer: "Write things down."},
				{Question: "Questions for us?", Answer: "How do you measure success?"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pairs, Parse(ToMarkdown(tt.pairs)))
		})
	}
}

func TestToMarkdown_EmptyAnswerDropsOnReparse(t *testing.T) {
	pairs := []Pair{
		{Question: "Skipped question", Answer: ""},
		{Question: "Answered", Answer: "Sure."},
	}

	got := Parse(ToMarkdown(pairs))

	assert.Equal(t, []Pair{{Question: "Answered", Answer: "Sure."}}, got)
}

func TestToMarkdown_NumbersPositionally(t *testing.T) {
	pairs := Parse("Q5: five\nA5: v\n---\nQ9: nine\nA9: ix")

	md := ToMarkdown(pairs)

	assert.True(t, strings.HasPrefix(md, "### Q1: five"))
	assert.Contains(t, md, "### Q2: nine")
}

func TestToClipboardBlock(t *testing.T) {
	got := ToClipboardBlock(Pair{Question: "Why this role?", Answer: "Growth opportunity."}, 2)

	assert.Equal(t, "Q2: Why this role?\n\nGrowth opportunity.\n", got)
}
