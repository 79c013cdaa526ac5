package qa

import (
	"fmt"
	"strings"
)

// ToMarkdown renders pairs as a Markdown document with one "### Qn:" heading per
// question and "---" rules between pairs. An empty slice renders as "".
// The output parses back to the same pairs with Parse.
func ToMarkdown(pairs []Pair) string {
	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### Q%d: %s\n\n%s\n\n", i+1, p.Question, p.Answer)
		if i < len(pairs)-1 {
			b.WriteString("---\n")
		}
	}
	return b.String()
}

// ToClipboardBlock renders a single pair for copying. index is the 1-based
// display number chosen by the caller.
func ToClipboardBlock(p Pair, index int) string {
	return fmt.Sprintf("Q%d: %s\n\n%s\n", index, p.Question, p.Answer)
}
