// Package qa converts the interview Q&A transcript produced by the AI backend
// into ordered question/answer pairs, and renders pairs back to Markdown or a
// plain-text clipboard block.
//
// The backend writes one block per question:
//
//	Q1: What is your greatest strength?
//	A1: Adaptability.
//	---
//	Q2: Why this role?
//	A2: Growth opportunity.
//
// Parsing never fails. Malformed blocks are dropped and an empty result is the
// only failure signal callers should check for.
package qa

import (
	"regexp"
	"strings"
)

// BlockDelimiter separates Q&A blocks in a raw transcript.
const BlockDelimiter = "\n---\n"

var (
	questionMarker = regexp.MustCompile(`(?i)\bQ\d+:`)
	answerMarker   = regexp.MustCompile(`(?i)\bA\d+:`)
	headingMarker  = regexp.MustCompile(`(?im)^[ \t]*#{1,6}[ \t]*Q\d+:[^\n]*$`)
)

// Pair is a single question and its answer. Its position in a slice is its
// display order; the number written in the source ("Q3:") is not kept.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Pass names the parsing pass that produced a result.
type Pass string

const (
	PassBlocks   Pass = "blocks"
	PassFallback Pass = "fallback"
	PassNone     Pass = "none"
)

// Parse extracts Q&A pairs from a raw transcript. It runs the delimiter-based
// pass first and falls back to a global scan only if that pass found nothing.
func Parse(raw string) []Pair {
	pairs, _ := ParseWithPass(raw)
	return pairs
}

// ParseWithPass is Parse that also reports which pass produced the pairs.
func ParseWithPass(raw string) ([]Pair, Pass) {
	if pairs := ParseBlocks(raw); len(pairs) > 0 {
		return pairs, PassBlocks
	}
	if pairs := ParseFallback(raw); len(pairs) > 0 {
		return pairs, PassFallback
	}
	return []Pair{}, PassNone
}

// ParseBlocks is the primary pass: the input is split on "---" lines and each
// block must carry both a question and an answer to produce a pair.
func ParseBlocks(raw string) []Pair {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	blocks := strings.Split(trimmed, BlockDelimiter)
	var pairs []Pair
	for _, block := range blocks {
		if hasSeveralQuestions(block) {
			// Some separators are missing inside a delimited transcript: scan
			// this block on its own. Input with no separators at all is left
			// to the fallback pass.
			if len(blocks) > 1 {
				pairs = append(pairs, ParseFallback(block)...)
			}
			continue
		}
		if p, ok := parseBlock(block); ok {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// hasSeveralQuestions reports whether block holds more than one line-leading
// question marker.
func hasSeveralQuestions(block string) bool {
	qLocs := questionMarker.FindAllStringIndex(block, -1)
	if len(qLocs) < 2 {
		return false
	}
	for _, loc := range qLocs[1:] {
		if isLineStart(block, loc[0]) {
			return true
		}
	}
	return false
}

// ParseFallback scans the whole input for "Qn: ... \nAn: ..." sequences without
// relying on block delimiters. Each pair runs up to the next line-leading
// question marker or the end of input.
func ParseFallback(raw string) []Pair {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var starts [][]int
	for i, loc := range questionMarker.FindAllStringIndex(trimmed, -1) {
		if i == 0 || isLineStart(trimmed, loc[0]) {
			starts = append(starts, loc)
		}
	}

	var pairs []Pair
	for i, loc := range starts {
		end := len(trimmed)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		body := trimmed[loc[1]:end]

		aLoc := firstLineLeading(answerMarker, body)
		if aLoc == nil {
			continue
		}
		pairs = append(pairs, Pair{
			Question: strings.TrimSpace(body[:aLoc[0]]),
			Answer:   strings.TrimSpace(body[aLoc[1]:]),
		})
	}
	return pairs
}

func parseBlock(block string) (Pair, bool) {
	qLocs := questionMarker.FindAllStringIndex(block, -1)
	if len(qLocs) == 0 {
		return Pair{}, false
	}
	qLoc := qLocs[0]

	aLocs := answerMarker.FindAllStringIndex(block, -1)
	if len(aLocs) == 0 {
		return parseHeadingBlock(block)
	}

	qEnd := len(block)
	if aLoc := firstLineLeading(answerMarker, block[qLoc[1]:]); aLoc != nil {
		qEnd = qLoc[1] + aLoc[0]
	}
	last := aLocs[len(aLocs)-1]

	return Pair{
		Question: strings.TrimSpace(block[qLoc[1]:qEnd]),
		Answer:   strings.TrimSpace(block[last[1]:]),
	}, true
}

// parseHeadingBlock reads the "### Qn: question" form written by ToMarkdown,
// where the answer is the body below the heading and carries no marker. A
// heading with nothing below it has no answer and is dropped.
func parseHeadingBlock(block string) (Pair, bool) {
	hLoc := headingMarker.FindStringIndex(block)
	if hLoc == nil {
		return Pair{}, false
	}
	answer := strings.TrimSpace(block[hLoc[1]:])
	if answer == "" {
		return Pair{}, false
	}
	heading := block[hLoc[0]:hLoc[1]]
	qLoc := questionMarker.FindStringIndex(heading)

	return Pair{
		Question: strings.TrimSpace(heading[qLoc[1]:]),
		Answer:   answer,
	}, true
}

// firstLineLeading returns the location of the first match of re that starts a
// line within s (index 0 does not count as a line start here, since s is always
// the text following another marker).
func firstLineLeading(re *regexp.Regexp, s string) []int {
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && s[loc[0]-1] == '\n' {
			return loc
		}
	}
	return nil
}

func isLineStart(s string, i int) bool {
	return i == 0 || s[i-1] == '\n'
}
