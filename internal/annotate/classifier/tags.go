package classifier

import (
	"regexp"
	"strings"
)

// TagExtractor is the topic-tag strategy boundary. The default is a
// heuristic; a learned extractor can replace it without touching the
// label contract.
type TagExtractor interface {
	// Extract returns candidate tags in first-appearance order. The
	// caller enforces the size and uniqueness invariants.
	Extract(text string) []string
}

var (
	// "Machine Learning", "Large Language Models" — two to four
	// capitalized words.
	capitalizedPhraseRE = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})\b`)
	acronymRE           = regexp.MustCompile(`\b([A-Z]{2,6})\b`)
)

type heuristicTagExtractor struct{}

func NewHeuristicTagExtractor() TagExtractor { return heuristicTagExtractor{} }

func (heuristicTagExtractor) Extract(text string) []string {
	type hit struct {
		tag string
		pos int
	}
	var hits []hit

	for _, m := range capitalizedPhraseRE.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{tag: text[m[0]:m[1]], pos: m[0]})
	}
	for _, m := range acronymRE.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{tag: text[m[0]:m[1]], pos: m[0]})
	}

	// Merge the two scans back into document order so first-appearance
	// ordering holds across kinds.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	seen := make(map[string]bool, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		t := strings.TrimSpace(h.tag)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
