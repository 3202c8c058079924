package token

import "unicode"

// Span is one token's half-open rune-offset range into the original
// text. Keeping offsets instead of token strings lets the segmenter
// slice chunk text straight out of the source, so chunk boundaries
// never mangle a UTF-8 sequence and offsets stay exact.
type Span struct {
	Start int
	End   int
}

// Tokenizer is the canonical token counter for the whole pipeline.
// Chunk token counts, segmentation windows and classifier floor checks
// must all go through the same implementation so counts reproduce.
type Tokenizer interface {
	Spans(text string) []Span
	Count(text string) int
}

type wordTokenizer struct{}

// NewWordTokenizer returns the default tokenizer: a token is a maximal
// run of letters/digits (plus internal apostrophes and hyphens), or a
// single non-space symbol. Deterministic by construction.
func NewWordTokenizer() Tokenizer { return wordTokenizer{} }

func (wordTokenizer) Spans(text string) []Span {
	runes := []rune(text)
	spans := make([]Span, 0, len(runes)/5+1)

	i := 0
	for i < len(runes) {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if isWordRune(r) {
			start := i
			for i < len(runes) && (isWordRune(runes[i]) || isJoiner(runes, i)) {
				i++
			}
			spans = append(spans, Span{Start: start, End: i})
			continue
		}
		// Punctuation and symbols count one rune each.
		spans = append(spans, Span{Start: i, End: i + 1})
		i++
	}
	return spans
}

func (t wordTokenizer) Count(text string) int {
	return len(t.Spans(text))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isJoiner keeps "don't" and "state-of-the-art" single tokens: the
// apostrophe/hyphen joins only when flanked by word runes.
func isJoiner(runes []rune, i int) bool {
	r := runes[i]
	if r != '\'' && r != '-' {
		return false
	}
	if i == 0 || i+1 >= len(runes) {
		return false
	}
	return isWordRune(runes[i-1]) && isWordRune(runes[i+1])
}

// Words counts whitespace-separated words, used by scoring heuristics
// that care about prose length rather than token granularity.
func Words(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
