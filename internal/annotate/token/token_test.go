package token

import (
	"reflect"
	"testing"
)

func TestSpansSliceBackToSource(t *testing.T) {
	text := "Memory consolidation, per Müller's study, is well-understood."
	runes := []rune(text)

	for _, span := range NewWordTokenizer().Spans(text) {
		if span.Start < 0 || span.End > len(runes) || span.Start >= span.End {
			t.Fatalf("span %+v out of bounds for %d runes", span, len(runes))
		}
	}
}

func TestSpansDeterministic(t *testing.T) {
	text := "The same input, tokenized twice, must yield the same spans."
	tok := NewWordTokenizer()

	first := tok.Spans(text)
	second := tok.Spans(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("spans differ across runs:\n%v\n%v", first, second)
	}
}

func TestJoinersKeepSingleTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"don't stop", 2},
		{"state-of-the-art model", 2},
		{"trailing- hyphen", 3},
		{"'quoted'", 3},
	}
	tok := NewWordTokenizer()
	for _, c := range cases {
		if got := tok.Count(c.text); got != c.want {
			t.Errorf("Count(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestPunctuationCountsOneEach(t *testing.T) {
	// word , word . = 4 tokens
	if got := NewWordTokenizer().Count("yes, no."); got != 4 {
		t.Fatalf("Count = %d, want 4", got)
	}
}

func TestEmptyAndWhitespaceOnly(t *testing.T) {
	tok := NewWordTokenizer()
	if got := tok.Count(""); got != 0 {
		t.Fatalf("empty text counted %d tokens", got)
	}
	if got := tok.Count("  \n\t "); got != 0 {
		t.Fatalf("whitespace counted %d tokens", got)
	}
}

func TestWords(t *testing.T) {
	if got := Words("one two  three\nfour"); got != 4 {
		t.Fatalf("Words = %d, want 4", got)
	}
	if got := Words(""); got != 0 {
		t.Fatalf("Words(empty) = %d, want 0", got)
	}
}
