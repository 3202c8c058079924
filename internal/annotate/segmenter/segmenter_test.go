package segmenter

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sakshampandey1901/Cite/internal/annotate/token"
)

func testText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	return b.String()
}

func TestSegmentRespectsMaxTokens(t *testing.T) {
	s := New(token.NewWordTokenizer())
	frags, err := s.Segment(testText(1000), Params{MaxTokens: 100, OverlapTokens: 10})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	for _, f := range frags {
		if f.TokenCount > 100 {
			t.Errorf("fragment %d has %d tokens, max 100", f.Index, f.TokenCount)
		}
	}
}

func TestSegmentOverlap(t *testing.T) {
	tok := token.NewWordTokenizer()
	s := New(tok)
	text := testText(250)

	frags, err := s.Segment(text, Params{MaxTokens: 100, OverlapTokens: 10})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}

	// Adjacent fragments share exactly the overlap: each window starts
	// max-overlap tokens after the previous one.
	spans := tok.Spans(text)
	step := 90
	for i, f := range frags {
		wantStart := spans[i*step].Start
		if f.CharStart != wantStart {
			t.Errorf("fragment %d starts at %d, want %d", i, f.CharStart, wantStart)
		}
	}
}

func TestSegmentCoversAllTokens(t *testing.T) {
	tok := token.NewWordTokenizer()
	s := New(tok)
	text := testText(333)

	frags, err := s.Segment(text, Params{MaxTokens: 50, OverlapTokens: 5})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}

	spans := tok.Spans(text)
	last := frags[len(frags)-1]
	if last.CharEnd != spans[len(spans)-1].End {
		t.Fatalf("final fragment ends at %d, want %d", last.CharEnd, spans[len(spans)-1].End)
	}
	if frags[0].CharStart != spans[0].Start {
		t.Fatalf("first fragment starts at %d, want %d", frags[0].CharStart, spans[0].Start)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	s := New(token.NewWordTokenizer())
	text := testText(500)
	p := Params{MaxTokens: 120, OverlapTokens: 30}

	a, err := s.Segment(text, p)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	b, err := s.Segment(text, p)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same input produced different fragment sequences")
	}
}

func TestSegmentIndicesSequential(t *testing.T) {
	s := New(token.NewWordTokenizer())
	frags, err := s.Segment(testText(400), Params{MaxTokens: 60, OverlapTokens: 10})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	for i, f := range frags {
		if f.Index != i {
			t.Errorf("fragment at position %d has index %d", i, f.Index)
		}
	}
}

func TestSegmentShortTextSingleFragment(t *testing.T) {
	s := New(token.NewWordTokenizer())
	frags, err := s.Segment("just a few words here", DefaultParams())
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0].TokenCount != 5 {
		t.Errorf("token count = %d, want 5", frags[0].TokenCount)
	}
}

func TestSegmentEmptyText(t *testing.T) {
	s := New(token.NewWordTokenizer())
	frags, err := s.Segment("   ", DefaultParams())
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(frags) != 0 {
		t.Fatalf("expected no fragments, got %d", len(frags))
	}
}

func TestParamsValidation(t *testing.T) {
	s := New(token.NewWordTokenizer())
	cases := []Params{
		{MaxTokens: 0, OverlapTokens: 0},
		{MaxTokens: 50, OverlapTokens: 50},
		{MaxTokens: 50, OverlapTokens: 60},
		{MaxTokens: 50, OverlapTokens: -1},
	}
	for _, p := range cases {
		if _, err := s.Segment("some text", p); err == nil {
			t.Errorf("params %+v accepted, want error", p)
		}
	}
}

func TestSegmentPageStampsLocator(t *testing.T) {
	s := New(token.NewWordTokenizer())
	frags, err := s.SegmentPage(testText(150), Params{MaxTokens: 50, OverlapTokens: 5}, 7, 3)
	if err != nil {
		t.Fatalf("SegmentPage: %v", err)
	}
	for i, f := range frags {
		if f.PageNumber == nil || *f.PageNumber != 7 {
			t.Errorf("fragment %d missing page locator", i)
		}
		if f.Index != 3+i {
			t.Errorf("fragment %d has index %d, want %d", i, f.Index, 3+i)
		}
	}
}
