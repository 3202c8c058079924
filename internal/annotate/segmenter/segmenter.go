package segmenter

import (
	"fmt"
	"strings"

	"github.com/sakshampandey1901/Cite/internal/annotate/token"
)

// Params bounds one segmentation pass. OverlapTokens must be smaller
// than MaxTokens so each window makes progress.
type Params struct {
	MaxTokens     int
	OverlapTokens int
}

const (
	DefaultMaxTokens     = 400
	DefaultOverlapTokens = 50
)

func DefaultParams() Params {
	return Params{MaxTokens: DefaultMaxTokens, OverlapTokens: DefaultOverlapTokens}
}

func (p Params) validate() error {
	if p.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", p.MaxTokens)
	}
	if p.OverlapTokens < 0 {
		return fmt.Errorf("overlap_tokens must be non-negative, got %d", p.OverlapTokens)
	}
	if p.OverlapTokens >= p.MaxTokens {
		return fmt.Errorf("overlap_tokens (%d) must be < max_tokens (%d)", p.OverlapTokens, p.MaxTokens)
	}
	return nil
}

// Fragment is one chunk-to-be: the text slice, its ordinal, token
// count and rune offsets into the source text. Locators (page or
// timestamp) are attached by the caller that knows the source layout.
type Fragment struct {
	Text       string
	Index      int
	TokenCount int
	CharStart  int
	CharEnd    int
	PageNumber *int
	Timestamp  *string
}

// Segmenter splits extracted document text into bounded overlapping
// fragments using the canonical tokenizer.
type Segmenter struct {
	tok token.Tokenizer
}

func New(tok token.Tokenizer) *Segmenter {
	return &Segmenter{tok: tok}
}

// Segment covers text completely with fragments of at most
// p.MaxTokens tokens; adjacent fragments share exactly p.OverlapTokens
// tokens, except the final fragment which may be shorter. Identical
// input and params always produce a structurally identical sequence.
func (s *Segmenter) Segment(text string, p Params) ([]Fragment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	spans := s.tok.Spans(text)
	if len(spans) == 0 {
		return nil, nil
	}
	runes := []rune(text)

	step := p.MaxTokens - p.OverlapTokens
	out := make([]Fragment, 0, len(spans)/step+1)

	for start := 0; start < len(spans); start += step {
		end := start + p.MaxTokens
		if end > len(spans) {
			end = len(spans)
		}

		charStart := spans[start].Start
		charEnd := spans[end-1].End
		frag := strings.TrimRight(string(runes[charStart:charEnd]), " \t")

		out = append(out, Fragment{
			Text:       frag,
			Index:      len(out),
			TokenCount: end - start,
			CharStart:  charStart,
			CharEnd:    charEnd,
		})

		if end == len(spans) {
			break
		}
	}
	return out, nil
}

// SegmentPage segments one page's text and stamps every fragment with
// the page number, offsetting indices by base.
func (s *Segmenter) SegmentPage(text string, p Params, page int, base int) ([]Fragment, error) {
	frags, err := s.Segment(text, p)
	if err != nil {
		return nil, err
	}
	for i := range frags {
		pn := page
		frags[i].PageNumber = &pn
		frags[i].Index = base + i
	}
	return frags, nil
}
