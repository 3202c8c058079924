package scorer

import (
	"strings"
	"testing"

	"github.com/sakshampandey1901/Cite/internal/annotate/classifier"
	"github.com/sakshampandey1901/Cite/internal/types"
)

func defaultConfig() Config {
	return Config{
		Baseline:       50,
		PerTagBonus:    10,
		ShortWordLimit: 50,
		ShortBonus:     20,
		LongWordLimit:  200,
		LongPenalty:    10,
		StructureBonus: 5,
		WeightRule:     0.5,
		WeightTags:     0.3,
		WeightCoverage: 0.2,
		HighCutoff:     0.7,
		MediumCutoff:   0.4,
	}
}

func prose(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func TestCoverageBaseline(t *testing.T) {
	s := New(defaultConfig())
	// 100 words: no short bonus, no long penalty, no tags, no structure.
	if got := s.Coverage(prose(100), 0); got != 50 {
		t.Fatalf("Coverage = %d, want 50", got)
	}
}

func TestCoverageTagBonus(t *testing.T) {
	s := New(defaultConfig())
	base := s.Coverage(prose(100), 0)
	for tags := 1; tags <= 3; tags++ {
		if got := s.Coverage(prose(100), tags); got != base+tags*10 {
			t.Errorf("Coverage with %d tags = %d, want %d", tags, got, base+tags*10)
		}
	}
	// Beyond the cap adds nothing.
	if got := s.Coverage(prose(100), 5); got != base+30 {
		t.Fatalf("Coverage with 5 tags = %d, want %d", got, base+30)
	}
}

func TestCoverageLengthAdjustments(t *testing.T) {
	s := New(defaultConfig())
	if got := s.Coverage(prose(20), 0); got != 70 {
		t.Fatalf("short text Coverage = %d, want 70", got)
	}
	if got := s.Coverage(prose(250), 0); got != 40 {
		t.Fatalf("long text Coverage = %d, want 40", got)
	}
}

func TestCoverageStructureBonus(t *testing.T) {
	s := New(defaultConfig())

	withList := prose(100) + "\n- item one\n- item two"
	if got := s.Coverage(withList, 0); got != 55 {
		t.Fatalf("list Coverage = %d, want 55", got)
	}

	withBoth := "# Heading\n" + prose(100) + "\n- item"
	if got := s.Coverage(withBoth, 0); got != 60 {
		t.Fatalf("heading+list Coverage = %d, want 60", got)
	}
}

func TestCoverageClamped(t *testing.T) {
	s := New(defaultConfig())
	// Max stack: baseline 50 + 30 tags + 20 short + 10 structure = 110.
	got := s.Coverage("# H\n- a\nshort", 3)
	if got != 100 {
		t.Fatalf("Coverage = %d, want clamp at 100", got)
	}

	cfg := defaultConfig()
	cfg.Baseline = 0
	cfg.LongPenalty = 50
	low := New(cfg).Coverage(prose(300), 0)
	if low != 0 {
		t.Fatalf("Coverage = %d, want clamp at 0", low)
	}
}

func TestConfidenceTiers(t *testing.T) {
	s := New(defaultConfig())
	cases := []struct {
		weight   float64
		tags     int
		coverage int
		want     types.Confidence
	}{
		{0.9, 3, 90, types.ConfidenceHigh},   // 0.45+0.30+0.18 = 0.93
		{0.9, 0, 70, types.ConfidenceMedium}, // 0.45+0+0.14 = 0.59
		{0.0, 0, 50, types.ConfidenceLow},    // 0.10
		{0.9, 2, 80, types.ConfidenceHigh},   // 0.45+0.20+0.16 = 0.81
	}
	for _, tc := range cases {
		if got := s.Confidence(tc.weight, tc.tags, tc.coverage); got != tc.want {
			t.Errorf("Confidence(%v,%d,%d) = %q, want %q", tc.weight, tc.tags, tc.coverage, got, tc.want)
		}
	}
}

func TestConfidenceMonotonicInTags(t *testing.T) {
	s := New(defaultConfig())
	prev := -1
	for tags := 0; tags <= 3; tags++ {
		rank := s.Confidence(0.6, tags, 60).Rank()
		if rank < prev {
			t.Fatalf("confidence dropped when tags rose to %d", tags)
		}
		prev = rank
	}
}

func TestScoreShortConclusion(t *testing.T) {
	s := New(defaultConfig())
	text := "Therefore, we conclude that X improves Y."

	ann := s.Score(text, classifier.Result{
		Role:       types.RoleConclusion,
		RuleName:   "concluding-connective",
		RuleWeight: 0.90,
		TopicTags:  nil,
	})
	if ann.Role != types.RoleConclusion {
		t.Fatalf("role = %q", ann.Role)
	}
	// 7 words: baseline 50 + short bonus 20.
	if ann.CoverageScore != 70 {
		t.Fatalf("coverage = %d, want 70", ann.CoverageScore)
	}
	// 0.5*0.9 + 0 + 0.2*0.7 = 0.59: a short, decisive sentence still
	// rates at least medium.
	if ann.Confidence != types.ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium", ann.Confidence)
	}
}

func TestScoreInsufficientDataIsLow(t *testing.T) {
	s := New(defaultConfig())
	ann := s.Score("tiny", classifier.Result{Role: types.RoleInsufficientData})
	if ann.Confidence != types.ConfidenceLow {
		t.Fatalf("confidence = %q, want low for unmatched rules", ann.Confidence)
	}
}
