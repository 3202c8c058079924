package scorer

import (
	"regexp"

	"github.com/sakshampandey1901/Cite/internal/annotate/classifier"
	"github.com/sakshampandey1901/Cite/internal/annotate/token"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// Config holds every numeric cutoff in the scoring policy. The values
// are tunable policy, not domain law, so they load from the
// environment rather than living as literals.
type Config struct {
	Baseline       int
	PerTagBonus    int
	ShortWordLimit int
	ShortBonus     int
	LongWordLimit  int
	LongPenalty    int
	StructureBonus int

	WeightRule     float64
	WeightTags     float64
	WeightCoverage float64
	HighCutoff     float64
	MediumCutoff   float64
}

func ConfigFromEnv() Config {
	return Config{
		Baseline:       envutil.Int("SCORER_BASELINE", 50),
		PerTagBonus:    envutil.Int("SCORER_PER_TAG_BONUS", 10),
		ShortWordLimit: envutil.Int("SCORER_SHORT_WORD_LIMIT", 50),
		ShortBonus:     envutil.Int("SCORER_SHORT_BONUS", 20),
		LongWordLimit:  envutil.Int("SCORER_LONG_WORD_LIMIT", 200),
		LongPenalty:    envutil.Int("SCORER_LONG_PENALTY", 10),
		StructureBonus: envutil.Int("SCORER_STRUCTURE_BONUS", 5),
		WeightRule:     envutil.Float("SCORER_WEIGHT_RULE", 0.5),
		WeightTags:     envutil.Float("SCORER_WEIGHT_TAGS", 0.3),
		WeightCoverage: envutil.Float("SCORER_WEIGHT_COVERAGE", 0.2),
		HighCutoff:     envutil.Float("SCORER_HIGH_CUTOFF", 0.7),
		MediumCutoff:   envutil.Float("SCORER_MEDIUM_CUTOFF", 0.4),
	}
}

var (
	listLineRE    = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	headingLineRE = regexp.MustCompile(`(?m)^#+\s`)
)

// Scorer turns classification signals and chunk shape into a coverage
// score and a confidence tier.
type Scorer struct {
	cfg Config
}

func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Coverage estimates how well the label represents the chunk, 0-100.
func (s *Scorer) Coverage(text string, tagCount int) int {
	score := s.cfg.Baseline

	if tagCount > types.MaxTopicTags {
		tagCount = types.MaxTopicTags
	}
	score += tagCount * s.cfg.PerTagBonus

	words := token.Words(text)
	if words < s.cfg.ShortWordLimit {
		score += s.cfg.ShortBonus
	} else if words > s.cfg.LongWordLimit {
		score -= s.cfg.LongPenalty
	}

	if listLineRE.MatchString(text) {
		score += s.cfg.StructureBonus
	}
	if headingLineRE.MatchString(text) {
		score += s.cfg.StructureBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Confidence maps the weighted composite of rule specificity, tag
// count and coverage onto the three tiers. With the rule fixed, more
// tags or more coverage can only raise the tier, never lower it.
func (s *Scorer) Confidence(ruleWeight float64, tagCount, coverage int) types.Confidence {
	if tagCount > types.MaxTopicTags {
		tagCount = types.MaxTopicTags
	}
	composite := s.cfg.WeightRule*ruleWeight +
		s.cfg.WeightTags*(float64(tagCount)/float64(types.MaxTopicTags)) +
		s.cfg.WeightCoverage*(float64(coverage)/100.0)

	switch {
	case composite >= s.cfg.HighCutoff:
		return types.ConfidenceHigh
	case composite >= s.cfg.MediumCutoff:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// Annotation is the scored label payload for one chunk, ready for the
// label store.
type Annotation struct {
	Role          types.RhetoricalRole
	TopicTags     []string
	CoverageScore int
	Confidence    types.Confidence
}

// Score combines a classification result with the chunk text into a
// full annotation.
func (s *Scorer) Score(text string, res classifier.Result) Annotation {
	coverage := s.Coverage(text, len(res.TopicTags))
	return Annotation{
		Role:          res.Role,
		TopicTags:     res.TopicTags,
		CoverageScore: coverage,
		Confidence:    s.Confidence(res.RuleWeight, len(res.TopicTags), coverage),
	}
}
