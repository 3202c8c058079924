package classifier

import (
	"github.com/sakshampandey1901/Cite/internal/annotate/token"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// Result is one classification outcome. RuleWeight is 0 when no rule
// matched (unknown) or the floor check fired (insufficient_data).
type Result struct {
	Role       types.RhetoricalRole
	RuleName   string
	RuleWeight float64
	TopicTags  []string
}

type Config struct {
	// Chunks with fewer tokens than this are insufficient_data
	// before any rule runs.
	MinTokens int
}

func ConfigFromEnv() Config {
	return Config{
		MinTokens: envutil.Int("CLASSIFIER_MIN_TOKENS", 5),
	}
}

// Classifier assigns one rhetorical role per chunk by walking an
// ordered rule table, and extracts topic tags through a pluggable
// strategy. Classification never fails: weak signal degrades to
// unknown or insufficient_data.
type Classifier struct {
	rules []Rule
	tags  TagExtractor
	tok   token.Tokenizer
	cfg   Config
}

func New(rules []Rule, tags TagExtractor, tok token.Tokenizer, cfg Config) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if tags == nil {
		tags = NewHeuristicTagExtractor()
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 5
	}
	return &Classifier{rules: rules, tags: tags, tok: tok, cfg: cfg}
}

func (c *Classifier) Classify(text string) Result {
	// Tags are extracted regardless of role; even an insufficient_data
	// chunk keeps whatever topical signal it carries.
	tags := types.NormalizeTags(c.tags.Extract(text))

	if c.tok.Count(text) < c.cfg.MinTokens {
		return Result{Role: types.RoleInsufficientData, TopicTags: tags}
	}

	for _, r := range c.rules {
		if r.Pattern.MatchString(text) {
			return Result{
				Role:       r.Role,
				RuleName:   r.Name,
				RuleWeight: r.Weight,
				TopicTags:  tags,
			}
		}
	}
	return Result{Role: types.RoleUnknown, TopicTags: tags}
}
