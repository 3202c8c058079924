package classifier

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/sakshampandey1901/Cite/internal/types"
)

// Rule is one row of the ordered classification table. Rules are
// evaluated top to bottom and the first match wins, so narrow
// high-signal patterns must sit above broad catch-alls. Weight is the
// rule's specificity (0-1) and feeds the confidence composite.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Role    types.RhetoricalRole
	Weight  float64
}

// DefaultRules returns the built-in ordered table. Ordering notes:
// explicit concluding/defining constructions outrank the generic
// causal connectives ("therefore" alone argues, "therefore we
// conclude" concludes), and the loose observation verbs sit last
// among the matchers because almost any empirical prose trips them.
func DefaultRules() []Rule {
	return compileRules([]ruleSpec{
		{"concluding-connective", `(?i)\b(in conclusion|to conclude|we conclude|to summarize|in summary|thus we can)\b`, types.RoleConclusion, 0.90},
		{"closing-marker", `(?i)\b(finally|ultimately|in the end|overall)\b`, types.RoleConclusion, 0.70},
		{"explicit-definition", `(?i)\b(is defined as|defined as|refers to|is called|in other words|i\.e\.)\b`, types.RoleDefinition, 0.85},
		{"terminology-marker", `(?i)\b(terminology|definition|that is to say)\b`, types.RoleDefinition, 0.60},
		{"illustration-marker", `(?i)\b(for example|for instance|such as|e\.g\.|to illustrate|consider the case)\b`, types.RoleExample, 0.85},
		{"specificity-marker", `(?i)\b(specifically|in particular|imagine)\b`, types.RoleExample, 0.55},
		{"procedure-description", `(?i)\b(we (used|employed|applied|conducted|performed)|experimental setup|study design|protocol|data collection)\b`, types.RoleMethodology, 0.85},
		{"method-vocabulary", `(?i)\b(method|methodology|approach|procedure|technique|measurement)\b`, types.RoleMethodology, 0.60},
		{"causal-inference", `(?i)\b(therefore|thus|consequently|hence|it follows that)\b`, types.RoleArgument, 0.80},
		{"claim-verb", `(?i)\b(argues?|claims?|asserts?|contends?|posits?|proves?|demonstrates?)\b`, types.RoleArgument, 0.70},
		{"grounds-connective", `(?i)\b(because|since|given that|as a result)\b`, types.RoleArgument, 0.55},
		{"salience-marker", `(?i)\b(interestingly|notably|surprisingly|remarkably|key finding)\b`, types.RoleInsight, 0.75},
		{"implication-verb", `(?i)\b(reveals?|suggests?|indicates?|implies?)\b`, types.RoleInsight, 0.55},
		{"empirical-report", `(?i)\b(we (observed?|noticed?|see)|evidence suggests?|data shows?|it appears)\b`, types.RoleObservation, 0.70},
		{"finding-verb", `(?i)\b(observed|noticed|detected|identified|found)\b`, types.RoleObservation, 0.45},
		{"historical-context", `(?i)\b(historically|traditionally|in the past|over time|previously)\b`, types.RoleBackground, 0.65},
		{"framing-vocabulary", `(?i)\b(background|context|introduction|overview)\b`, types.RoleBackground, 0.45},
	})
}

type ruleSpec struct {
	name    string
	pattern string
	role    types.RhetoricalRole
	weight  float64
}

func compileRules(specs []ruleSpec) []Rule {
	out := make([]Rule, 0, len(specs))
	for _, s := range specs {
		out = append(out, Rule{
			Name:    s.name,
			Pattern: regexp.MustCompile(s.pattern),
			Role:    s.role,
			Weight:  s.weight,
		})
	}
	return out
}

type ruleFile struct {
	Rules []struct {
		Name    string  `yaml:"name"`
		Pattern string  `yaml:"pattern"`
		Role    string  `yaml:"role"`
		Weight  float64 `yaml:"weight"`
	} `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file so the table
// can be tuned without touching control flow. File order is table
// order.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rule file %s contains no rules", path)
	}

	out := make([]Rule, 0, len(rf.Rules))
	for i, r := range rf.Rules {
		role, err := types.ParseRhetoricalRole(r.Role)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): bad pattern: %w", i, r.Name, err)
		}
		if r.Weight < 0 || r.Weight > 1 {
			return nil, fmt.Errorf("rule %d (%s): weight %v outside [0,1]", i, r.Name, r.Weight)
		}
		out = append(out, Rule{Name: r.Name, Pattern: re, Role: role, Weight: r.Weight})
	}
	return out, nil
}
