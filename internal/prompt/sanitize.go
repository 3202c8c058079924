package prompt

import (
	"regexp"
	"strings"
)

// Layers 4 and 5 are data. Anything inside them that looks like a
// layer delimiter or a directive to shed the invariant rules is
// neutralized before concatenation.

type scrubRule struct {
	Label       string
	Re          *regexp.Regexp
	Replacement string
}

var dataScrubRules = []scrubRule{
	// A line of dashes is the layer delimiter; bend it so spliced
	// content can't forge a layer boundary.
	{Label: "delimiter-line", Re: regexp.MustCompile(`(?m)^\s*-{3,}\s*$`), Replacement: "- - -"},
	{Label: "override-directive", Re: regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+|any\s+|the\s+)?(previous|prior|above|earlier)\s+(instructions?|rules?|constraints?)\b`), Replacement: "[removed directive]"},
	{Label: "system-spoof", Re: regexp.MustCompile(`(?i)^\s*(system|assistant)\s*:`), Replacement: ""},
	{Label: "mode-spoof", Re: regexp.MustCompile(`(?i)^\s*MODE\s*:`), Replacement: "mode -"},
}

var controlCharRE = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// SanitizeData scrubs one data-layer string. Returns the cleaned text
// and the labels of the rules that fired, for logging.
func SanitizeData(s string) (string, []string) {
	if strings.TrimSpace(s) == "" {
		return strings.TrimSpace(s), nil
	}

	s = controlCharRE.ReplaceAllString(s, "")

	var hit []string
	for _, r := range dataScrubRules {
		if r.Re.MatchString(s) {
			s = r.Re.ReplaceAllString(s, r.Replacement)
			hit = append(hit, r.Label)
		}
	}
	return strings.TrimSpace(s), hit
}
