package guidance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/prompt"
)

// Completer is the external completion call the validator may
// re-invoke once during a retry.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// State tracks one generated response through validation.
type State string

const (
	StateGenerated    State = "generated"
	StateValidating   State = "validating"
	StateValid        State = "valid"
	StateRetryPending State = "retry_pending"
	StateFailed       State = "failed"
)

// Violation names one failed validation rule.
type Violation string

const (
	ViolationMissingSection    Violation = "missing_section"
	ViolationSectionOrder      Violation = "section_order"
	ViolationFirstPerson       Violation = "first_person"
	ViolationMissingCitation   Violation = "missing_citation"
	ViolationMissingNoSource   Violation = "missing_no_source_marker"
	ViolationLengthOutOfBounds Violation = "length_out_of_bounds"
)

// Result is produced once per generation attempt.
type Result struct {
	Passed        bool
	ViolatedRules []Violation
	FallbackUsed  bool
	Attempts      int
	FinalState    State
}

type Config struct {
	MaxWords       int
	MinWords       int
	CompletionWait time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		MaxWords:       envutil.Int("VALIDATOR_MAX_WORDS", 300),
		MinWords:       envutil.Int("VALIDATOR_MIN_WORDS", 10),
		CompletionWait: envutil.Duration("VALIDATOR_COMPLETION_TIMEOUT", 60*time.Second),
	}
}

// First-person-as-requester phrasings that a grounded assistant must
// never produce.
var forbiddenPhrases = []string{
	"i think",
	"i believe",
	"i would",
	"in my opinion",
	"my approach",
	"i recommend",
}

// Validator checks generated text against the structural and
// grounding contract of its prompt, retries once with a stricter
// directive, and otherwise falls back to a fixed safe response. It
// never returns an error to its caller.
type Validator struct {
	log       *logger.Logger
	completer Completer
	cfg       Config
}

func NewValidator(baseLog *logger.Logger, completer Completer, cfg Config) *Validator {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 300
	}
	if cfg.CompletionWait <= 0 {
		cfg.CompletionWait = 60 * time.Second
	}
	return &Validator{
		log:       baseLog.With("service", "OutputValidator"),
		completer: completer,
		cfg:       cfg,
	}
}

// Check runs the five validation rules against one output. Exposed
// for tests; Finalize drives the full state machine.
func (v *Validator) Check(output string, layers prompt.Layers) []Violation {
	var violated []Violation

	// (a) required sections present, in order.
	pos := 0
	ordered := true
	for _, section := range prompt.RequiredSections(layers.Mode()) {
		idx := strings.Index(output[pos:], section)
		if idx < 0 {
			if strings.Contains(output, section) {
				ordered = false
			} else {
				violated = append(violated, ViolationMissingSection)
			}
			continue
		}
		pos += idx + len(section)
	}
	if !ordered {
		violated = append(violated, ViolationSectionOrder)
	}

	// (b) no first-person-as-requester phrasing.
	lower := strings.ToLower(output)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			violated = append(violated, ViolationFirstPerson)
			break
		}
	}

	// (c)/(d) grounding: cited source when context was supplied, the
	// explicit uncertainty marker when it was not.
	if layers.HasContext() {
		cited := false
		for _, name := range layers.SourceNames() {
			if name != "" && strings.Contains(output, name) {
				cited = true
				break
			}
		}
		if !cited {
			violated = append(violated, ViolationMissingCitation)
		}
	} else if !strings.Contains(output, prompt.NoSourceMarker) {
		violated = append(violated, ViolationMissingNoSource)
	}

	// (e) length bounds.
	words := len(strings.Fields(output))
	if words > v.cfg.MaxWords || words < v.cfg.MinWords {
		violated = append(violated, ViolationLengthOutOfBounds)
	}

	return dedupeViolations(violated)
}

// Finalize validates the first completion, retries once with a
// corrective directive on failure, and falls back to the fixed safe
// response on a second failure. Always returns usable text.
func (v *Validator) Finalize(ctx context.Context, layers prompt.Layers, firstOutput string) (string, Result) {
	res := Result{Attempts: 1, FinalState: StateValidating}

	violated := v.Check(firstOutput, layers)
	if len(violated) == 0 {
		res.Passed = true
		res.FinalState = StateValid
		return firstOutput, res
	}

	res.ViolatedRules = violated
	res.FinalState = StateRetryPending
	v.log.Warn("generated output failed validation, retrying",
		"mode", string(layers.Mode()),
		"violations", violationNames(violated),
	)

	retryOutput, err := v.retry(ctx, layers, violated)
	if err == nil {
		res.Attempts = 2
		retryViolated := v.Check(retryOutput, layers)
		if len(retryViolated) == 0 {
			res.Passed = true
			res.ViolatedRules = nil
			res.FinalState = StateValid
			return retryOutput, res
		}
		res.ViolatedRules = retryViolated
	} else {
		v.log.Warn("retry completion failed", "error", err)
	}

	res.FallbackUsed = true
	res.FinalState = StateFailed
	return FallbackResponse(layers.Mode()), res
}

func (v *Validator) retry(ctx context.Context, layers prompt.Layers, violated []Violation) (string, error) {
	if v.completer == nil {
		return "", fmt.Errorf("no completer configured")
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.CompletionWait)
	defer cancel()

	sections := layers.Sections()
	directive := correctiveDirective(layers, violated)
	user := strings.Join(append(sections[1:6:6], directive), "\n---\n")
	return v.completer.Complete(ctx, sections[0], user)
}

func correctiveDirective(layers prompt.Layers, violated []Violation) string {
	var b strings.Builder
	b.WriteString("CORRECTION REQUIRED: your previous response violated the output contract:\n")
	for _, viol := range violated {
		fmt.Fprintf(&b, "- %s\n", viol)
	}
	b.WriteString("\nRegenerate the response. Follow the MANDATORY OUTPUT STRUCTURE exactly.")
	if layers.HasContext() {
		b.WriteString(" Cite at least one provided source by its exact name.")
	} else {
		fmt.Fprintf(&b, " Include the marker %q since no sources were provided.", prompt.NoSourceMarker)
	}
	return b.String()
}

func dedupeViolations(in []Violation) []Violation {
	seen := make(map[Violation]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func violationNames(in []Violation) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}
