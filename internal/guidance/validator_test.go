package guidance

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/prompt"
	"github.com/sakshampandey1901/Cite/internal/retrieval"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type fakeCompleter struct {
	outputs []string
	calls   int
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "", fmt.Errorf("no scripted output")
	}
	out := f.outputs[0]
	if len(f.outputs) > 1 {
		f.outputs = f.outputs[1:]
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func buildLayers(t *testing.T, mode types.TaskMode, sources ...string) prompt.Layers {
	t.Helper()
	a := prompt.NewAssembler(testLogger(t))

	var cands []retrieval.Candidate
	for _, name := range sources {
		cands = append(cands, retrieval.Candidate{
			ChunkID:    uuid.New(),
			DocumentID: uuid.New(),
			OwnerID:    uuid.New(),
			SourceName: name,
			Text:       "grounding text",
			Similarity: 0.9,
		})
	}
	layers, err := a.Build(prompt.Request{Mode: mode, EditorContent: "draft", Sources: cands})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return layers
}

// validOutput renders a response satisfying every rule for the given
// mode, citing the named source (or carrying the no-source marker).
func validOutput(mode types.TaskMode, sourceName string) string {
	grounding := "According to " + sourceName + ", the pattern holds."
	if sourceName == "" {
		grounding = prompt.NoSourceMarker + " for this claim]"
	}
	return fmt.Sprintf(`## %s Guidance

### 1. Likely Next Move
Extend the second section with the contrast the sources establish.

### 2. Supporting Rationale
%s

### 3. Alternative Paths (Optional)
The sources also support a chronological ordering.

### 4. Cautions or Limitations
The sources do not address recent developments in this area.`, string(mode), grounding)
}

func TestCheckValidOutputPasses(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	if violated := v.Check(validOutput(types.ModeStart, "paper.pdf"), layers); len(violated) != 0 {
		t.Fatalf("valid output flagged: %v", violated)
	}
}

func TestCheckMissingSection(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	out := strings.Replace(validOutput(types.ModeStart, "paper.pdf"), "### 4. Cautions or Limitations", "### 4. Closing Thoughts", 1)
	violated := v.Check(out, layers)
	if !hasViolation(violated, ViolationMissingSection) {
		t.Fatalf("missing section not flagged: %v", violated)
	}
}

func TestCheckSectionOrder(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	// Swap sections 1 and 2: all present, order broken.
	out := validOutput(types.ModeStart, "paper.pdf")
	out = strings.Replace(out, "### 1. Likely Next Move", "### X", 1)
	out = strings.Replace(out, "### 2. Supporting Rationale", "### 1. Likely Next Move", 1)
	out = strings.Replace(out, "### X", "### 2. Supporting Rationale", 1)

	violated := v.Check(out, layers)
	if !hasViolation(violated, ViolationSectionOrder) {
		t.Fatalf("order breach not flagged: %v", violated)
	}
}

func TestCheckFirstPerson(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	out := validOutput(types.ModeStart, "paper.pdf") + "\nI think this is the best path."
	violated := v.Check(out, layers)
	if !hasViolation(violated, ViolationFirstPerson) {
		t.Fatalf("first-person phrasing not flagged: %v", violated)
	}
}

func TestCheckMissingCitationWithContext(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	out := validOutput(types.ModeStart, "someone-elses-source.txt")
	violated := v.Check(out, layers)
	if !hasViolation(violated, ViolationMissingCitation) {
		t.Fatalf("uncited output not flagged: %v", violated)
	}
}

func TestCheckRequiresMarkerWithoutContext(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart)

	// Structurally perfect but claims no uncertainty.
	out := validOutput(types.ModeStart, "fabricated.pdf")
	violated := v.Check(out, layers)
	if !hasViolation(violated, ViolationMissingNoSource) {
		t.Fatalf("missing marker not flagged: %v", violated)
	}

	if got := v.Check(validOutput(types.ModeStart, ""), layers); len(got) != 0 {
		t.Fatalf("marked output flagged: %v", got)
	}
}

func TestCheckLengthBounds(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 50, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	violated := v.Check(validOutput(types.ModeStart, "paper.pdf"), layers)
	if !hasViolation(violated, ViolationLengthOutOfBounds) {
		t.Fatalf("overlong output not flagged: %v", violated)
	}
}

func TestFinalizeValidFirstAttempt(t *testing.T) {
	fake := &fakeCompleter{}
	v := NewValidator(testLogger(t), fake, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	text, res := v.Finalize(context.Background(), layers, validOutput(types.ModeStart, "paper.pdf"))
	if !res.Passed || res.FallbackUsed || res.Attempts != 1 || res.FinalState != StateValid {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.calls != 0 {
		t.Fatalf("completer called %d times on a valid first attempt", fake.calls)
	}
	if !strings.Contains(text, "paper.pdf") {
		t.Fatal("returned text is not the original output")
	}
}

func TestFinalizeRetrySucceeds(t *testing.T) {
	fake := &fakeCompleter{outputs: []string{validOutput(types.ModeStart, "paper.pdf")}}
	v := NewValidator(testLogger(t), fake, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	_, res := v.Finalize(context.Background(), layers, "garbage output")
	if !res.Passed || res.FallbackUsed {
		t.Fatalf("retry success not reflected: %+v", res)
	}
	if res.Attempts != 2 || fake.calls != 1 {
		t.Fatalf("attempts=%d calls=%d, want 2/1", res.Attempts, fake.calls)
	}
}

func TestFinalizeFallbackAfterSecondFailure(t *testing.T) {
	fake := &fakeCompleter{outputs: []string{"still garbage"}}
	v := NewValidator(testLogger(t), fake, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeReframe, "paper.pdf")

	text, res := v.Finalize(context.Background(), layers, "garbage")
	if res.Passed || !res.FallbackUsed || res.FinalState != StateFailed {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.calls != 1 {
		t.Fatalf("completer called %d times, want exactly one retry", fake.calls)
	}
	if text != FallbackResponse(types.ModeReframe) {
		t.Fatal("returned text is not the fixed fallback")
	}
	if !strings.Contains(text, prompt.NoSourceMarker) {
		t.Fatal("fallback missing the uncertainty marker")
	}
	if len(res.ViolatedRules) == 0 {
		t.Fatal("failed result carries no violations")
	}
}

func TestFinalizeFallbackWhenRetryErrors(t *testing.T) {
	fake := &fakeCompleter{err: fmt.Errorf("upstream down")}
	v := NewValidator(testLogger(t), fake, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeStart, "paper.pdf")

	text, res := v.Finalize(context.Background(), layers, "garbage")
	if !res.FallbackUsed {
		t.Fatalf("fallback not used: %+v", res)
	}
	if text != FallbackResponse(types.ModeStart) {
		t.Fatal("returned text is not the fixed fallback")
	}
}

func TestFinalizeNeverReturnsEmpty(t *testing.T) {
	v := NewValidator(testLogger(t), nil, Config{MaxWords: 300, MinWords: 10})
	layers := buildLayers(t, types.ModeOutline)

	text, _ := v.Finalize(context.Background(), layers, "")
	if strings.TrimSpace(text) == "" {
		t.Fatal("Finalize returned empty text")
	}
}

func hasViolation(in []Violation, want Violation) bool {
	for _, v := range in {
		if v == want {
			return true
		}
	}
	return false
}
