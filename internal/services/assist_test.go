package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/guidance"
	"github.com/sakshampandey1901/Cite/internal/prompt"
	"github.com/sakshampandey1901/Cite/internal/repos"
	"github.com/sakshampandey1901/Cite/internal/repos/testutil"
	"github.com/sakshampandey1901/Cite/internal/retrieval"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type scriptedCompleter struct {
	respond func(system, user string) (string, error)
	lastSys string
	lastUsr string
	calls   int
}

func (s *scriptedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.lastSys = system
	s.lastUsr = user
	return s.respond(system, user)
}

func compliantResponse(mode types.TaskMode, sourceName string) string {
	grounding := "Per " + sourceName + ", the pattern is established."
	if sourceName == "" {
		grounding = prompt.NoSourceMarker + " for this claim]"
	}
	return fmt.Sprintf(`## %s Guidance

### 1. Likely Next Move
Develop the contrast the strongest source sets up.

### 2. Supporting Rationale
%s

### 4. Cautions or Limitations
The corpus does not cover recent work on this topic.`, string(mode), grounding)
}

func newTestAssist(t *testing.T, index *fakeIndex, completer guidance.Completer) AssistService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	return NewAssistService(
		log,
		AssistConfig{FetchMultiplier: 3, DiversityCap: 3, QueryTailRunes: 500},
		repos.NewChunkRepo(db, log),
		repos.NewChunkLabelRepo(db, log),
		fakeEmbedder{},
		index,
		retrieval.NewFilter(log),
		prompt.NewAssembler(log),
		completer,
		guidance.NewValidator(log, completer, guidance.Config{MaxWords: 300, MinWords: 10}),
	)
}

func TestAssistEndToEnd(t *testing.T) {
	ctx := context.Background()
	index := newFakeIndex()

	// Seed a corpus through the real ingestion path.
	ingest := newTestIngestion(t, index)
	userID := uuid.New()
	doc, err := ingest.Ingest(ctx, IngestRequest{UserID: userID, Title: "memory-review", Text: longText(20)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	cleanupDocument(t, doc.ID)

	completer := &scriptedCompleter{respond: func(system, user string) (string, error) {
		return compliantResponse(types.ModeContinue, "memory-review"), nil
	}}
	svc := newTestAssist(t, index, completer)

	resp, err := svc.Assist(ctx, AssistRequest{
		UserID:        userID,
		Mode:          types.ModeContinue,
		EditorContent: "I have been writing about consolidation during sleep",
	})
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if !resp.Validation.Passed || resp.Validation.FallbackUsed {
		t.Fatalf("validation result: %+v", resp.Validation)
	}
	if len(resp.Sources) == 0 || resp.Sources[0] != "memory-review" {
		t.Fatalf("sources = %v", resp.Sources)
	}
	if !strings.Contains(resp.Text, "memory-review") {
		t.Fatal("response does not cite the retrieved source")
	}

	// The completion request must carry the invariant rules as system
	// and the remaining layers as user.
	if !strings.HasPrefix(completer.lastSys, "CRITICAL CONSTRAINTS") {
		t.Fatal("system prompt is not the invariant layer")
	}
	if !strings.Contains(completer.lastUsr, "RETRIEVED SOURCES") {
		t.Fatal("user prompt missing the context layer")
	}
}

func TestAssistNoCorpusFallsBackSafely(t *testing.T) {
	ctx := context.Background()
	index := newFakeIndex()

	completer := &scriptedCompleter{respond: func(system, user string) (string, error) {
		// A model that fabricates sources despite having none.
		return compliantResponse(types.ModeStart, "made-up.pdf"), nil
	}}
	svc := newTestAssist(t, index, completer)

	resp, err := svc.Assist(ctx, AssistRequest{
		UserID:        uuid.New(),
		Mode:          types.ModeStart,
		EditorContent: "anything",
	})
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Validation.Passed {
		t.Fatal("fabricated response passed validation")
	}
	if !resp.Validation.FallbackUsed {
		t.Fatalf("expected fallback, got %+v", resp.Validation)
	}
	if !strings.Contains(resp.Text, prompt.NoSourceMarker) {
		t.Fatal("fallback missing uncertainty marker")
	}
}

func TestAssistNoContextAcknowledged(t *testing.T) {
	ctx := context.Background()
	index := newFakeIndex()

	completer := &scriptedCompleter{respond: func(system, user string) (string, error) {
		return compliantResponse(types.ModeStart, ""), nil
	}}
	svc := newTestAssist(t, index, completer)

	resp, err := svc.Assist(ctx, AssistRequest{
		UserID:        uuid.New(),
		Mode:          types.ModeStart,
		EditorContent: "starting fresh",
	})
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if !resp.Validation.Passed {
		t.Fatalf("marked response rejected: %+v", resp.Validation)
	}
	if len(resp.Sources) != 0 {
		t.Fatalf("sources = %v with empty corpus", resp.Sources)
	}
}

func TestAssistRejectsInvalidInput(t *testing.T) {
	svc := newTestAssist(t, newFakeIndex(), &scriptedCompleter{respond: func(string, string) (string, error) {
		return "", nil
	}})

	if _, err := svc.Assist(context.Background(), AssistRequest{Mode: types.ModeStart}); err == nil {
		t.Fatal("missing user accepted")
	}
	if _, err := svc.Assist(context.Background(), AssistRequest{UserID: uuid.New(), Mode: "ESSAY"}); err == nil {
		t.Fatal("invalid mode accepted")
	}
}

func TestAssistOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	index := newFakeIndex()

	// Victim's corpus is indexed under the victim's namespace.
	ingest := newTestIngestion(t, index)
	victim := uuid.New()
	doc, err := ingest.Ingest(ctx, IngestRequest{UserID: victim, Title: "private-notes", Text: longText(10)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	cleanupDocument(t, doc.ID)

	completer := &scriptedCompleter{respond: func(system, user string) (string, error) {
		return compliantResponse(types.ModeStart, ""), nil
	}}
	svc := newTestAssist(t, index, completer)

	// The attacker's query must see no victim content at all.
	resp, err := svc.Assist(ctx, AssistRequest{
		UserID:        uuid.New(),
		Mode:          types.ModeStart,
		EditorContent: "tell me about consolidation",
	})
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if len(resp.Sources) != 0 {
		t.Fatalf("attacker saw sources %v", resp.Sources)
	}
	if strings.Contains(completer.lastUsr, "private-notes") {
		t.Fatal("victim content leaked into the attacker's prompt")
	}
}
