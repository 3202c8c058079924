package retrieval

import (
	"testing"

	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/types"
)

func testFilter(t *testing.T) *Filter {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewFilter(log)
}

func labeled(role types.RhetoricalRole, conf types.Confidence, coverage int) *types.ChunkLabel {
	return &types.ChunkLabel{
		ID:             uuid.New(),
		RhetoricalRole: role,
		Confidence:     conf,
		CoverageScore:  coverage,
	}
}

func candidate(owner, doc uuid.UUID, sim float64, label *types.ChunkLabel) Candidate {
	return Candidate{
		ChunkID:    uuid.New(),
		DocumentID: doc,
		OwnerID:    owner,
		Similarity: sim,
		Label:      label,
	}
}

func TestOwnershipFilterIsMandatory(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	attacker := uuid.New()
	doc := uuid.New()

	in := []Candidate{
		candidate(me, doc, 0.9, labeled(types.RoleArgument, types.ConfidenceHigh, 90)),
		// Foreign chunk with a perfect score and every filter passing.
		candidate(attacker, doc, 1.0, labeled(types.RoleArgument, types.ConfidenceHigh, 100)),
	}

	out := f.Apply(me, in, Params{})
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].OwnerID != me {
		t.Fatal("foreign-owned candidate survived the filter")
	}
}

func TestOwnershipAppliesWithZeroParams(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()

	in := []Candidate{
		candidate(uuid.New(), uuid.New(), 0.99, nil),
		candidate(uuid.New(), uuid.New(), 0.98, nil),
	}
	if out := f.Apply(me, in, Params{}); len(out) != 0 {
		t.Fatalf("got %d foreign candidates through with empty params", len(out))
	}
}

func TestRoleFilterRequiresLabel(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	doc := uuid.New()
	role := types.RoleConclusion

	in := []Candidate{
		candidate(me, doc, 0.9, labeled(types.RoleConclusion, types.ConfidenceHigh, 80)),
		candidate(me, doc, 0.8, labeled(types.RoleArgument, types.ConfidenceHigh, 80)),
		candidate(me, doc, 0.7, nil), // unlabeled cannot satisfy a role filter
	}

	out := f.Apply(me, in, Params{Role: &role})
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].Label.RhetoricalRole != types.RoleConclusion {
		t.Fatalf("wrong role survived: %q", out[0].Label.RhetoricalRole)
	}
}

func TestConfidenceThreshold(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	doc := uuid.New()
	min := types.ConfidenceMedium

	in := []Candidate{
		candidate(me, doc, 0.9, labeled(types.RoleUnknown, types.ConfidenceHigh, 50)),
		candidate(me, doc, 0.8, labeled(types.RoleUnknown, types.ConfidenceMedium, 50)),
		candidate(me, doc, 0.7, labeled(types.RoleUnknown, types.ConfidenceLow, 50)),
		candidate(me, doc, 0.6, nil), // nil label counts as low
	}

	out := f.Apply(me, in, Params{MinConfidence: &min})
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	for _, c := range out {
		if c.Label.Confidence.Rank() < min.Rank() {
			t.Fatalf("candidate below threshold survived: %q", c.Label.Confidence)
		}
	}
}

func TestCoverageThreshold(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	doc := uuid.New()
	min := 60

	in := []Candidate{
		candidate(me, doc, 0.9, labeled(types.RoleUnknown, types.ConfidenceLow, 80)),
		candidate(me, doc, 0.8, labeled(types.RoleUnknown, types.ConfidenceLow, 59)),
		candidate(me, doc, 0.7, nil), // nil label counts as coverage 0
	}

	out := f.Apply(me, in, Params{MinCoverage: &min})
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
}

func TestDiversityCapKeepsHighestSimilarity(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	docA := uuid.New()
	docB := uuid.New()

	in := []Candidate{
		candidate(me, docA, 0.95, nil),
		candidate(me, docA, 0.90, nil),
		candidate(me, docA, 0.85, nil),
		candidate(me, docA, 0.80, nil),
		candidate(me, docB, 0.50, nil),
	}

	out := f.Apply(me, in, Params{DiversityCap: 3})
	if len(out) != 4 {
		t.Fatalf("got %d candidates, want 4", len(out))
	}

	fromA := 0
	for _, c := range out {
		if c.DocumentID == docA {
			fromA++
		}
	}
	if fromA != 3 {
		t.Fatalf("doc A contributed %d chunks, cap is 3", fromA)
	}
	// The cap keeps doc A's top three and the doc B chunk fills in.
	if out[0].Similarity != 0.95 || out[3].Similarity != 0.50 {
		t.Fatalf("unexpected ordering: %v...%v", out[0].Similarity, out[3].Similarity)
	}
}

func TestTopKTruncationWithTieBreaks(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	doc := uuid.New()

	a := candidate(me, doc, 0.8, labeled(types.RoleUnknown, types.ConfidenceLow, 90))
	a.Index = 5
	b := candidate(me, doc, 0.8, labeled(types.RoleUnknown, types.ConfidenceLow, 70))
	b.Index = 1
	c := candidate(me, doc, 0.8, labeled(types.RoleUnknown, types.ConfidenceLow, 70))
	c.Index = 3

	out := f.Apply(me, []Candidate{c, b, a}, Params{TopK: 2})
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	// Equal similarity: coverage desc, then chunk index asc.
	if out[0].ChunkID != a.ChunkID {
		t.Fatal("higher coverage did not win the first tie-break")
	}
	if out[1].ChunkID != b.ChunkID {
		t.Fatal("lower index did not win the second tie-break")
	}
}

func TestEmptyInputYieldsEmptyOutput(t *testing.T) {
	f := testFilter(t)
	out := f.Apply(uuid.New(), nil, Params{})
	if out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", out)
	}
}

func TestFilterOrderConfidenceBeforeDiversity(t *testing.T) {
	f := testFilter(t)
	me := uuid.New()
	docA := uuid.New()
	docB := uuid.New()
	min := types.ConfidenceHigh

	// Doc A's best chunks are low confidence. If the cap ran first it
	// would consume doc A's slots with chunks the confidence filter
	// then kills; running filters first lets A's high-confidence chunk
	// through.
	in := []Candidate{
		candidate(me, docA, 0.99, labeled(types.RoleUnknown, types.ConfidenceLow, 50)),
		candidate(me, docA, 0.98, labeled(types.RoleUnknown, types.ConfidenceLow, 50)),
		candidate(me, docA, 0.50, labeled(types.RoleUnknown, types.ConfidenceHigh, 50)),
		candidate(me, docB, 0.40, labeled(types.RoleUnknown, types.ConfidenceHigh, 50)),
	}

	out := f.Apply(me, in, Params{MinConfidence: &min, DiversityCap: 2})
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	for _, c := range out {
		if c.Label.Confidence != types.ConfidenceHigh {
			t.Fatalf("low confidence chunk survived: %v", c.Label.Confidence)
		}
	}
}
