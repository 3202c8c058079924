package retrieval

import (
	"sort"

	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// Candidate is one query-scoped retrieval hit: the chunk, a snapshot
// of its label and the similarity score. Never persisted.
type Candidate struct {
	ChunkID     uuid.UUID
	DocumentID  uuid.UUID
	OwnerID     uuid.UUID
	SourceName  string
	ContentType types.ContentType
	Text        string
	Index       int
	PageNumber  *int
	Timestamp   *string
	Similarity  float64
	// Label may be nil when indexing raced labeling; the filter then
	// treats the chunk as lowest trust instead of dropping it.
	Label *types.ChunkLabel
}

func (c Candidate) confidence() types.Confidence {
	if c.Label == nil {
		return types.ConfidenceLow
	}
	return c.Label.Confidence
}

func (c Candidate) coverage() int {
	if c.Label == nil {
		return 0
	}
	return c.Label.CoverageScore
}

// Params are the optional per-query filters. Zero values disable the
// corresponding step; ownership filtering is not optional and not
// represented here.
type Params struct {
	Role          *types.RhetoricalRole
	MinConfidence *types.Confidence
	MinCoverage   *int
	// DiversityCap bounds how many chunks one source document may
	// contribute. <=0 disables the cap.
	DiversityCap int
	TopK         int
}

const DefaultTopK = 10

// Filter applies the fixed trust/diversity pipeline to a ranked
// candidate list. An empty input is a valid state and yields an empty
// output, never an error.
type Filter struct {
	log *logger.Logger
}

func NewFilter(baseLog *logger.Logger) *Filter {
	return &Filter{log: baseLog.With("service", "RetrievalFilter")}
}

func (f *Filter) Apply(requester uuid.UUID, candidates []Candidate, p Params) []Candidate {
	if p.TopK <= 0 {
		p.TopK = DefaultTopK
	}
	if len(candidates) == 0 {
		return []Candidate{}
	}

	// Ownership is mandatory and runs first; nothing downstream can
	// reintroduce a foreign chunk.
	kept := make([]Candidate, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		if c.OwnerID != requester {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	if dropped > 0 {
		f.log.Warn("dropped foreign-owned candidates", "count", dropped, "user_id", requester)
	}

	if p.Role != nil {
		kept = filterInPlace(kept, func(c Candidate) bool {
			return c.Label != nil && c.Label.RhetoricalRole == *p.Role
		})
	}
	if p.MinConfidence != nil {
		min := p.MinConfidence.Rank()
		kept = filterInPlace(kept, func(c Candidate) bool {
			return c.confidence().Rank() >= min
		})
	}
	if p.MinCoverage != nil {
		kept = filterInPlace(kept, func(c Candidate) bool {
			return c.coverage() >= *p.MinCoverage
		})
	}

	// Similarity descending with coverage then chunk index as stable
	// tie-breaks; this ordering drives both the diversity walk and the
	// final truncation.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Similarity != kept[j].Similarity {
			return kept[i].Similarity > kept[j].Similarity
		}
		if kept[i].coverage() != kept[j].coverage() {
			return kept[i].coverage() > kept[j].coverage()
		}
		return kept[i].Index < kept[j].Index
	})

	if p.DiversityCap > 0 {
		perDoc := make(map[uuid.UUID]int, len(kept))
		capped := kept[:0]
		for _, c := range kept {
			if perDoc[c.DocumentID] >= p.DiversityCap {
				continue
			}
			perDoc[c.DocumentID]++
			capped = append(capped, c)
		}
		kept = capped
	}

	if len(kept) > p.TopK {
		kept = kept[:p.TopK]
	}
	return kept
}

func filterInPlace(in []Candidate, keep func(Candidate) bool) []Candidate {
	out := in[:0]
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
