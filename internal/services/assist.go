package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/guidance"
	"github.com/sakshampandey1901/Cite/internal/pkg/errs"
	"github.com/sakshampandey1901/Cite/internal/platform/embedding"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/prompt"
	"github.com/sakshampandey1901/Cite/internal/repos"
	"github.com/sakshampandey1901/Cite/internal/retrieval"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// AssistRequest is one guidance query.
type AssistRequest struct {
	UserID            uuid.UUID
	Mode              types.TaskMode
	EditorContent     string
	AdditionalContext string
	// Optional trust filters forwarded to retrieval.
	Role          *types.RhetoricalRole
	MinConfidence *types.Confidence
	MinCoverage   *int
	TopK          int
}

// AssistResponse is the validated guidance plus everything the caller
// needs to show provenance.
type AssistResponse struct {
	Mode       types.TaskMode
	Text       string
	Sources    []string
	Validation guidance.Result
}

type AssistService interface {
	Assist(ctx context.Context, req AssistRequest) (*AssistResponse, error)
}

type AssistConfig struct {
	// FetchMultiplier oversamples the vector query so trust filtering
	// still has enough survivors to fill TopK.
	FetchMultiplier int
	DiversityCap    int
	// QueryTailRunes bounds how much trailing editor content seeds the
	// query embedding.
	QueryTailRunes int
}

func AssistConfigFromEnv() AssistConfig {
	return AssistConfig{
		FetchMultiplier: envutil.Int("ASSIST_FETCH_MULTIPLIER", 3),
		DiversityCap:    envutil.Int("ASSIST_DIVERSITY_CAP", 3),
		QueryTailRunes:  envutil.Int("ASSIST_QUERY_TAIL_RUNES", 500),
	}
}

type assistService struct {
	log       *logger.Logger
	cfg       AssistConfig
	chunks    repos.ChunkRepo
	labels    repos.ChunkLabelRepo
	embedder  embedding.Client
	store     VectorIndex
	filter    *retrieval.Filter
	assembler *prompt.Assembler
	completer guidance.Completer
	validator *guidance.Validator
}

func NewAssistService(
	baseLog *logger.Logger,
	cfg AssistConfig,
	chunks repos.ChunkRepo,
	labels repos.ChunkLabelRepo,
	embedder embedding.Client,
	store VectorIndex,
	filter *retrieval.Filter,
	assembler *prompt.Assembler,
	completer guidance.Completer,
	validator *guidance.Validator,
) AssistService {
	if cfg.FetchMultiplier <= 0 {
		cfg.FetchMultiplier = 3
	}
	if cfg.QueryTailRunes <= 0 {
		cfg.QueryTailRunes = 500
	}
	return &assistService{
		log:       baseLog.With("service", "AssistService"),
		cfg:       cfg,
		chunks:    chunks,
		labels:    labels,
		embedder:  embedder,
		store:     store,
		filter:    filter,
		assembler: assembler,
		completer: completer,
		validator: validator,
	}
}

func (s *assistService) Assist(ctx context.Context, req AssistRequest) (*AssistResponse, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", errs.ErrInvalidArgument)
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: task mode %q", errs.ErrInvalidArgument, req.Mode)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	start := time.Now()

	candidates, err := s.retrieve(ctx, req, topK)
	if err != nil {
		// Retrieval failure degrades to the no-context path; the prompt
		// then carries the explicit no-source block and validation
		// demands the uncertainty marker.
		s.log.Warn("retrieval failed, continuing without context", "user_id", req.UserID, "error", err)
		candidates = nil
	}

	selected := s.filter.Apply(req.UserID, candidates, retrieval.Params{
		Role:          req.Role,
		MinConfidence: req.MinConfidence,
		MinCoverage:   req.MinCoverage,
		DiversityCap:  s.cfg.DiversityCap,
		TopK:          topK,
	})

	layers, err := s.assembler.Build(prompt.Request{
		Mode:              req.Mode,
		EditorContent:     req.EditorContent,
		AdditionalContext: req.AdditionalContext,
		Sources:           selected,
	})
	if err != nil {
		return nil, err
	}

	sections := layers.Sections()
	raw, err := s.completer.Complete(ctx, sections[0], strings.Join(sections[1:], "\n---\n"))
	if err != nil {
		s.log.Warn("completion failed, using fallback", "mode", req.Mode, "error", err)
		raw = ""
	}

	text, result := s.validator.Finalize(ctx, layers, raw)

	s.log.Info("assist completed",
		"user_id", req.UserID,
		"mode", string(req.Mode),
		"sources", len(selected),
		"passed", result.Passed,
		"fallback", result.FallbackUsed,
		"took", time.Since(start).String(),
	)

	return &AssistResponse{
		Mode:       req.Mode,
		Text:       text,
		Sources:    layers.SourceNames(),
		Validation: result,
	}, nil
}

// retrieve embeds the query, searches the owner's namespace and joins
// stored labels onto the hits.
func (s *assistService) retrieve(ctx context.Context, req AssistRequest, topK int) ([]retrieval.Candidate, error) {
	query := s.queryText(req)
	if query == "" {
		return nil, nil
	}

	vector, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Search(ctx, req.UserID.String(), vector, topK*s.cfg.FetchMultiplier)
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.Candidate, 0, len(matches))
	for _, m := range matches {
		chunkID, err := uuid.Parse(m.ChunkID)
		if err != nil {
			s.log.Warn("skipping match with malformed chunk id", "id", m.ChunkID)
			continue
		}
		// A vector can outlive its row mid-deletion; drop stale hits.
		if ok, err := s.chunks.Exists(ctx, nil, chunkID); err != nil || !ok {
			if err != nil {
				s.log.Warn("chunk lookup failed, skipping match", "chunk_id", chunkID, "error", err)
			}
			continue
		}
		documentID, _ := uuid.Parse(m.DocumentID)

		var label *types.ChunkLabel
		if l, err := s.labels.Get(ctx, nil, chunkID); err == nil {
			label = l
		}

		// Owner comes from the label when present; the namespace search
		// already scopes by owner, the filter re-checks it anyway.
		ownerID := req.UserID
		if label != nil {
			ownerID = label.UserID
		}

		out = append(out, retrieval.Candidate{
			ChunkID:     chunkID,
			DocumentID:  documentID,
			OwnerID:     ownerID,
			SourceName:  m.SourceName,
			ContentType: types.ContentType(m.ContentType),
			Text:        m.Text,
			Index:       m.ChunkIndex,
			PageNumber:  m.PageNumber,
			Timestamp:   m.Timestamp,
			Similarity:  m.Similarity,
			Label:       label,
		})
	}
	return out, nil
}

func (s *assistService) queryText(req AssistRequest) string {
	editor := strings.TrimSpace(req.EditorContent)
	if runes := []rune(editor); len(runes) > s.cfg.QueryTailRunes {
		editor = string(runes[len(runes)-s.cfg.QueryTailRunes:])
	}
	extra := strings.TrimSpace(req.AdditionalContext)

	switch {
	case editor != "" && extra != "":
		return editor + "\n" + extra
	case editor != "":
		return editor
	case extra != "":
		return extra
	default:
		return string(req.Mode)
	}
}
