package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sakshampandey1901/Cite/internal/annotate/classifier"
	"github.com/sakshampandey1901/Cite/internal/annotate/scorer"
	"github.com/sakshampandey1901/Cite/internal/annotate/segmenter"
	"github.com/sakshampandey1901/Cite/internal/pkg/errs"
	"github.com/sakshampandey1901/Cite/internal/platform/embedding"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/platform/pinecone"
	"github.com/sakshampandey1901/Cite/internal/repos"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// Page is one pre-extracted unit of source text. Number locates pages
// of paginated sources; Timestamp locates transcript segments. Both
// zero for plain text.
type Page struct {
	Number    int
	Timestamp string
	Text      string
}

// IngestRequest carries one document's extracted text into the
// pipeline. Either Text or Pages is set; Pages wins when both are.
type IngestRequest struct {
	UserID      uuid.UUID
	Title       string
	ContentType types.ContentType
	Text        string
	Pages       []Page
}

// VectorIndex is the slice of the vector store the services need.
// Satisfied by *pinecone.VectorStore.
type VectorIndex interface {
	Upsert(ctx context.Context, ownerID string, entries []pinecone.Entry) error
	Search(ctx context.Context, ownerID string, vector []float32, topK int) ([]pinecone.Match, error)
	Delete(ctx context.Context, ownerID string, chunkIDs []string) error
}

type IngestionService interface {
	// Ingest runs the full pipeline: create the document, segment,
	// annotate, persist and index. The returned document is in status
	// ready on success and failed after any pipeline error.
	Ingest(ctx context.Context, req IngestRequest) (*types.Document, error)
	// Delete removes a document and everything derived from it. Blocks
	// until any in-flight ingest of the same document has finished, so
	// a late annotator can never resurrect removed rows.
	Delete(ctx context.Context, documentID, userID uuid.UUID) error
}

type IngestionConfig struct {
	Segment segmenter.Params
	// Workers bounds concurrent chunk annotation.
	Workers int
	// EmbedBatch bounds how many chunk texts go to the embedding
	// endpoint per call.
	EmbedBatch int
}

func IngestionConfigFromEnv() IngestionConfig {
	return IngestionConfig{
		Segment: segmenter.Params{
			MaxTokens:     envutil.Int("SEGMENT_MAX_TOKENS", segmenter.DefaultMaxTokens),
			OverlapTokens: envutil.Int("SEGMENT_OVERLAP_TOKENS", segmenter.DefaultOverlapTokens),
		},
		Workers:    envutil.Int("INGEST_WORKERS", 8),
		EmbedBatch: envutil.Int("INGEST_EMBED_BATCH", 64),
	}
}

type ingestionService struct {
	log        *logger.Logger
	cfg        IngestionConfig
	docs       repos.DocumentRepo
	chunks     repos.ChunkRepo
	labels     repos.ChunkLabelRepo
	seg        *segmenter.Segmenter
	cls        *classifier.Classifier
	score      *scorer.Scorer
	embedder   embedding.Client
	store      VectorIndex
	inflightMu sync.Mutex
	inflight   map[uuid.UUID]chan struct{}
}

func NewIngestionService(
	baseLog *logger.Logger,
	cfg IngestionConfig,
	docs repos.DocumentRepo,
	chunks repos.ChunkRepo,
	labels repos.ChunkLabelRepo,
	seg *segmenter.Segmenter,
	cls *classifier.Classifier,
	score *scorer.Scorer,
	embedder embedding.Client,
	store VectorIndex,
) IngestionService {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.EmbedBatch <= 0 {
		cfg.EmbedBatch = 64
	}
	if cfg.Segment.MaxTokens <= 0 {
		cfg.Segment = segmenter.DefaultParams()
	}
	return &ingestionService{
		log:      baseLog.With("service", "IngestionService"),
		cfg:      cfg,
		docs:     docs,
		chunks:   chunks,
		labels:   labels,
		seg:      seg,
		cls:      cls,
		score:    score,
		embedder: embedder,
		store:    store,
		inflight: make(map[uuid.UUID]chan struct{}),
	}
}

func (s *ingestionService) Ingest(ctx context.Context, req IngestRequest) (*types.Document, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", errs.ErrInvalidArgument)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Pages) == 0 {
		return nil, fmt.Errorf("%w: empty document text", errs.ErrInvalidArgument)
	}

	contentType := req.ContentType
	if contentType == "" || contentType == types.ContentUnknown {
		contentType = inferContentType(title, firstText(req))
	}

	doc := &types.Document{
		UserID:      req.UserID,
		Title:       title,
		ContentType: contentType,
		Status:      types.DocumentUploaded,
	}
	if err := s.docs.Create(ctx, nil, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.markInflight(doc.ID)
	defer s.clearInflight(doc.ID)

	if err := s.docs.UpdateStatus(ctx, nil, doc.ID, types.DocumentProcessing); err != nil {
		return nil, err
	}
	doc.Status = types.DocumentProcessing

	if err := s.process(ctx, doc, req); err != nil {
		if stErr := s.docs.UpdateStatus(context.WithoutCancel(ctx), nil, doc.ID, types.DocumentFailed); stErr != nil {
			s.log.Error("failed to mark document failed", "document_id", doc.ID, "error", stErr)
		}
		doc.Status = types.DocumentFailed
		return doc, err
	}

	if err := s.docs.UpdateStatus(ctx, nil, doc.ID, types.DocumentReady); err != nil {
		return doc, err
	}
	doc.Status = types.DocumentReady
	return doc, nil
}

func (s *ingestionService) process(ctx context.Context, doc *types.Document, req IngestRequest) error {
	start := time.Now()

	frags, err := s.segment(req)
	if err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	if len(frags) == 0 {
		return fmt.Errorf("%w: document produced no fragments", errs.ErrInvalidArgument)
	}

	chunks := make([]*types.Chunk, len(frags))
	for i, f := range frags {
		chunks[i] = &types.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Index:      f.Index,
			Text:       f.Text,
			TokenCount: f.TokenCount,
			CharStart:  f.CharStart,
			CharEnd:    f.CharEnd,
			PageNumber: f.PageNumber,
			Timestamp:  f.Timestamp,
		}
	}
	if err := s.chunks.CreateBatch(ctx, nil, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	labels, err := s.annotate(ctx, doc, chunks)
	if err != nil {
		return err
	}

	outcomes := s.labels.BatchUpsert(ctx, labels)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			s.log.Warn("label upsert failed", "chunk_id", o.ChunkID, "error", o.Err)
		}
	}
	if failed == len(outcomes) {
		return fmt.Errorf("all %d label upserts failed", failed)
	}

	if err := s.index(ctx, doc, chunks); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}

	s.log.Info("document ingested",
		"document_id", doc.ID,
		"user_id", doc.UserID,
		"chunks", len(chunks),
		"labels_failed", failed,
		"took", time.Since(start).String(),
	)
	return nil
}

func (s *ingestionService) segment(req IngestRequest) ([]segmenter.Fragment, error) {
	if len(req.Pages) == 0 {
		return s.seg.Segment(req.Text, s.cfg.Segment)
	}

	var out []segmenter.Fragment
	for _, page := range req.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		var frags []segmenter.Fragment
		var err error
		if page.Number > 0 {
			frags, err = s.seg.SegmentPage(page.Text, s.cfg.Segment, page.Number, len(out))
		} else {
			frags, err = s.seg.Segment(page.Text, s.cfg.Segment)
			for i := range frags {
				frags[i].Index = len(out) + i
			}
		}
		if err != nil {
			return nil, err
		}
		if page.Timestamp != "" {
			for i := range frags {
				ts := page.Timestamp
				frags[i].Timestamp = &ts
			}
		}
		out = append(out, frags...)
	}
	return out, nil
}

// annotate classifies and scores every chunk through a bounded worker
// pool. Each slot is index-addressed so workers never contend.
func (s *ingestionService) annotate(ctx context.Context, doc *types.Document, chunks []*types.Chunk) ([]*types.ChunkLabel, error) {
	labels := make([]*types.ChunkLabel, len(chunks))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			res := s.cls.Classify(chunk.Text)
			ann := s.score.Score(chunk.Text, res)

			label := &types.ChunkLabel{
				ID:             uuid.New(),
				ChunkID:        chunk.ID,
				DocumentID:     doc.ID,
				UserID:         doc.UserID,
				RhetoricalRole: ann.Role,
				CoverageScore:  ann.CoverageScore,
				Confidence:     ann.Confidence,
				IsAutoLabeled:  true,
			}
			if err := label.SetTags(ann.TopicTags); err != nil {
				return err
			}
			labels[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("annotate chunks: %w", err)
	}
	return labels, nil
}

func (s *ingestionService) index(ctx context.Context, doc *types.Document, chunks []*types.Chunk) error {
	for start := 0; start < len(chunks); start += s.cfg.EmbedBatch {
		end := start + s.cfg.EmbedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}

		entries := make([]pinecone.Entry, len(batch))
		for i, c := range batch {
			entries[i] = pinecone.Entry{
				ChunkID:     c.ID.String(),
				DocumentID:  doc.ID.String(),
				OwnerID:     doc.UserID.String(),
				SourceName:  doc.Title,
				ContentType: string(doc.ContentType),
				Text:        c.Text,
				ChunkIndex:  c.Index,
				PageNumber:  c.PageNumber,
				Timestamp:   c.Timestamp,
				Values:      vectors[i],
			}
		}
		if err := s.store.Upsert(ctx, doc.UserID.String(), entries); err != nil {
			return err
		}
	}
	return nil
}

func (s *ingestionService) Delete(ctx context.Context, documentID, userID uuid.UUID) error {
	doc, err := s.docs.GetForUser(ctx, nil, documentID, userID)
	if err != nil {
		return err
	}

	if err := s.waitInflight(ctx, documentID); err != nil {
		return err
	}

	chunks, err := s.chunks.GetByDocument(ctx, nil, documentID)
	if err != nil {
		return err
	}

	// Vectors go first; a failure here leaves the document intact and
	// retryable instead of leaving orphaned vectors behind.
	if len(chunks) > 0 {
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = c.ID.String()
		}
		if err := s.store.Delete(ctx, doc.UserID.String(), ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}

	if err := s.labels.DeleteForDocument(ctx, nil, documentID); err != nil {
		return err
	}
	if err := s.chunks.DeleteForDocument(ctx, nil, documentID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, nil, documentID); err != nil {
		return err
	}

	s.log.Info("document deleted", "document_id", documentID, "user_id", userID, "chunks", len(chunks))
	return nil
}

func (s *ingestionService) markInflight(documentID uuid.UUID) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	s.inflight[documentID] = make(chan struct{})
}

func (s *ingestionService) clearInflight(documentID uuid.UUID) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if done, ok := s.inflight[documentID]; ok {
		close(done)
		delete(s.inflight, documentID)
	}
}

func (s *ingestionService) waitInflight(ctx context.Context, documentID uuid.UUID) error {
	s.inflightMu.Lock()
	done, ok := s.inflight[documentID]
	s.inflightMu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstText(req IngestRequest) string {
	if req.Text != "" {
		return req.Text
	}
	for _, p := range req.Pages {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// Transcript cue lines look like "00:12:45" or "[00:12]".
var timestampLineRE = regexp.MustCompile(`(?m)^\[?\d{1,2}:\d{2}(:\d{2})?\]?\s`)

// inferContentType guesses the source kind from title and leading
// text. Unknown is a valid outcome, not an error.
func inferContentType(title, text string) types.ContentType {
	t := strings.ToLower(title)
	head := strings.ToLower(text)
	if len(head) > 2000 {
		head = head[:2000]
	}

	switch {
	case strings.Contains(t, "transcript") || strings.Contains(head, "[music]") || timestampLineRE.MatchString(text):
		return types.ContentVideoTranscript
	case strings.Contains(t, "lecture"):
		return types.ContentLectureNotes
	case strings.Contains(head, "abstract") && strings.Contains(head, "references"):
		return types.ContentResearchPaper
	case strings.Contains(t, "chapter"):
		return types.ContentBookExcerpt
	case strings.Contains(t, "notes"):
		return types.ContentPersonalNotes
	case len(strings.Fields(text)) > 100:
		return types.ContentArticle
	default:
		return types.ContentUnknown
	}
}
