package pinecone

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
)

// VectorStore wraps the raw client with index-host resolution, owner
// namespacing, and metadata shaping. Vector IDs are chunk UUIDs.
type VectorStore struct {
	log       *logger.Logger
	client    Client
	indexName string
	dimension int

	mu   sync.Mutex
	host string
}

type StoreConfig struct {
	IndexName string
	Dimension int
}

func StoreConfigFromEnv() StoreConfig {
	return StoreConfig{
		IndexName: envutil.String("PINECONE_INDEX_NAME", "cite-chunks"),
		Dimension: envutil.Int("PINECONE_DIMENSION", 384),
	}
}

func NewVectorStore(baseLog *logger.Logger, client Client, cfg StoreConfig) (*VectorStore, error) {
	if client == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	if strings.TrimSpace(cfg.IndexName) == "" {
		return nil, fmt.Errorf("index name required")
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}
	return &VectorStore{
		log:       baseLog.With("service", "VectorStore"),
		client:    client,
		indexName: cfg.IndexName,
		dimension: cfg.Dimension,
	}, nil
}

// Entry is one chunk's vector plus the metadata that travels with it.
// Optional locators stay nil when absent and are then omitted from the
// written metadata entirely; the index rejects null metadata values.
type Entry struct {
	ChunkID     string
	DocumentID  string
	OwnerID     string
	SourceName  string
	ContentType string
	Text        string
	ChunkIndex  int
	PageNumber  *int
	Timestamp   *string
	Values      []float32
}

func (s *VectorStore) Upsert(ctx context.Context, ownerID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return err
	}

	vectors := make([]Vector, 0, len(entries))
	for _, e := range entries {
		if len(e.Values) != s.dimension {
			return fmt.Errorf("vector for chunk %s has dimension %d, want %d", e.ChunkID, len(e.Values), s.dimension)
		}
		vectors = append(vectors, Vector{
			ID:       e.ChunkID,
			Values:   e.Values,
			Metadata: buildMetadata(e),
		})
	}

	start := time.Now()
	resp, err := s.client.UpsertVectors(ctx, host, UpsertRequest{
		Vectors:   vectors,
		Namespace: namespaceFor(ownerID),
	})
	if err != nil {
		return err
	}
	s.log.Debug("vectors upserted",
		"owner_id", ownerID,
		"count", resp.UpsertedCount,
		"took", time.Since(start).String(),
	)
	return nil
}

// Match is one similarity hit with its metadata decoded.
type Match struct {
	ChunkID     string
	DocumentID  string
	SourceName  string
	ContentType string
	Text        string
	ChunkIndex  int
	PageNumber  *int
	Timestamp   *string
	Similarity  float64
}

// Search queries the owner's namespace. Results never cross
// namespaces, so a match can only come from the owner's own corpus.
func (s *VectorStore) Search(ctx context.Context, ownerID string, vector []float32, topK int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, want %d", len(vector), s.dimension)
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Query(ctx, host, QueryRequest{
		Namespace:       namespaceFor(ownerID),
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, decodeMatch(m))
	}
	return out, nil
}

func (s *VectorStore) Delete(ctx context.Context, ownerID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return err
	}
	return s.client.DeleteVectors(ctx, host, DeleteRequest{
		IDs:       chunkIDs,
		Namespace: namespaceFor(ownerID),
	})
}

func (s *VectorStore) resolveHost(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host != "" {
		return s.host, nil
	}

	desc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return "", fmt.Errorf("resolve index host: %w", err)
	}
	if desc.Dimension != 0 && desc.Dimension != s.dimension {
		return "", fmt.Errorf("index %q has dimension %d, want %d", s.indexName, desc.Dimension, s.dimension)
	}
	s.host = desc.Host
	return s.host, nil
}

func namespaceFor(ownerID string) string { return "owner-" + ownerID }

// buildMetadata writes only present fields. Absent optional locators
// are left out rather than written as nulls.
func buildMetadata(e Entry) map[string]any {
	md := map[string]any{
		"document_id":  e.DocumentID,
		"user_id":      e.OwnerID,
		"source_name":  e.SourceName,
		"content_type": e.ContentType,
		"text":         e.Text,
		"chunk_index":  float64(e.ChunkIndex),
	}
	if e.PageNumber != nil {
		md["page_number"] = float64(*e.PageNumber)
	}
	if e.Timestamp != nil && *e.Timestamp != "" {
		md["timestamp"] = *e.Timestamp
	}
	return md
}

func decodeMatch(m QueryMatch) Match {
	out := Match{ChunkID: m.ID, Similarity: m.Score}
	if m.Metadata == nil {
		return out
	}
	out.DocumentID = mdString(m.Metadata, "document_id")
	out.SourceName = mdString(m.Metadata, "source_name")
	out.ContentType = mdString(m.Metadata, "content_type")
	out.Text = mdString(m.Metadata, "text")
	if v, ok := m.Metadata["chunk_index"].(float64); ok {
		out.ChunkIndex = int(v)
	}
	if v, ok := m.Metadata["page_number"].(float64); ok {
		page := int(v)
		out.PageNumber = &page
	}
	if v := mdString(m.Metadata, "timestamp"); v != "" {
		out.Timestamp = &v
	}
	return out
}

func mdString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}
