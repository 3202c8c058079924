package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakshampandey1901/Cite/internal/types"
)

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "doc",
		ContentType: types.ContentUnknown,
		Status:      types.DocumentReady,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, index int) *types.Chunk {
	tb.Helper()
	c := &types.Chunk{
		ID:         uuid.New(),
		DocumentID: documentID,
		Index:      index,
		Text:       "chunk text",
		TokenCount: 2,
		CharStart:  0,
		CharEnd:    10,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedLabel(tb testing.TB, ctx context.Context, tx *gorm.DB, chunk *types.Chunk, userID uuid.UUID) *types.ChunkLabel {
	tb.Helper()
	l := &types.ChunkLabel{
		ID:             uuid.New(),
		ChunkID:        chunk.ID,
		DocumentID:     chunk.DocumentID,
		UserID:         userID,
		RhetoricalRole: types.RoleUnknown,
		CoverageScore:  50,
		Confidence:     types.ConfidenceLow,
		IsAutoLabeled:  true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := l.SetTags(nil); err != nil {
		tb.Fatalf("seed label tags: %v", err)
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed label: %v", err)
	}
	return l
}
