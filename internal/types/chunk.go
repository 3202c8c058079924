package types

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one bounded, token-limited fragment of a document's text.
// Immutable once created; removed by cascade when its document goes.
type Chunk struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Index      int       `gorm:"column:index;not null" json:"index"`
	Text       string    `gorm:"column:text;not null" json:"text"`
	TokenCount int       `gorm:"not null" json:"token_count"`
	CharStart  int       `gorm:"not null" json:"char_start"`
	CharEnd    int       `gorm:"not null" json:"char_end"`
	// Source locator: page for paginated sources, timestamp for
	// transcripts. Either or both may be absent.
	PageNumber *int      `json:"page_number,omitempty"`
	Timestamp  *string   `json:"timestamp,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Chunk) TableName() string { return "chunk" }
