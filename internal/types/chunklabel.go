package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxTopicTags bounds the tag set on every write path, not just at
// classification time.
const MaxTopicTags = 3

// ChunkLabel carries the annotation for exactly one chunk.
type ChunkLabel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChunkID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"chunk_id"`
	Chunk          *Chunk         `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChunkID;references:ID" json:"chunk,omitempty"`
	DocumentID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	RhetoricalRole RhetoricalRole `gorm:"type:varchar(32);not null" json:"rhetorical_role"`
	TopicTags      datatypes.JSON `gorm:"type:jsonb" json:"topic_tags"`
	CoverageScore  int            `gorm:"not null" json:"coverage_score"`
	Confidence     Confidence     `gorm:"type:varchar(8);not null" json:"confidence"`
	IsAutoLabeled  bool           `gorm:"not null;default:true" json:"is_auto_labeled"`
	HumanVerified  bool           `gorm:"not null;default:false" json:"human_verified"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (ChunkLabel) TableName() string { return "chunk_label" }

// Tags decodes the stored tag list. A broken payload degrades to nil
// rather than failing the read.
func (l *ChunkLabel) Tags() []string {
	if len(l.TopicTags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(l.TopicTags, &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags normalizes and stores the tag list: duplicates removed in
// first-appearance order, truncated to MaxTopicTags.
func (l *ChunkLabel) SetTags(tags []string) error {
	norm := NormalizeTags(tags)
	raw, err := json.Marshal(norm)
	if err != nil {
		return err
	}
	l.TopicTags = datatypes.JSON(raw)
	return nil
}

// NormalizeTags enforces the tag invariants shared by the classifier
// and the label store.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, MaxTopicTags)
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTopicTags {
			break
		}
	}
	return out
}
