package types

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string         `gorm:"not null" json:"title"`
	ContentType ContentType    `gorm:"type:varchar(32);not null;default:'unknown'" json:"content_type"`
	Status      DocumentStatus `gorm:"type:varchar(16);not null;default:'uploaded'" json:"status"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
