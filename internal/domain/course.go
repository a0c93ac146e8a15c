package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null" json:"name"`

	ExtractionStatus string `gorm:"column:extraction_status;not null;default:'not_started'" json:"extraction_status"`

	EmbeddingStatus     string         `gorm:"column:embedding_status;not null;default:'not_started'" json:"embedding_status"`
	EmbeddingStartedAt  *time.Time     `gorm:"column:embedding_started_at" json:"embedding_started_at,omitempty"`
	EmbeddingFinishedAt *time.Time     `gorm:"column:embedding_finished_at" json:"embedding_finished_at,omitempty"`
	EmbeddingLastError  string         `gorm:"column:embedding_last_error" json:"embedding_last_error,omitempty"`
	Metadata            datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }
