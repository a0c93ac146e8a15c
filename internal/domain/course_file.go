package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseFile tracks one uploaded lecture document through extraction and
// embedding. DocumentID is the identifier of the Document node written to
// the graph; it is set once extraction succeeds.
type CourseFile struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	Filename    string `gorm:"column:filename;not null" json:"filename"`
	ContentType string `gorm:"column:content_type" json:"content_type"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`
	ContentHash string `gorm:"column:content_hash;index" json:"content_hash"`

	Status      string     `gorm:"column:status;not null;default:'uploaded'" json:"status"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	LastError   string     `gorm:"column:last_error" json:"last_error,omitempty"`
	DocumentID  string     `gorm:"column:document_id;index" json:"document_id,omitempty"`

	EmbeddingStatus    string     `gorm:"column:embedding_status;not null;default:'not_started'" json:"embedding_status"`
	EmbeddedAt         *time.Time `gorm:"column:embedded_at" json:"embedded_at,omitempty"`
	EmbeddingLastError string     `gorm:"column:embedding_last_error" json:"embedding_last_error,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseFile) TableName() string { return "course_file" }
