package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/data/repos/files"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/apierr"
)

// FileStatus is the per-file slice of the course status payload.
type FileStatus struct {
	ID                 uuid.UUID  `json:"id"`
	Filename           string     `json:"filename"`
	Status             string     `json:"status"`
	ContentHash        string     `json:"content_hash"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
	DocumentID         string     `json:"document_id,omitempty"`
	EmbeddingStatus    string     `json:"embedding_status"`
	EmbeddedAt         *time.Time `json:"embedded_at,omitempty"`
	EmbeddingLastError string     `json:"embedding_last_error,omitempty"`
}

// CourseStatus is the per-course extraction/embedding report served to the
// frontend.
type CourseStatus struct {
	CourseID            uuid.UUID    `json:"course_id"`
	ExtractionStatus    string       `json:"extraction_status"`
	EmbeddingStatus     string       `json:"embedding_status"`
	EmbeddingStartedAt  *time.Time   `json:"embedding_started_at,omitempty"`
	EmbeddingFinishedAt *time.Time   `json:"embedding_finished_at,omitempty"`
	EmbeddingLastError  string       `json:"embedding_last_error,omitempty"`
	Files               []FileStatus `json:"files"`
}

type CourseStatusService interface {
	GetCourseStatus(ctx context.Context, courseID uuid.UUID) (*CourseStatus, error)
}

type courseStatusService struct {
	db         *gorm.DB
	courseRepo files.CourseRepo
	fileRepo   files.CourseFileRepo
}

func NewCourseStatusService(db *gorm.DB, courseRepo files.CourseRepo, fileRepo files.CourseFileRepo) CourseStatusService {
	return &courseStatusService{db: db, courseRepo: courseRepo, fileRepo: fileRepo}
}

func (s *courseStatusService) GetCourseStatus(ctx context.Context, courseID uuid.UUID) (*CourseStatus, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apierr.New(http.StatusNotFound, "course_not_found", fmt.Errorf("course %s not found", courseID))
	}

	rows, err := s.fileRepo.GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}

	out := &CourseStatus{
		CourseID:            course.ID,
		ExtractionStatus:    course.ExtractionStatus,
		EmbeddingStatus:     course.EmbeddingStatus,
		EmbeddingStartedAt:  course.EmbeddingStartedAt,
		EmbeddingFinishedAt: course.EmbeddingFinishedAt,
		EmbeddingLastError:  course.EmbeddingLastError,
		Files:               make([]FileStatus, 0, len(rows)),
	}
	for _, f := range rows {
		out.Files = append(out.Files, FileStatus{
			ID:                 f.ID,
			Filename:           f.Filename,
			Status:             f.Status,
			ContentHash:        f.ContentHash,
			ProcessedAt:        f.ProcessedAt,
			LastError:          f.LastError,
			DocumentID:         f.DocumentID,
			EmbeddingStatus:    f.EmbeddingStatus,
			EmbeddedAt:         f.EmbeddedAt,
			EmbeddingLastError: f.EmbeddingLastError,
		})
	}
	return out, nil
}
