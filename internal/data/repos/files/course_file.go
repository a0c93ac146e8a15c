package files

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
)

type CourseFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.CourseFile) (*domain.CourseFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.CourseFile, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*domain.CourseFile, error)
	// GetByContentHash finds an earlier upload of identical bytes within the
	// same course, the dedupe key for re-uploads.
	GetByContentHash(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, contentHash string) (*domain.CourseFile, error)

	MarkProcessing(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, documentID string, processedAt time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error

	UpdateEmbeddingStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, embeddedAt *time.Time, lastError string) error
}

type courseFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseFileRepo(db *gorm.DB, baseLog *logger.Logger) CourseFileRepo {
	return &courseFileRepo{db: db, log: baseLog.With("repo", "CourseFileRepo")}
}

func (r *courseFileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseFileRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.CourseFile) (*domain.CourseFile, error) {
	if row == nil {
		return nil, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *courseFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.CourseFile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*domain.CourseFile
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *courseFileRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*domain.CourseFile, error) {
	var out []*domain.CourseFile
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseFileRepo) GetByContentHash(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, contentHash string) (*domain.CourseFile, error) {
	if courseID == uuid.Nil || contentHash == "" {
		return nil, nil
	}
	var out []*domain.CourseFile
	if err := r.conn(tx).WithContext(ctx).
		Where("course_id = ? AND content_hash = ?", courseID, contentHash).
		Order("created_at ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *courseFileRepo) MarkProcessing(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.CourseFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.FileStatusProcessing,
			"last_error": "",
		}).Error
}

func (r *courseFileRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, documentID string, processedAt time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.CourseFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.FileStatusProcessed,
			"document_id":  documentID,
			"processed_at": processedAt,
			"last_error":   "",
		}).Error
}

func (r *courseFileRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.CourseFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.FileStatusFailed,
			"last_error": lastError,
		}).Error
}

func (r *courseFileRepo) UpdateEmbeddingStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, embeddedAt *time.Time, lastError string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.CourseFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding_status":     status,
			"embedded_at":          embeddedAt,
			"embedding_last_error": lastError,
		}).Error
}
