package files

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.Course) (*domain.Course, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error)

	UpdateExtractionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
	// MarkEmbeddingStarted moves the course-level rollup to in_progress and
	// stamps the start time.
	MarkEmbeddingStarted(ctx context.Context, tx *gorm.DB, id uuid.UUID, startedAt time.Time) error
	MarkEmbeddingFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, finishedAt time.Time, lastError string) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.Course) (*domain.Course, error) {
	if row == nil {
		return nil, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*domain.Course
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *courseRepo) UpdateExtractionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Update("extraction_status", status).Error
}

func (r *courseRepo) MarkEmbeddingStarted(ctx context.Context, tx *gorm.DB, id uuid.UUID, startedAt time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding_status":      domain.EmbeddingStatusInProgress,
			"embedding_started_at":  startedAt,
			"embedding_finished_at": nil,
			"embedding_last_error":  "",
		}).Error
}

func (r *courseRepo) MarkEmbeddingFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, finishedAt time.Time, lastError string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding_status":      status,
			"embedding_finished_at": finishedAt,
			"embedding_last_error":  lastError,
		}).Error
}
