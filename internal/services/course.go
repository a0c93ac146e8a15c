package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/data/repos/files"
	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/apierr"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
)

type CourseService interface {
	CreateCourse(ctx context.Context, name string, metadata datatypes.JSON) (*domain.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo files.CourseRepo
}

func NewCourseService(db *gorm.DB, log *logger.Logger, courseRepo files.CourseRepo) CourseService {
	return &courseService{
		db:         db,
		log:        log.With("service", "CourseService"),
		courseRepo: courseRepo,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, name string, metadata datatypes.JSON) (*domain.Course, error) {
	if name == "" {
		return nil, fmt.Errorf("create course: missing name")
	}
	row := &domain.Course{
		ID:               uuid.New(),
		Name:             name,
		ExtractionStatus: domain.EmbeddingStatusNotStarted,
		EmbeddingStatus:  domain.EmbeddingStatusNotStarted,
		Metadata:         metadata,
	}
	created, err := s.courseRepo.Create(ctx, nil, row)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info("Created course", "course_id", created.ID, "name", name)
	return created, nil
}

func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apierr.New(http.StatusNotFound, "course_not_found", fmt.Errorf("course %s not found", id))
	}
	return course, nil
}
