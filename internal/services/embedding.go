package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/data/graph"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/repos/files"
	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/apierr"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/openai"
)

// EmbeddingService drives embedding computation for processed documents and
// writes the vectors back through the graph repository. Per-document status
// follows not_started -> in_progress -> {completed | failed}; failed runs may
// be retried. A single-flight guard keyed by document id prevents concurrent
// duplicate runs.
type EmbeddingService interface {
	EmbedCourse(ctx context.Context, courseID uuid.UUID) error
	EmbedDocument(ctx context.Context, fileID uuid.UUID) error
}

type embeddingService struct {
	db  *gorm.DB
	log *logger.Logger

	ai         openai.Client
	graph      graph.ConceptGraphRepo
	courseRepo files.CourseRepo
	fileRepo   files.CourseFileRepo

	flight singleflight.Group
}

func NewEmbeddingService(
	db *gorm.DB,
	log *logger.Logger,
	ai openai.Client,
	graphRepo graph.ConceptGraphRepo,
	courseRepo files.CourseRepo,
	fileRepo files.CourseFileRepo,
) EmbeddingService {
	return &embeddingService{
		db:         db,
		log:        log.With("service", "EmbeddingService"),
		ai:         ai,
		graph:      graphRepo,
		courseRepo: courseRepo,
		fileRepo:   fileRepo,
	}
}

func (s *embeddingService) EmbedDocument(ctx context.Context, fileID uuid.UUID) error {
	file, err := s.fileRepo.GetByID(ctx, nil, fileID)
	if err != nil {
		return fmt.Errorf("embed: load file: %w", err)
	}
	if file == nil {
		return apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("embed: file %s not found", fileID))
	}
	if file.Status != domain.FileStatusProcessed || file.DocumentID == "" {
		return apierr.New(http.StatusConflict, "file_not_processed", fmt.Errorf("embed: file %s has no processed document", fileID))
	}
	// completed is terminal; a repeat invocation is a no-op, not a re-run.
	if file.EmbeddingStatus == domain.EmbeddingStatusCompleted {
		s.log.Debug("Document already embedded", "document_id", file.DocumentID)
		return nil
	}

	// Concurrent invocations for the same document join the in-flight run
	// instead of starting a duplicate.
	_, err, _ = s.flight.Do(file.DocumentID, func() (any, error) {
		return nil, s.embedDocument(ctx, file)
	})
	return err
}

func (s *embeddingService) embedDocument(ctx context.Context, file *domain.CourseFile) error {
	if err := s.fileRepo.UpdateEmbeddingStatus(ctx, nil, file.ID, domain.EmbeddingStatusInProgress, nil, ""); err != nil {
		return fmt.Errorf("embed: mark in_progress: %w", err)
	}

	text, err := s.graph.GetDocumentText(ctx, file.DocumentID)
	if err != nil {
		return s.failEmbedding(ctx, file, fmt.Errorf("load document text: %w", err))
	}

	vectors, err := s.ai.Embed(ctx, []string{text})
	if err != nil {
		return s.failEmbedding(ctx, file, fmt.Errorf("embed document text: %w", err))
	}
	if err := s.graph.SetDocumentEmbedding(ctx, file.DocumentID, vectors[0]); err != nil {
		return s.failEmbedding(ctx, file, fmt.Errorf("write document embedding: %w", err))
	}

	mentions, err := s.graph.ListMentions(ctx, file.DocumentID)
	if err != nil {
		return s.failEmbedding(ctx, file, fmt.Errorf("list mentions: %w", err))
	}

	// Best effort: one mention's failure must not discard embeddings already
	// committed for its siblings.
	var firstErr error
	for _, m := range mentions {
		pair, err := s.ai.Embed(ctx, []string{m.Definition, m.TextEvidence})
		if err != nil {
			s.log.Warn("Mention embedding failed (continuing)",
				"document_id", file.DocumentID, "concept", m.CanonicalName, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("embed mention %q: %w", m.CanonicalName, err)
			}
			continue
		}
		if err := s.graph.SetMentionEmbeddings(ctx, file.DocumentID, m.OriginalName, pair[0], pair[1]); err != nil {
			s.log.Warn("Mention embedding write failed (continuing)",
				"document_id", file.DocumentID, "concept", m.CanonicalName, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("write mention embeddings %q: %w", m.CanonicalName, err)
			}
		}
	}

	if firstErr != nil {
		return s.failEmbedding(ctx, file, firstErr)
	}

	now := time.Now().UTC()
	if err := s.fileRepo.UpdateEmbeddingStatus(ctx, nil, file.ID, domain.EmbeddingStatusCompleted, &now, ""); err != nil {
		return fmt.Errorf("embed: mark completed: %w", err)
	}
	s.log.Info("Embedded document", "document_id", file.DocumentID, "mentions", len(mentions))
	return nil
}

func (s *embeddingService) failEmbedding(ctx context.Context, file *domain.CourseFile, cause error) error {
	if err := s.fileRepo.UpdateEmbeddingStatus(ctx, nil, file.ID, domain.EmbeddingStatusFailed, nil, cause.Error()); err != nil {
		s.log.Error("Failed to record embedding error", "file_id", file.ID, "error", err)
	}
	return cause
}

func (s *embeddingService) EmbedCourse(ctx context.Context, courseID uuid.UUID) error {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("embed course: %w", err)
	}
	if course == nil {
		return apierr.New(http.StatusNotFound, "course_not_found", fmt.Errorf("embed course: course %s not found", courseID))
	}

	rows, err := s.fileRepo.GetByCourse(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("embed course: list files: %w", err)
	}

	pending := make([]*domain.CourseFile, 0, len(rows))
	for _, file := range rows {
		if file.Status != domain.FileStatusProcessed || file.DocumentID == "" {
			continue
		}
		if file.EmbeddingStatus == domain.EmbeddingStatusCompleted {
			continue
		}
		pending = append(pending, file)
	}

	// A completed course with no pending documents stays completed; re-running
	// must not cycle the rollup back through in_progress.
	if len(pending) == 0 && course.EmbeddingStatus == domain.EmbeddingStatusCompleted {
		s.log.Debug("Course already embedded", "course_id", courseID)
		return nil
	}

	if err := s.courseRepo.MarkEmbeddingStarted(ctx, nil, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("embed course: mark started: %w", err)
	}

	var firstErr error
	embedded := 0
	for _, file := range pending {
		if err := s.EmbedDocument(ctx, file.ID); err != nil {
			s.log.Warn("Document embedding failed (continuing course run)",
				"file_id", file.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		embedded++
	}

	if firstErr != nil {
		return s.failCourse(ctx, courseID, firstErr)
	}
	if err := s.courseRepo.MarkEmbeddingFinished(ctx, nil, courseID, domain.EmbeddingStatusCompleted, time.Now().UTC(), ""); err != nil {
		return fmt.Errorf("embed course: mark finished: %w", err)
	}
	s.log.Info("Embedded course", "course_id", courseID, "documents", embedded)
	return nil
}

func (s *embeddingService) failCourse(ctx context.Context, courseID uuid.UUID, cause error) error {
	if err := s.courseRepo.MarkEmbeddingFinished(ctx, nil, courseID, domain.EmbeddingStatusFailed, time.Now().UTC(), cause.Error()); err != nil {
		s.log.Error("Failed to record course embedding error", "course_id", courseID, "error", err)
	}
	return cause
}
