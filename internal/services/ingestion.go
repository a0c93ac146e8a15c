package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/conceptextract"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/graph"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/repos/files"
	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/filekind"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/envutil"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/textextract"
)

// UploadFile carries one uploaded document through ingestion: raw bytes plus
// the name and declared content type the client sent.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IngestionService runs the structural pipeline for uploaded lecture
// documents: classify, extract text, extract concepts, canonicalize, write
// to the graph. A failure in one file never aborts the rest of a batch.
type IngestionService interface {
	IngestFile(ctx context.Context, courseID uuid.UUID, file UploadFile) (*domain.CourseFile, error)
	IngestBatch(ctx context.Context, courseID uuid.UUID, uploads []UploadFile) ([]*domain.CourseFile, error)
}

type ingestionService struct {
	db  *gorm.DB
	log *logger.Logger

	extractor  conceptextract.Extractor
	graph      graph.ConceptGraphRepo
	courseRepo files.CourseRepo
	fileRepo   files.CourseFileRepo

	maxUploadBytes int64
}

func NewIngestionService(
	db *gorm.DB,
	log *logger.Logger,
	extractor conceptextract.Extractor,
	graphRepo graph.ConceptGraphRepo,
	courseRepo files.CourseRepo,
	fileRepo files.CourseFileRepo,
) IngestionService {
	return &ingestionService{
		db:             db,
		log:            log.With("service", "IngestionService"),
		extractor:      extractor,
		graph:          graphRepo,
		courseRepo:     courseRepo,
		fileRepo:       fileRepo,
		maxUploadBytes: int64(envutil.Int("MAX_UPLOAD_MB", 64)) << 20,
	}
}

func (s *ingestionService) IngestFile(ctx context.Context, courseID uuid.UUID, upload UploadFile) (*domain.CourseFile, error) {
	if courseID == uuid.Nil {
		return nil, fmt.Errorf("ingest: missing course id")
	}
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("ingest: empty file %q", upload.Filename)
	}

	sum := sha256.Sum256(upload.Data)
	contentHash := hex.EncodeToString(sum[:])

	// Identical bytes already processed for this course short-circuit to the
	// earlier result instead of re-running the model.
	if existing, err := s.fileRepo.GetByContentHash(ctx, nil, courseID, contentHash); err != nil {
		return nil, fmt.Errorf("ingest: dedupe lookup: %w", err)
	} else if existing != nil && existing.Status == domain.FileStatusProcessed {
		s.log.Info("Skipping already-processed upload", "filename", upload.Filename, "file_id", existing.ID)
		return existing, nil
	}

	row := &domain.CourseFile{
		ID:              uuid.New(),
		CourseID:        courseID,
		Filename:        upload.Filename,
		ContentType:     upload.ContentType,
		SizeBytes:       int64(len(upload.Data)),
		ContentHash:     contentHash,
		Status:          domain.FileStatusUploaded,
		EmbeddingStatus: domain.EmbeddingStatusNotStarted,
	}
	if _, err := s.fileRepo.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("ingest: create file row: %w", err)
	}

	// An oversized file fails on its own row; it never rejects the batch.
	if s.maxUploadBytes > 0 && row.SizeBytes > s.maxUploadBytes {
		return row, s.fail(ctx, row, fmt.Errorf("file exceeds upload limit of %d bytes", s.maxUploadBytes))
	}

	kind, err := filekind.Classify(upload.Filename, upload.ContentType)
	if err != nil {
		// Classification errors surface immediately; nothing reaches the graph.
		return row, s.fail(ctx, row, err)
	}

	if err := s.fileRepo.MarkProcessing(ctx, nil, row.ID); err != nil {
		return row, fmt.Errorf("ingest: mark processing: %w", err)
	}
	row.Status = domain.FileStatusProcessing

	text, err := textextract.Extract(kind, upload.Data)
	if err != nil {
		return row, s.fail(ctx, row, fmt.Errorf("extract text: %w", err))
	}

	raws, err := s.extractor.ExtractConcepts(ctx, text)
	if err != nil {
		return row, s.fail(ctx, row, fmt.Errorf("extract concepts: %w", err))
	}

	documentID := uuid.New().String()
	mentions := conceptextract.BuildMentions(documentID, raws)

	doc := graph.DocumentNode{
		ID:       documentID,
		CourseID: courseID.String(),
		Filename: upload.Filename,
		Text:     text,
	}
	if err := s.graph.UpsertDocument(ctx, doc); err != nil {
		return row, s.fail(ctx, row, fmt.Errorf("graph upsert document: %w", err))
	}
	if err := s.graph.UpsertMentions(ctx, documentID, mentions); err != nil {
		return row, s.fail(ctx, row, fmt.Errorf("graph upsert mentions: %w", err))
	}

	now := time.Now().UTC()
	if err := s.fileRepo.MarkProcessed(ctx, nil, row.ID, documentID, now); err != nil {
		return row, fmt.Errorf("ingest: mark processed: %w", err)
	}
	row.Status = domain.FileStatusProcessed
	row.DocumentID = documentID
	row.ProcessedAt = &now

	s.log.Info("Ingested file", "filename", upload.Filename, "kind", kind,
		"mentions", len(mentions), "document_id", documentID)
	return row, nil
}

func (s *ingestionService) IngestBatch(ctx context.Context, courseID uuid.UUID, uploads []UploadFile) ([]*domain.CourseFile, error) {
	if err := s.courseRepo.UpdateExtractionStatus(ctx, nil, courseID, domain.EmbeddingStatusInProgress); err != nil {
		return nil, fmt.Errorf("ingest batch: mark course: %w", err)
	}

	rows := make([]*domain.CourseFile, 0, len(uploads))
	anyFailed := false
	for _, upload := range uploads {
		row, err := s.IngestFile(ctx, courseID, upload)
		if err != nil {
			anyFailed = true
			s.log.Warn("File ingestion failed (continuing batch)",
				"filename", upload.Filename, "error", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	status := domain.EmbeddingStatusCompleted
	if anyFailed {
		status = domain.EmbeddingStatusFailed
	}
	if err := s.courseRepo.UpdateExtractionStatus(ctx, nil, courseID, status); err != nil {
		return rows, fmt.Errorf("ingest batch: update course status: %w", err)
	}
	return rows, nil
}

// fail records the per-file error and returns it; the caller decides whether
// the surrounding batch continues.
func (s *ingestionService) fail(ctx context.Context, row *domain.CourseFile, cause error) error {
	row.Status = domain.FileStatusFailed
	row.LastError = cause.Error()
	if err := s.fileRepo.MarkFailed(ctx, nil, row.ID, cause.Error()); err != nil {
		s.log.Error("Failed to record file error", "file_id", row.ID, "error", err)
	}
	return cause
}
