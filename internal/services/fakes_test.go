package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/data/graph"
	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// ---------------- in-memory repos ----------------

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[uuid.UUID]*domain.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[uuid.UUID]*domain.Course{}}
}

func (r *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.Course) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *row
	r.courses[row.ID] = &cp
	return row, nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCourseRepo) UpdateExtractionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[id]; ok {
		c.ExtractionStatus = status
	}
	return nil
}

func (r *fakeCourseRepo) MarkEmbeddingStarted(ctx context.Context, tx *gorm.DB, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[id]; ok {
		c.EmbeddingStatus = domain.EmbeddingStatusInProgress
		c.EmbeddingStartedAt = &startedAt
		c.EmbeddingFinishedAt = nil
		c.EmbeddingLastError = ""
	}
	return nil
}

func (r *fakeCourseRepo) MarkEmbeddingFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, finishedAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[id]; ok {
		c.EmbeddingStatus = status
		c.EmbeddingFinishedAt = &finishedAt
		c.EmbeddingLastError = lastError
	}
	return nil
}

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[uuid.UUID]*domain.CourseFile
	// embedding status history per file, for monotonicity assertions
	embeddingHistory map[uuid.UUID][]string
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		files:            map[uuid.UUID]*domain.CourseFile{},
		embeddingHistory: map[uuid.UUID][]string{},
	}
}

func (r *fakeFileRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.CourseFile) (*domain.CourseFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *row
	r.files[row.ID] = &cp
	return row, nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.CourseFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeFileRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*domain.CourseFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CourseFile
	for _, f := range r.files {
		if f.CourseID == courseID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) GetByContentHash(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, contentHash string) (*domain.CourseFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.CourseID == courseID && f.ContentHash == contentHash {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFileRepo) MarkProcessing(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		f.Status = domain.FileStatusProcessing
		f.LastError = ""
	}
	return nil
}

func (r *fakeFileRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, documentID string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		f.Status = domain.FileStatusProcessed
		f.DocumentID = documentID
		f.ProcessedAt = &processedAt
		f.LastError = ""
	}
	return nil
}

func (r *fakeFileRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		f.Status = domain.FileStatusFailed
		f.LastError = lastError
	}
	return nil
}

func (r *fakeFileRepo) UpdateEmbeddingStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, embeddedAt *time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s not found", id)
	}
	if !domain.EmbeddingTransitionAllowed(f.EmbeddingStatus, status) {
		return fmt.Errorf("illegal embedding transition %s -> %s", f.EmbeddingStatus, status)
	}
	f.EmbeddingStatus = status
	f.EmbeddedAt = embeddedAt
	f.EmbeddingLastError = lastError
	r.embeddingHistory[id] = append(r.embeddingHistory[id], status)
	return nil
}

func (r *fakeFileRepo) history(id uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.embeddingHistory[id]))
	copy(out, r.embeddingHistory[id])
	return out
}

// ---------------- fake graph repo ----------------

type graphCall struct {
	Op          string
	DocumentID  string
	ConceptName string
	Mentions    []domain.ConceptMention
	Vector      []float32
}

type fakeGraph struct {
	mu    sync.Mutex
	Calls []graphCall

	DocTexts    map[string]string
	DocMentions map[string][]domain.ConceptMention

	UpsertDocumentErr  error
	UpsertMentionsErr  error
	SetDocEmbeddingErr error
	// keyed by canonical concept name
	SetMentionEmbeddingsErr map[string]error
	GetDocumentTextErr      error
	ListMentionsErr         error

	// optional gate to hold GetDocumentText open, for single-flight tests
	TextGate chan struct{}
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		DocTexts:    map[string]string{},
		DocMentions: map[string][]domain.ConceptMention{},
	}
}

func (g *fakeGraph) record(c graphCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, c)
}

func (g *fakeGraph) callsFor(op string) []graphCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []graphCall
	for _, c := range g.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (g *fakeGraph) InitSchema(ctx context.Context) error {
	g.record(graphCall{Op: "InitSchema"})
	return nil
}

func (g *fakeGraph) UpsertDocument(ctx context.Context, doc graph.DocumentNode) error {
	g.record(graphCall{Op: "UpsertDocument", DocumentID: doc.ID})
	if g.UpsertDocumentErr != nil {
		return g.UpsertDocumentErr
	}
	g.mu.Lock()
	g.DocTexts[doc.ID] = doc.Text
	g.mu.Unlock()
	return nil
}

func (g *fakeGraph) UpsertMentions(ctx context.Context, documentID string, mentions []domain.ConceptMention) error {
	g.record(graphCall{Op: "UpsertMentions", DocumentID: documentID, Mentions: mentions})
	if g.UpsertMentionsErr != nil {
		return g.UpsertMentionsErr
	}
	g.mu.Lock()
	g.DocMentions[documentID] = mentions
	g.mu.Unlock()
	return nil
}

func (g *fakeGraph) SetDocumentEmbedding(ctx context.Context, documentID string, embedding []float32) error {
	g.record(graphCall{Op: "SetDocumentEmbedding", DocumentID: documentID, Vector: embedding})
	return g.SetDocEmbeddingErr
}

func (g *fakeGraph) SetMentionEmbeddings(ctx context.Context, documentID string, conceptName string, definitionEmbedding, evidenceEmbedding []float32) error {
	g.record(graphCall{Op: "SetMentionEmbeddings", DocumentID: documentID, ConceptName: conceptName, Vector: definitionEmbedding})
	if g.SetMentionEmbeddingsErr != nil {
		if err, ok := g.SetMentionEmbeddingsErr[conceptName]; ok {
			return err
		}
	}
	return nil
}

func (g *fakeGraph) GetDocumentText(ctx context.Context, documentID string) (string, error) {
	if g.TextGate != nil {
		<-g.TextGate
	}
	g.record(graphCall{Op: "GetDocumentText", DocumentID: documentID})
	if g.GetDocumentTextErr != nil {
		return "", g.GetDocumentTextErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	text, ok := g.DocTexts[documentID]
	if !ok {
		return "", fmt.Errorf("document %s not found in graph", documentID)
	}
	return text, nil
}

func (g *fakeGraph) ListMentions(ctx context.Context, documentID string) ([]domain.ConceptMention, error) {
	g.record(graphCall{Op: "ListMentions", DocumentID: documentID})
	if g.ListMentionsErr != nil {
		return nil, g.ListMentionsErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.DocMentions[documentID], nil
}

// ---------------- fake model boundary ----------------

type fakeAI struct {
	mu         sync.Mutex
	EmbedCalls [][]string
	EmbedFn    func(inputs []string) ([][]float32, error)
}

func (a *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	a.mu.Lock()
	a.EmbedCalls = append(a.EmbedCalls, inputs)
	a.mu.Unlock()
	if a.EmbedFn != nil {
		return a.EmbedFn(inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (a *fakeAI) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("not used in tests")
}

type fakeExtractor struct {
	Raws []domain.RawConcept
	Err  error
}

func (e *fakeExtractor) ExtractConcepts(ctx context.Context, text string) ([]domain.RawConcept, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Raws, nil
}
