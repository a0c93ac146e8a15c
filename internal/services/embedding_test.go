package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
)

func newEmbedding(t *testing.T) (*embeddingService, *fakeCourseRepo, *fakeFileRepo, *fakeGraph, *fakeAI) {
	t.Helper()
	courses := newFakeCourseRepo()
	fileRepo := newFakeFileRepo()
	g := newFakeGraph()
	ai := &fakeAI{}
	svc := NewEmbeddingService(nil, testLogger(t), ai, g, courses, fileRepo).(*embeddingService)
	return svc, courses, fileRepo, g, ai
}

func seedProcessedFile(t *testing.T, fileRepo *fakeFileRepo, g *fakeGraph, courseID uuid.UUID) *domain.CourseFile {
	t.Helper()
	docID := uuid.New().String()
	now := time.Now().UTC()
	file := &domain.CourseFile{
		ID:              uuid.New(),
		CourseID:        courseID,
		Filename:        "lecture.txt",
		Status:          domain.FileStatusProcessed,
		DocumentID:      docID,
		ProcessedAt:     &now,
		EmbeddingStatus: domain.EmbeddingStatusNotStarted,
	}
	if _, err := fileRepo.Create(context.Background(), nil, file); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	g.DocTexts[docID] = "SQL lets you query tables."
	g.DocMentions[docID] = []domain.ConceptMention{
		{DocumentID: docID, CanonicalName: "sql", OriginalName: "SQL", Definition: "query language", TextEvidence: "SQL lets you query tables"},
		{DocumentID: docID, CanonicalName: "join", OriginalName: "Join", Definition: "combines rows", TextEvidence: "an inner join"},
	}
	return file
}

func TestEmbedDocumentHappyPath(t *testing.T) {
	svc, _, fileRepo, g, ai := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())

	if err := svc.EmbedDocument(context.Background(), file.ID); err != nil {
		t.Fatalf("EmbedDocument: %v", err)
	}

	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
	}) {
		t.Fatalf("status history = %v", got)
	}
	stored, _ := fileRepo.GetByID(context.Background(), nil, file.ID)
	if stored.EmbeddedAt == nil || stored.EmbeddingLastError != "" {
		t.Fatalf("stored row: %+v", stored)
	}

	if n := len(g.callsFor("SetDocumentEmbedding")); n != 1 {
		t.Fatalf("SetDocumentEmbedding calls = %d", n)
	}
	mentionWrites := g.callsFor("SetMentionEmbeddings")
	if len(mentionWrites) != 2 {
		t.Fatalf("SetMentionEmbeddings calls = %+v", mentionWrites)
	}
	// The graph layer canonicalizes; the service hands over the stored name.
	if mentionWrites[0].ConceptName != "SQL" || mentionWrites[1].ConceptName != "Join" {
		t.Fatalf("concept names = %q, %q", mentionWrites[0].ConceptName, mentionWrites[1].ConceptName)
	}
	// One embed call for the document text, one per mention pair.
	if len(ai.EmbedCalls) != 3 {
		t.Fatalf("embed calls = %d", len(ai.EmbedCalls))
	}
	if len(ai.EmbedCalls[1]) != 2 {
		t.Fatalf("mention embed inputs = %v", ai.EmbedCalls[1])
	}
}

func TestEmbedDocumentRequiresProcessedFile(t *testing.T) {
	svc, _, fileRepo, _, _ := newEmbedding(t)
	file := &domain.CourseFile{
		ID:              uuid.New(),
		CourseID:        uuid.New(),
		Status:          domain.FileStatusUploaded,
		EmbeddingStatus: domain.EmbeddingStatusNotStarted,
	}
	if _, err := fileRepo.Create(context.Background(), nil, file); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.EmbedDocument(context.Background(), file.ID)
	if err == nil || !strings.Contains(err.Error(), "no processed document") {
		t.Fatalf("err = %v", err)
	}
	if got := fileRepo.history(file.ID); len(got) != 0 {
		t.Fatalf("status history = %v", got)
	}
}

func TestEmbedDocumentTextLookupFailure(t *testing.T) {
	svc, _, fileRepo, g, _ := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())
	g.GetDocumentTextErr = errors.New("neo4j unavailable")

	err := svc.EmbedDocument(context.Background(), file.ID)
	if err == nil || !strings.Contains(err.Error(), "neo4j unavailable") {
		t.Fatalf("err = %v", err)
	}
	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusFailed,
	}) {
		t.Fatalf("status history = %v", got)
	}
	stored, _ := fileRepo.GetByID(context.Background(), nil, file.ID)
	if stored.EmbeddingLastError == "" {
		t.Fatalf("last error not recorded: %+v", stored)
	}
}

func TestEmbedDocumentMentionFailureIsBestEffort(t *testing.T) {
	svc, _, fileRepo, g, _ := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())
	g.SetMentionEmbeddingsErr = map[string]error{"SQL": errors.New("write refused")}

	err := svc.EmbedDocument(context.Background(), file.ID)
	if err == nil || !strings.Contains(err.Error(), "write refused") {
		t.Fatalf("err = %v", err)
	}

	// The second mention was still attempted after the first one failed.
	writes := g.callsFor("SetMentionEmbeddings")
	if len(writes) != 2 {
		t.Fatalf("SetMentionEmbeddings calls = %+v", writes)
	}
	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusFailed,
	}) {
		t.Fatalf("status history = %v", got)
	}
}

func TestEmbedDocumentRepeatRunDoesNotRegressCompleted(t *testing.T) {
	svc, _, fileRepo, g, _ := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())

	if err := svc.EmbedDocument(context.Background(), file.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := svc.EmbedDocument(context.Background(), file.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// The second run is a no-op: no completed -> in_progress regression.
	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
	}) {
		t.Fatalf("status history = %v", got)
	}
	if n := len(g.callsFor("SetDocumentEmbedding")); n != 1 {
		t.Fatalf("SetDocumentEmbedding calls = %d", n)
	}
}

func TestEmbedDocumentRetryAfterFailure(t *testing.T) {
	svc, _, fileRepo, g, _ := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())

	g.GetDocumentTextErr = errors.New("transient")
	if err := svc.EmbedDocument(context.Background(), file.ID); err == nil {
		t.Fatalf("expected first run to fail")
	}

	g.GetDocumentTextErr = nil
	if err := svc.EmbedDocument(context.Background(), file.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusFailed,
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
	}) {
		t.Fatalf("status history = %v", got)
	}
}

func TestEmbedDocumentSingleFlight(t *testing.T) {
	svc, _, fileRepo, g, _ := newEmbedding(t)
	file := seedProcessedFile(t, fileRepo, g, uuid.New())
	g.TextGate = make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.EmbedDocument(context.Background(), file.ID)
		}(i)
		// Let the first call park inside the run before the second joins it.
		time.Sleep(50 * time.Millisecond)
	}
	close(g.TextGate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if n := len(g.callsFor("GetDocumentText")); n != 1 {
		t.Fatalf("GetDocumentText calls = %d", n)
	}
	if got := fileRepo.history(file.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
	}) {
		t.Fatalf("status history = %v", got)
	}
}

func TestEmbedCourse(t *testing.T) {
	svc, courses, fileRepo, g, _ := newEmbedding(t)
	courseID := uuid.New()
	if _, err := courses.Create(context.Background(), nil, &domain.Course{ID: courseID, Name: "Databases"}); err != nil {
		t.Fatalf("create course: %v", err)
	}

	seedProcessedFile(t, fileRepo, g, courseID)
	seedProcessedFile(t, fileRepo, g, courseID)
	// Unprocessed files are skipped, not failed.
	if _, err := fileRepo.Create(context.Background(), nil, &domain.CourseFile{
		ID: uuid.New(), CourseID: courseID, Status: domain.FileStatusUploaded,
		EmbeddingStatus: domain.EmbeddingStatusNotStarted,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.EmbedCourse(context.Background(), courseID); err != nil {
		t.Fatalf("EmbedCourse: %v", err)
	}

	course, _ := courses.GetByID(context.Background(), nil, courseID)
	if course.EmbeddingStatus != domain.EmbeddingStatusCompleted {
		t.Fatalf("course embedding status = %q", course.EmbeddingStatus)
	}
	if course.EmbeddingStartedAt == nil || course.EmbeddingFinishedAt == nil {
		t.Fatalf("timestamps: %+v", course)
	}
	if n := len(g.callsFor("SetDocumentEmbedding")); n != 2 {
		t.Fatalf("SetDocumentEmbedding calls = %d", n)
	}
}

func TestEmbedCourseRerunSkipsCompletedDocuments(t *testing.T) {
	svc, courses, fileRepo, g, _ := newEmbedding(t)
	courseID := uuid.New()
	if _, err := courses.Create(context.Background(), nil, &domain.Course{ID: courseID, Name: "Databases"}); err != nil {
		t.Fatalf("create course: %v", err)
	}
	a := seedProcessedFile(t, fileRepo, g, courseID)
	b := seedProcessedFile(t, fileRepo, g, courseID)

	if err := svc.EmbedCourse(context.Background(), courseID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := svc.EmbedCourse(context.Background(), courseID); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if n := len(g.callsFor("SetDocumentEmbedding")); n != 2 {
		t.Fatalf("SetDocumentEmbedding calls = %d", n)
	}
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if got := fileRepo.history(id); !reflect.DeepEqual(got, []string{
			domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
		}) {
			t.Fatalf("file %s history = %v", id, got)
		}
	}
	course, _ := courses.GetByID(context.Background(), nil, courseID)
	if course.EmbeddingStatus != domain.EmbeddingStatusCompleted {
		t.Fatalf("course embedding status = %q", course.EmbeddingStatus)
	}
	// The second run was a no-op for the rollup as well.
	if course.EmbeddingFinishedAt == nil {
		t.Fatalf("rollup cycled: %+v", course)
	}
}

func TestEmbedCourseRecordsFirstFailure(t *testing.T) {
	svc, courses, fileRepo, g, _ := newEmbedding(t)
	courseID := uuid.New()
	if _, err := courses.Create(context.Background(), nil, &domain.Course{ID: courseID, Name: "Databases"}); err != nil {
		t.Fatalf("create course: %v", err)
	}
	bad := seedProcessedFile(t, fileRepo, g, courseID)
	good := seedProcessedFile(t, fileRepo, g, courseID)
	// The bad document's text is missing from the graph, so its run fails.
	delete(g.DocTexts, bad.DocumentID)

	err := svc.EmbedCourse(context.Background(), courseID)
	if err == nil || !strings.Contains(err.Error(), "not found in graph") {
		t.Fatalf("err = %v", err)
	}

	course, _ := courses.GetByID(context.Background(), nil, courseID)
	if course.EmbeddingStatus != domain.EmbeddingStatusFailed || course.EmbeddingLastError == "" {
		t.Fatalf("course after failure: %+v", course)
	}

	// The healthy document was still embedded.
	if got := fileRepo.history(good.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusCompleted,
	}) {
		t.Fatalf("good file history = %v", got)
	}
	if got := fileRepo.history(bad.ID); !reflect.DeepEqual(got, []string{
		domain.EmbeddingStatusInProgress, domain.EmbeddingStatusFailed,
	}) {
		t.Fatalf("bad file history = %v", got)
	}
}
