package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/khajiev13/lab-tutor-sub001/internal/conceptextract"
	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/envutil"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
)

// DocumentNode is the graph-side representation of one ingested document.
type DocumentNode struct {
	ID       string
	CourseID string
	Filename string
	Text     string
}

// ConceptGraphRepo exposes the idempotent write surface of the knowledge
// graph. Every write uses MERGE semantics keyed by document id and canonical
// concept name, so re-running the same insertion converges to the same state.
type ConceptGraphRepo interface {
	InitSchema(ctx context.Context) error

	UpsertDocument(ctx context.Context, doc DocumentNode) error
	UpsertMentions(ctx context.Context, documentID string, mentions []domain.ConceptMention) error

	SetDocumentEmbedding(ctx context.Context, documentID string, embedding []float32) error
	// SetMentionEmbeddings accepts the concept name in any casing and
	// normalizes it to the canonical key before matching.
	SetMentionEmbeddings(ctx context.Context, documentID string, conceptName string, definitionEmbedding, evidenceEmbedding []float32) error

	GetDocumentText(ctx context.Context, documentID string) (string, error)
	ListMentions(ctx context.Context, documentID string) ([]domain.ConceptMention, error)
}

type conceptGraphRepo struct {
	run        Runner
	log        *logger.Logger
	vectorDims int
}

func NewConceptGraphRepo(run Runner, baseLog *logger.Logger) ConceptGraphRepo {
	return &conceptGraphRepo{
		run:        run,
		log:        baseLog.With("repo", "ConceptGraphRepo"),
		vectorDims: envutil.Int("EMBEDDING_DIMENSIONS", 1536),
	}
}

func (r *conceptGraphRepo) UpsertDocument(ctx context.Context, doc DocumentNode) error {
	if doc.ID == "" {
		return fmt.Errorf("upsert document: missing id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return r.run.WriteTx(ctx, func(tx CypherTx) error {
		return tx.Run(ctx, `
MERGE (d:Document {id: $id})
ON CREATE SET d.created_at = $now
SET d.filename = $filename,
    d.course_id = $course_id,
    d.text = $text,
    d.updated_at = $now
`, map[string]any{
			"id":        doc.ID,
			"filename":  doc.Filename,
			"course_id": doc.CourseID,
			"text":      doc.Text,
			"now":       now,
		})
	})
}

func (r *conceptGraphRepo) UpsertMentions(ctx context.Context, documentID string, mentions []domain.ConceptMention) error {
	if documentID == "" {
		return fmt.Errorf("upsert mentions: missing document id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	rows := make([]map[string]any, 0, len(mentions))
	for _, m := range mentions {
		if m.CanonicalName == "" {
			continue
		}
		rows = append(rows, map[string]any{
			"canonical_name": m.CanonicalName,
			"original_name":  m.OriginalName,
			"definition":     m.Definition,
			"text_evidence":  m.TextEvidence,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	// Concept nodes are deduplicated globally by canonical name; the mention
	// relationship is keyed by the (document, concept) pair. Concept display
	// fields follow the latest write.
	return r.run.WriteTx(ctx, func(tx CypherTx) error {
		return tx.Run(ctx, `
UNWIND $mentions AS m
MATCH (d:Document {id: $document_id})
MERGE (c:Concept {name: m.canonical_name})
ON CREATE SET c.created_at = $now
SET c.original_name = m.original_name,
    c.updated_at = $now
MERGE (d)-[r:MENTIONS]->(c)
SET r.original_name = m.original_name,
    r.definition = m.definition,
    r.text_evidence = m.text_evidence,
    r.updated_at = $now
`, map[string]any{
			"document_id": documentID,
			"mentions":    rows,
			"now":         now,
		})
	})
}

func (r *conceptGraphRepo) SetDocumentEmbedding(ctx context.Context, documentID string, embedding []float32) error {
	if documentID == "" {
		return fmt.Errorf("set document embedding: missing document id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return r.run.WriteTx(ctx, func(tx CypherTx) error {
		return tx.Run(ctx, `
MATCH (d:Document {id: $id})
SET d.embedding = $embedding,
    d.embedded_at = $now
`, map[string]any{
			"id":        documentID,
			"embedding": vectorParam(embedding),
			"now":       now,
		})
	})
}

func (r *conceptGraphRepo) SetMentionEmbeddings(ctx context.Context, documentID string, conceptName string, definitionEmbedding, evidenceEmbedding []float32) error {
	if documentID == "" {
		return fmt.Errorf("set mention embeddings: missing document id")
	}
	canonical := conceptextract.CanonicalName(conceptName)
	if canonical == "" {
		return fmt.Errorf("set mention embeddings: empty concept name")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return r.run.WriteTx(ctx, func(tx CypherTx) error {
		return tx.Run(ctx, `
MATCH (d:Document {id: $document_id})-[r:MENTIONS]->(c:Concept {name: $canonical_name})
SET r.definition_embedding = $definition_embedding,
    r.evidence_embedding = $evidence_embedding,
    r.embedded_at = $now
`, map[string]any{
			"document_id":          documentID,
			"canonical_name":       canonical,
			"definition_embedding": vectorParam(definitionEmbedding),
			"evidence_embedding":   vectorParam(evidenceEmbedding),
			"now":                  now,
		})
	})
}

func (r *conceptGraphRepo) GetDocumentText(ctx context.Context, documentID string) (string, error) {
	records, err := r.run.Read(ctx, `
MATCH (d:Document {id: $id})
RETURN d.text AS text
`, map[string]any{"id": documentID})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("document %s not found in graph", documentID)
	}
	text, _ := records[0]["text"].(string)
	return text, nil
}

func (r *conceptGraphRepo) ListMentions(ctx context.Context, documentID string) ([]domain.ConceptMention, error) {
	records, err := r.run.Read(ctx, `
MATCH (d:Document {id: $id})-[r:MENTIONS]->(c:Concept)
RETURN c.name AS canonical_name,
       r.original_name AS original_name,
       r.definition AS definition,
       r.text_evidence AS text_evidence
ORDER BY canonical_name
`, map[string]any{"id": documentID})
	if err != nil {
		return nil, err
	}

	mentions := make([]domain.ConceptMention, 0, len(records))
	for _, rec := range records {
		m := domain.ConceptMention{DocumentID: documentID}
		m.CanonicalName, _ = rec["canonical_name"].(string)
		m.OriginalName, _ = rec["original_name"].(string)
		m.Definition, _ = rec["definition"].(string)
		m.TextEvidence, _ = rec["text_evidence"].(string)
		mentions = append(mentions, m)
	}
	return mentions, nil
}

// vectorParam converts an embedding to the float64 list shape the driver
// serializes.
func vectorParam(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
