package graph

import (
	"context"
	"fmt"
	"strings"
)

// schemaOutcome classifies the result of one schema statement so callers
// branch on value instead of matching store-specific exception classes.
type schemaOutcome int

const (
	schemaOK schemaOutcome = iota
	schemaAlreadyExists
	schemaUnsupported
	schemaStoreError
)

type schemaStatement struct {
	name   string
	cypher string
	// relationship-scoped vector indexes are not supported by every store
	// version; their failure must not abort the rest of the schema.
	relationshipVector bool
}

func (r *conceptGraphRepo) schemaStatements() []schemaStatement {
	vectorOptions := fmt.Sprintf(
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		r.vectorDims,
	)
	return []schemaStatement{
		{
			name:   "document_id_unique",
			cypher: `CREATE CONSTRAINT document_id_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
		},
		{
			name:   "concept_name_unique",
			cypher: `CREATE CONSTRAINT concept_name_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.name IS UNIQUE`,
		},
		{
			name: "document_embedding_index",
			cypher: `CREATE VECTOR INDEX document_embedding_index IF NOT EXISTS FOR (d:Document) ON (d.embedding) ` +
				vectorOptions,
		},
		{
			name: "mention_definition_embedding_index",
			cypher: `CREATE VECTOR INDEX mention_definition_embedding_index IF NOT EXISTS FOR ()-[r:MENTIONS]-() ON (r.definition_embedding) ` +
				vectorOptions,
			relationshipVector: true,
		},
		{
			name: "mention_evidence_embedding_index",
			cypher: `CREATE VECTOR INDEX mention_evidence_embedding_index IF NOT EXISTS FOR ()-[r:MENTIONS]-() ON (r.evidence_embedding) ` +
				vectorOptions,
			relationshipVector: true,
		},
	}
}

// InitSchema idempotently ensures uniqueness constraints and vector indexes.
// "Already exists" is not an error; an unsupported index kind is logged as a
// warning and the remaining statements still run.
func (r *conceptGraphRepo) InitSchema(ctx context.Context) error {
	for _, stmt := range r.schemaStatements() {
		err := r.run.Run(ctx, stmt.cypher, nil)
		switch classifySchemaError(err) {
		case schemaOK:
		case schemaAlreadyExists:
			r.log.Debug("Schema element already exists", "name", stmt.name)
		case schemaUnsupported:
			if stmt.relationshipVector {
				r.log.Warn("relationship vector index not supported by this store (skipping)",
					"name", stmt.name, "error", err)
			} else {
				r.log.Warn("schema element not supported by this store (skipping)",
					"name", stmt.name, "error", err)
			}
		default:
			return fmt.Errorf("init schema %s: %w", stmt.name, err)
		}
	}
	return nil
}

func classifySchemaError(err error) schemaOutcome {
	if err == nil {
		return schemaOK
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "equivalentschemarule") ||
		strings.Contains(msg, "constraintalreadyexists") ||
		strings.Contains(msg, "indexalreadyexists"):
		return schemaAlreadyExists
	case strings.Contains(msg, "not supported") ||
		strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "invalid input"):
		return schemaUnsupported
	default:
		return schemaStoreError
	}
}
