package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/neo4jdb"
)

// Record is one row of a read query keyed by return alias.
type Record = map[string]any

// CypherTx is the statement surface available inside a write transaction.
type CypherTx interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Runner abstracts statement execution against the graph store so the
// repository stays testable with a recording substitute.
type Runner interface {
	// WriteTx runs fn inside one managed write transaction; either every
	// statement commits or none do.
	WriteTx(ctx context.Context, fn func(tx CypherTx) error) error
	// Read executes one read statement and collects its records.
	Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
	// Run executes one auto-commit statement. Schema DDL cannot run inside
	// an explicit transaction.
	Run(ctx context.Context, cypher string, params map[string]any) error
}

type neo4jRunner struct {
	client *neo4jdb.Client
}

func NewNeo4jRunner(client *neo4jdb.Client) Runner {
	return &neo4jRunner{client: client}
}

func (r *neo4jRunner) newSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.client.Database,
	})
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, cypher string, params map[string]any) error {
	res, err := m.tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func (r *neo4jRunner) WriteTx(ctx context.Context, fn func(tx CypherTx) error) error {
	session := r.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(managedTx{tx: tx})
	})
	return err
}

func (r *neo4jRunner) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := r.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var records []Record
		for res.Next(ctx) {
			records = append(records, res.Record().AsMap())
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	records, _ := out.([]Record)
	return records, nil
}

func (r *neo4jRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	session := r.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}
