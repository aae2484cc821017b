package loader

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Executor opens write transactions against a graph database.
type Executor interface {
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx is one open write transaction.
type Tx interface {
	Run(ctx context.Context, st Statement) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Neo4jConfig holds connection settings for a Neo4j server.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string // empty selects the server default
}

// Neo4jExecutor runs statements through the official Neo4j driver, one
// session per transaction.
type Neo4jExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Executor = (*Neo4jExecutor)(nil)

// NewNeo4jExecutor creates a driver for cfg and verifies connectivity.
func NewNeo4jExecutor(ctx context.Context, cfg Neo4jConfig) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: connect %s: %w", cfg.URI, err)
	}
	return &Neo4jExecutor{driver: driver, database: cfg.Database}, nil
}

// Begin opens a write session and an explicit transaction on it.
func (e *Neo4jExecutor) Begin(ctx context.Context) (Tx, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: e.database,
	})
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, fmt.Errorf("neo4j: begin transaction: %w", err)
	}
	return &neo4jTx{session: session, tx: tx}, nil
}

// Close releases the driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

type neo4jTx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
}

func (t *neo4jTx) Run(ctx context.Context, st Statement) error {
	res, err := t.tx.Run(ctx, st.Cypher, st.Params)
	if err != nil {
		return fmt.Errorf("neo4j: run: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("neo4j: consume: %w", err)
	}
	return nil
}

func (t *neo4jTx) Commit(ctx context.Context) error {
	defer t.session.Close(ctx)
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("neo4j: commit: %w", err)
	}
	return nil
}

func (t *neo4jTx) Rollback(ctx context.Context) error {
	defer t.session.Close(ctx)
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("neo4j: rollback: %w", err)
	}
	return nil
}
