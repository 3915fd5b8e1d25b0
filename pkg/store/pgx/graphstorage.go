package pgx

import (
	"context"
	"sync"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements the GraphStorage interface on PostgreSQL with
// pgvector for semantic search. Write paths are serialized with a mutex so
// that concurrent ingest workers keep the upsert merge semantics intact.
type GraphDBStorage struct {
	conn     pgxIConn
	aiClient ai.NarrativeAIClient
	dbLock   sync.Mutex
}

// NewGraphDBStorageWithConnection creates a new GraphDBStorage using an
// existing database connection or pool. The AI client generates embeddings
// for entities and episodes on write.
func NewGraphDBStorageWithConnection(
	ctx context.Context,
	conn pgxIConn,
	aiClient ai.NarrativeAIClient,
) (*GraphDBStorage, error) {
	return &GraphDBStorage{
		conn:     conn,
		aiClient: aiClient,
	}, nil
}
