package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caselight/backend/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStore implements store.GraphStore on PostgreSQL. Row invariants
// (self-loops, duplicate edge triples, duplicate entity links) are enforced
// by table constraints; constraint violations surface as errors from the
// insert methods.
type GraphDBStore struct {
	conn pgxIConn
}

// NewGraphDBStore creates a store on an existing connection or pool.
func NewGraphDBStore(conn pgxIConn) *GraphDBStore {
	return &GraphDBStore{conn: conn}
}

// RunInTx executes fn inside a database transaction. The store passed to fn
// writes through the transaction; a non-nil error rolls everything back.
func (s *GraphDBStore) RunInTx(ctx context.Context, fn func(tx store.Store) error) error {
	dbTx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if err := fn(&GraphDBStore{conn: dbTx}); err != nil {
		return err
	}
	return dbTx.Commit(ctx)
}

var _ store.GraphStore = (*GraphDBStore)(nil)
