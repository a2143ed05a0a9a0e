package adapters

import "context"

// DBAdapter begins transactions on the underlying connection pool.
// A read-only transaction may be served by a replica, see PGXAdapter.
type DBAdapter interface {
	BeginTx(ctx context.Context, readOnly bool) (DBTx, error)
}

// DBTx defines the interface for statements executed inside one transaction.
// Rows returned by Query must be closed before the next statement is issued.
type DBTx interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
