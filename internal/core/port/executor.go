package port

import "context"

// QueryExecutor runs an already-validated read statement and returns rows as
// column-name keyed maps.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) ([]map[string]any, error)
}

// StatementRunner executes an already-validated non-query statement. Only
// the scratch-table lifecycle uses it; the query path stays on the read-only
// executor.
type StatementRunner interface {
	Exec(ctx context.Context, sql string) error
}
