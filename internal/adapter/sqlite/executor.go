package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Executor runs validated read statements against the read-only handle with
// a server-side row cap and per-query timeout.
type Executor struct {
	db           *sql.DB
	maxRows      int
	queryTimeout time.Duration
}

func NewExecutor(db *sql.DB, maxRows int, queryTimeout time.Duration) *Executor {
	return &Executor{
		db:           db,
		maxRows:      maxRows,
		queryTimeout: queryTimeout,
	}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	// EXPLAIN output cannot be wrapped in a subquery.
	wrapped := sqlText
	if !isExplain(sqlText) {
		wrapped = fmt.Sprintf("SELECT * FROM (%s) AS _q LIMIT %d", strings.TrimRight(strings.TrimSpace(sqlText), ";"), e.maxRows)
	}

	rows, err := e.db.QueryContext(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

func isExplain(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "EXPLAIN")
}

// Runner executes validated scratch-lifecycle statements on the pinned
// read-write connection.
type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}
