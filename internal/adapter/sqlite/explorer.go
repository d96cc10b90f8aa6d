package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Explorer answers schema discovery over fixed internal queries against the
// read-only handle. pragma_* table-valued functions take the table name as a
// bound parameter, so no candidate text is ever interpolated.
type Explorer struct {
	db *sql.DB
}

func NewExplorer(db *sql.DB) *Explorer {
	return &Explorer{db: db}
}

const queryListTables = `
SELECT name, type
FROM sqlite_master
WHERE type IN ('table', 'view')
  AND name NOT LIKE 'sqlite_%'
ORDER BY name`

func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	rows, err := e.db.QueryContext(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []port.TableInfo
	for rows.Next() {
		var t port.TableInfo
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	for i := range tables {
		if tables[i].RowCount, err = e.rowCount(ctx, tables[i].Name); err != nil {
			return nil, err
		}
		cols, err := e.columns(ctx, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].ColumnCount = len(cols)
	}

	return tables, nil
}

func (e *Explorer) DescribeTable(ctx context.Context, name string) (*port.TableDetail, error) {
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	var exists int
	err := e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, name,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking table %s: %w", name, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}

	detail := &port.TableDetail{Name: name}

	if detail.Columns, err = e.columns(ctx, name); err != nil {
		return nil, err
	}
	if detail.ForeignKeys, err = e.foreignKeys(ctx, name); err != nil {
		return nil, err
	}
	if detail.Indexes, err = e.indexes(ctx, name); err != nil {
		return nil, err
	}
	if detail.RowCount, err = e.rowCount(ctx, name); err != nil {
		return nil, err
	}

	return detail, nil
}

func (e *Explorer) columns(ctx context.Context, table string) ([]port.ColumnInfo, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []port.ColumnInfo
	for rows.Next() {
		var (
			c       port.ColumnInfo
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&c.Name, &c.DataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		c.IsNullable = notNull == 0
		c.DefaultValue = dflt.String
		c.IsPrimaryKey = pk > 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (e *Explorer) foreignKeys(ctx context.Context, table string) ([]port.ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT "table", "from", "to" FROM pragma_foreign_key_list(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []port.ForeignKey
	for rows.Next() {
		var (
			fk port.ForeignKey
			to sql.NullString // NULL when the reference is to the parent's primary key
		)
		if err := rows.Scan(&fk.ReferencedTable, &fk.ColumnName, &to); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		fk.ReferencedColumn = to.String
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (e *Explorer) indexes(ctx context.Context, table string) ([]port.IndexInfo, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT name, "unique" FROM pragma_index_list(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var idxs []port.IndexInfo
	for rows.Next() {
		var (
			idx    port.IndexInfo
			unique int
		)
		if err := rows.Scan(&idx.Name, &unique); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		idx.IsUnique = unique == 1
		idxs = append(idxs, idx)
	}
	return idxs, rows.Err()
}

func (e *Explorer) rowCount(ctx context.Context, table string) (int64, error) {
	if !identRe.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	var n int64
	// Table names from sqlite_master, quoted; not candidate input.
	if err := e.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows of %s: %w", table, err)
	}
	return n, nil
}
