package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// DB holds the two handles onto the sync database: a read-only pool for the
// query path and a single read-write connection for the scratch lifecycle.
// Scratch tables are TEMP tables, which SQLite scopes to a connection, so
// the write handle is pinned to one connection.
type DB struct {
	Read  *sql.DB
	Write *sql.DB
}

// Open opens the sync database at path and verifies both handles.
func Open(ctx context.Context, path string) (*DB, error) {
	read, err := open(ctx, path, true)
	if err != nil {
		return nil, err
	}

	write, err := open(ctx, path, false)
	if err != nil {
		read.Close()
		return nil, err
	}
	write.SetMaxOpenConns(1)

	return &DB{Read: read, Write: write}, nil
}

func open(ctx context.Context, path string, readOnly bool) (*sql.DB, error) {
	dsn := "file:" + url.PathEscape(path) + "?_pragma=busy_timeout(5000)"
	if readOnly {
		dsn += "&mode=ro&_pragma=query_only(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return db, nil
}

// Close closes both handles, returning the first error.
func (d *DB) Close() error {
	errRead := d.Read.Close()
	errWrite := d.Write.Close()
	if errRead != nil {
		return errRead
	}
	return errWrite
}
