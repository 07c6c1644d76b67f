package connection

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// sqliteHandle satisfies EngineHandle against an embedded dataset file.
// payload.Path is resolved by the caller against config.DatabaseConfig.SQLiteDir
// before reaching here.
type sqliteHandle struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, payload models.ConnectionPayload) (EngineHandle, error) {
	if payload.Path == "" {
		return nil, errors.New(errors.ErrConnectError, "sqlite connection requires a path")
	}

	db, err := sql.Open("sqlite", payload.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConnectError)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; one handle per connection id is enough

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrConnectError, fmt.Sprintf("sqlite open failed: %v", err))
	}

	return &sqliteHandle{db: db}, nil
}

func (h *sqliteHandle) Dialect() string { return string(models.ConnectionSQLite) }

func (h *sqliteHandle) ListTables(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSchemaError)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrSchemaError)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (h *sqliteHandle) Sample(ctx context.Context, table string, n int) (*Rows, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", Quote(h.Dialect(), table), n)
	rows, err := h.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSchemaError)
	}
	defer rows.Close()
	return scanCapped(rows, 0)
}

func (h *sqliteHandle) Execute(ctx context.Context, query string, limitRows int) (*Rows, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrQueryError)
	}
	defer rows.Close()
	return scanCapped(rows, limitRows)
}

func (h *sqliteHandle) Close() error { return h.db.Close() }
