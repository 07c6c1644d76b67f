package connection

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// clickhouseHandle satisfies EngineHandle against a ClickHouse cluster.
// ClickHouse has no information_schema.tables/columns; metadata is read
// from system.tables only, per the dialect-isolation rule in connection.go.
type clickhouseHandle struct {
	db *sql.DB
}

func openClickHouse(ctx context.Context, payload models.ConnectionPayload) (EngineHandle, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", payload.Host, payload.Port)},
		Auth: clickhouse.Auth{
			Database: payload.Database,
			Username: payload.Username,
			Password: payload.Secret,
		},
	}
	if payload.TLS {
		opts.TLS = &tls.Config{}
	}

	db := clickhouse.OpenDB(opts)
	db.SetMaxOpenConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrConnectError, fmt.Sprintf("clickhouse handshake failed: %v", err))
	}

	return &clickhouseHandle{db: db}, nil
}

func (h *clickhouseHandle) Dialect() string { return string(models.ConnectionClickHouse) }

// ListTables queries system.tables exclusively. information_schema does not
// exist on ClickHouse and a prior integration against it produced
// "Unknown table expression identifier 'COLUMNS'" — this query must never
// be changed to information_schema.tables.
func (h *clickhouseHandle) ListTables(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT name FROM system.tables
		WHERE database != 'system'
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

func (h *clickhouseHandle) Sample(ctx context.Context, table string, n int) (*Rows, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", Quote(h.Dialect(), table), n)
	rows, err := h.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSchemaError)
	}
	defer rows.Close()
	return scanCapped(rows, 0)
}

func (h *clickhouseHandle) Execute(ctx context.Context, query string, limitRows int) (*Rows, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrQueryError)
	}
	defer rows.Close()
	return scanCapped(rows, limitRows)
}

func (h *clickhouseHandle) Close() error { return h.db.Close() }
