package connection

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// postgresHandle satisfies EngineHandle against a user-owned Postgres
// database (not the core's own metadata Postgres — a distinct DSN per
// Connection). Its own pool is fixed at 10 open and 2 idle connections,
// with no connection lifetime set.
type postgresHandle struct {
	db *sql.DB
}

func openPostgres(ctx context.Context, payload models.ConnectionPayload) (EngineHandle, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		payload.Host, payload.Port, payload.Database, payload.Username, payload.Secret, sslMode(payload.TLS))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConnectError)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrConnectError, fmt.Sprintf("postgres handshake failed: %v", err))
	}

	return &postgresHandle{db: db}, nil
}

func sslMode(tls bool) string {
	if tls {
		return "require"
	}
	return "disable"
}

func (h *postgresHandle) Dialect() string { return string(models.ConnectionPostgres) }

func (h *postgresHandle) ListTables(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
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

func (h *postgresHandle) Sample(ctx context.Context, table string, n int) (*Rows, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", Quote(h.Dialect(), table), n)
	return h.query(ctx, q)
}

func (h *postgresHandle) Execute(ctx context.Context, query string, limitRows int) (*Rows, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrQueryError)
	}
	defer rows.Close()
	return scanCapped(rows, limitRows)
}

func (h *postgresHandle) query(ctx context.Context, query string) (*Rows, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrQueryError)
	}
	defer rows.Close()
	return scanCapped(rows, 0)
}

func (h *postgresHandle) Close() error { return h.db.Close() }
