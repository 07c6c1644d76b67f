// Package connection implements C1, the Connection Abstraction: one
// EngineHandle per configured data source, opened lazily and pooled.
//
// Key design decision — no automatic schema reflection. Nothing here ever
// calls a driver's "describe everything" primitive, because ClickHouse has
// no information_schema.columns/tables/views/key_column_usage and issuing
// such a query against it produced the documented
// "Unknown table expression identifier 'COLUMNS'" failure. Each dialect
// file instead issues its own typed, dialect-appropriate statement for
// ListTables and Sample.
package connection

import (
	"context"
	"time"

	"fmt"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// Row is a single result row, column name to scanned value.
type Row map[string]interface{}

// Rows is the uniform result shape returned by Sample and Execute across
// all three dialects.
type Rows struct {
	Columns []string
	Rows    []Row
}

// EngineHandle is the dialect-agnostic contract the pipeline's
// prepare_context and process_query nodes drive. One concrete
// implementation exists per models.ConnectionKind.
type EngineHandle interface {
	Dialect() string
	ListTables(ctx context.Context) ([]string, error)
	Sample(ctx context.Context, table string, n int) (*Rows, error)
	Execute(ctx context.Context, sql string, limitRows int) (*Rows, error)
	Close() error
}

// OpenTimeout bounds the TCP/TLS handshake + auth step of Open.
const OpenTimeout = 10 * time.Second

// Open dials a fresh EngineHandle for the given kind and payload. Callers
// normally go through Pool.Acquire rather than calling Open directly, so
// that handles are reused across runs against the same connection id.
func Open(ctx context.Context, kind models.ConnectionKind, payload models.ConnectionPayload) (EngineHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, OpenTimeout)
	defer cancel()

	switch kind {
	case models.ConnectionSQLite:
		return openSQLite(ctx, payload)
	case models.ConnectionPostgres:
		return openPostgres(ctx, payload)
	case models.ConnectionClickHouse:
		return openClickHouse(ctx, payload)
	default:
		return nil, errors.New(errors.ErrConnectError, fmt.Sprintf("unsupported connection kind %q", kind))
	}
}

// Quote wraps identifier in the dialect-appropriate quote character:
// backticks for ClickHouse, double quotes for Postgres and sqlite.
func Quote(dialect, identifier string) string {
	if dialect == string(models.ConnectionClickHouse) {
		return "`" + identifier + "`"
	}
	return `"` + identifier + `"`
}
