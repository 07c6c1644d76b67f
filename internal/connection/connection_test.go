package connection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/queryforge/core/internal/models"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		dialect string
		id      string
		want    string
	}{
		{string(models.ConnectionClickHouse), "orders", "`orders`"},
		{string(models.ConnectionPostgres), "orders", `"orders"`},
		{string(models.ConnectionSQLite), "orders", `"orders"`},
	}
	for _, tt := range tests {
		if got := Quote(tt.dialect, tt.id); got != tt.want {
			t.Errorf("Quote(%q, %q) = %q, want %q", tt.dialect, tt.id, got, tt.want)
		}
	}
}

func TestOpenUnsupportedKind(t *testing.T) {
	_, err := Open(context.Background(), models.ConnectionKind("mongo"), models.ConnectionPayload{})
	if err == nil {
		t.Fatal("expected an error for an unsupported connection kind")
	}
}

func newTestSQLite(t *testing.T) EngineHandle {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	handle, err := Open(context.Background(), models.ConnectionSQLite, models.ConnectionPayload{Path: dbPath})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	t.Cleanup(func() { handle.Close() })
	return handle
}

func TestSQLiteDialect(t *testing.T) {
	h := newTestSQLite(t)
	if h.Dialect() != string(models.ConnectionSQLite) {
		t.Errorf("Dialect() = %q, want %q", h.Dialect(), models.ConnectionSQLite)
	}
}

func TestSQLiteListTablesAndExecute(t *testing.T) {
	ctx := context.Background()
	h := newTestSQLite(t)

	if _, err := h.Execute(ctx, `CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL)`, 0); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := h.Execute(ctx, `INSERT INTO orders (id, total) VALUES (1, 9.99), (2, 4.50)`, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tables, err := h.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 || tables[0] != "orders" {
		t.Errorf("ListTables() = %v, want [orders]", tables)
	}

	rows, err := h.Execute(ctx, `SELECT id, total FROM orders ORDER BY id`, 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows.Rows))
	}
	if rows.Rows[0]["id"] == nil {
		t.Error("expected id column to be scanned")
	}
}

func TestSQLiteSample(t *testing.T) {
	ctx := context.Background()
	h := newTestSQLite(t)

	if _, err := h.Execute(ctx, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, 0); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := h.Execute(ctx, `INSERT INTO widgets (name) VALUES ('w')`, 0); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := h.Sample(ctx, "widgets", 3)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(rows.Rows) != 3 {
		t.Errorf("Sample(n=3) returned %d rows, want 3", len(rows.Rows))
	}
}

func TestPoolAcquireReusesHandle(t *testing.T) {
	ctx := context.Background()
	pool := NewPool()
	defer pool.Close()

	dbPath := filepath.Join(t.TempDir(), "pooled.db")
	payload := models.ConnectionPayload{Path: dbPath}

	h1, err := pool.Acquire(ctx, "conn-1", models.ConnectionSQLite, payload)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h2, err := pool.Acquire(ctx, "conn-1", models.ConnectionSQLite, payload)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h1 != h2 {
		t.Error("Acquire with the same connection id should return the pooled handle, not open a new one")
	}
}

func TestPoolInvalidateClosesHandle(t *testing.T) {
	ctx := context.Background()
	pool := NewPool()
	defer pool.Close()

	dbPath := filepath.Join(t.TempDir(), "invalidate.db")
	payload := models.ConnectionPayload{Path: dbPath}

	h1, err := pool.Acquire(ctx, "conn-2", models.ConnectionSQLite, payload)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	pool.Invalidate("conn-2")
	if _, err := h1.ListTables(ctx); err == nil {
		t.Error("the handle dropped by Invalidate should be closed")
	}

	h2, err := pool.Acquire(ctx, "conn-2", models.ConnectionSQLite, payload)
	if err != nil {
		t.Fatalf("Acquire after Invalidate: %v", err)
	}
	if h1 == h2 {
		t.Error("Acquire after Invalidate should open a fresh handle")
	}
}
