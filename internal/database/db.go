package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/errors"
)

// DB holds the core's own metadata database connection pool — the
// Postgres instance storing users/connections/agents/chat_sessions/
// messages/message_embeddings/runs/cached_answers. It is distinct from the
// per-Connection EngineHandles in internal/connection, which point at
// user-owned data sources.
type DB struct {
	*sql.DB
}

// NewConnection creates a new database connection pool
func NewConnection(cfg *config.Config) (*DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New(errors.ErrMissingEnvVar, "DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.New(errors.ErrDatabaseError, fmt.Sprintf("Failed to open database connection: %v", err))
	}

	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var lastErr error
	for i := 0; i < 3; i++ {
		if err := db.PingContext(ctx); err != nil {
			lastErr = err
			log.Printf("Database connection attempt %d/3 failed: %v", i+1, err)
			if i < 2 {
				time.Sleep(2 * time.Second)
				continue
			}
		} else {
			lastErr = nil
			break
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, errors.New(errors.ErrDatabaseError, fmt.Sprintf("Failed to connect to database after 3 attempts: %v", lastErr))
	}

	log.Println("Successfully connected to PostgreSQL metadata database")

	return &DB{db}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Migrate applies the schema in schema.go. Unlike the teacher, which
// deferred entirely to external init scripts, the core ships its own
// idempotent DDL because it must also provision the pgvector extension and
// the HNSW index on message_embeddings.
func (db *DB) Migrate() error {
	_, err := db.Exec(Schema)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	log.Println("Schema migration applied")
	return nil
}

// Transaction helper for executing operations in a transaction
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}

	return nil
}

func NullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func NullTimeToTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func StringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func TimeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// CleanupExpiredSessions removes expired sessions from the database.
// No process in this module calls it on a schedule; expired sessions are
// otherwise deleted one at a time when ValidateSession meets them.
func (db *DB) CleanupExpiredSessions() error {
	_, err := db.Exec(`DELETE FROM user_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}
