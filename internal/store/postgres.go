// Package store provides storage backends for MoodPipe.
//
// This file implements a PostgreSQL-backed diagnostic log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresDiagnosticLog struct {
	db *sql.DB
}

// NewPostgresDiagnosticLog creates a new Postgres-backed log based on provided options.
func NewPostgresDiagnosticLog(opts ...Option) (*PostgresDiagnosticLog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresDiagnosticLog.New: creating Postgres log", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresDiagnosticLog DSN not set")
		return nil, ErrDSNNotSet
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for concurrent appends
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresDiagnosticLog{db: db}, nil
}

func (s *PostgresDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	e = ensureID(e)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_state_log (id, conversation_id, timestamp, mood, reason) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, nilIfEmpty(e.ConversationID), e.Timestamp.UTC(), e.Mood, e.Reason)
	if err != nil {
		slog.Error("PostgresDiagnosticLog Append failed", "error", err, "id", e.ID)
		return fmt.Errorf("failed to insert diagnostic entry %s: %w", e.ID, err)
	}
	slog.Debug("PostgresDiagnosticLog Append succeeded", "id", e.ID, "mood", e.Mood)
	return nil
}

func (s *PostgresDiagnosticLog) Recent(ctx context.Context, limit int) ([]models.UserStateEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, timestamp, mood, reason FROM user_state_log ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		slog.Error("PostgresDiagnosticLog Recent query failed", "error", err)
		return nil, fmt.Errorf("failed to query diagnostic entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close closes the Postgres database connection.
func (s *PostgresDiagnosticLog) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
