// Package store provides storage backends for MoodPipe.
//
// This file implements an SQLite-backed diagnostic log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteDiagnosticLog struct {
	db *sql.DB
}

// NewSQLiteDiagnosticLog creates a new SQLite-backed log with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteDiagnosticLog(opts ...Option) (*SQLiteDiagnosticLog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteDiagnosticLog invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteDiagnosticLog DSN not set")
		return nil, ErrDSNNotSet
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "path", dsn)

	return &SQLiteDiagnosticLog{db: db}, nil
}

func (s *SQLiteDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	e = ensureID(e)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_state_log (id, conversation_id, timestamp, mood, reason) VALUES (?, ?, ?, ?, ?)`,
		e.ID, nilIfEmpty(e.ConversationID), e.Timestamp.UTC(), e.Mood, e.Reason)
	if err != nil {
		slog.Error("SQLiteDiagnosticLog Append failed", "error", err, "id", e.ID)
		return fmt.Errorf("failed to insert diagnostic entry %s: %w", e.ID, err)
	}
	slog.Debug("SQLiteDiagnosticLog Append succeeded", "id", e.ID, "mood", e.Mood)
	return nil
}

func (s *SQLiteDiagnosticLog) Recent(ctx context.Context, limit int) ([]models.UserStateEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, timestamp, mood, reason FROM user_state_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		slog.Error("SQLiteDiagnosticLog Recent query failed", "error", err)
		return nil, fmt.Errorf("failed to query diagnostic entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close closes the SQLite database connection.
func (s *SQLiteDiagnosticLog) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
