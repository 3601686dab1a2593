// Package store provides storage backends for MoodPipe.
//
// It holds the append-only diagnostic log (file, SQLite, PostgreSQL or
// in-memory) and the in-memory conversation session store used by the
// bundled HTTP host.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DSN types recognised by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
	DSNTypeFile     = "file"
)

// sqlitePrefix marks an explicit SQLite DSN such as "sqlite:/var/lib/moodpipe/log.db".
const sqlitePrefix = "sqlite:"

// ErrDSNNotSet is returned when a backend is created without a DSN.
var ErrDSNNotSet = errors.New("database DSN not set")

// DiagnosticLog is an append-only record of mood/reason selections.
// Append must be safe for concurrent use.
type DiagnosticLog interface {
	Append(ctx context.Context, entry models.UserStateEntry) error
	Close() error
}

// DiagnosticReader is implemented by logs that can list recent entries.
type DiagnosticReader interface {
	Recent(ctx context.Context, limit int) ([]models.UserStateEntry, error)
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = strings.TrimPrefix(dsn, sqlitePrefix) }
}

// WithFilePath sets the path of a plain-text diagnostic log.
func WithFilePath(path string) Option {
	return func(o *Opts) { o.DSN = path }
}

// DetectDSNType classifies a DSN as postgres, sqlite or a plain file path.
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(d, "postgres://"), strings.HasPrefix(d, "postgresql://"), strings.Contains(d, "host="):
		return DSNTypePostgres
	case strings.HasPrefix(d, sqlitePrefix), strings.HasSuffix(d, ".db"), strings.HasSuffix(d, ".sqlite"), strings.HasSuffix(d, ".sqlite3"):
		return DSNTypeSQLite
	}
	return DSNTypeFile
}

// OpenDiagnosticLog opens the backend matching dsn. An empty dsn yields an
// in-memory log.
func OpenDiagnosticLog(dsn string) (DiagnosticLog, error) {
	if strings.TrimSpace(dsn) == "" {
		return NewInMemoryDiagnosticLog(), nil
	}
	switch DetectDSNType(dsn) {
	case DSNTypePostgres:
		return NewPostgresDiagnosticLog(WithPostgresDSN(dsn))
	case DSNTypeSQLite:
		return NewSQLiteDiagnosticLog(WithSQLiteDSN(dsn))
	}
	return NewFileDiagnosticLog(WithFilePath(dsn))
}
