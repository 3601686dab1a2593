package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DefaultFilePermissions defines the permissions for a new diagnostic log file
const DefaultFilePermissions = 0644

// FileDiagnosticLog appends tab-separated lines to a text file.
type FileDiagnosticLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFileDiagnosticLog opens (or creates) the log file in append mode.
func NewFileDiagnosticLog(opts ...Option) (*FileDiagnosticLog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, ErrDSNNotSet
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create diagnostic log directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create diagnostic log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.DSN, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DefaultFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostic log %s: %w", cfg.DSN, err)
	}
	slog.Debug("FileDiagnosticLog opened", "path", cfg.DSN)
	return &FileDiagnosticLog{path: cfg.DSN, f: f}, nil
}

// Append writes one line per entry in a single write call.
func (l *FileDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	line := e.String() + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", l.path, err)
	}
	return nil
}

func (l *FileDiagnosticLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
