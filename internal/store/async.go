package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DefaultQueueSize is the number of entries buffered by an AsyncDiagnosticLog.
const DefaultQueueSize = 256

// drainTimeout bounds the final flush after Run is cancelled.
const drainTimeout = 5 * time.Second

var (
	// ErrQueueFull is returned when an entry cannot be buffered.
	ErrQueueFull = errors.New("diagnostic queue full")
	// ErrLogClosed is returned by Append once Run has stopped.
	ErrLogClosed = errors.New("diagnostic log closed")
)

// AsyncDiagnosticLog buffers entries and writes them to a backing log from a
// single background loop, so a slow database never delays a turn.
type AsyncDiagnosticLog struct {
	next  DiagnosticLog
	queue chan models.UserStateEntry

	// mu orders Append against shutdown: every accepted entry is drained.
	mu     sync.RWMutex
	closed bool
}

// NewAsyncDiagnosticLog wraps next with a queue of the given size.
func NewAsyncDiagnosticLog(next DiagnosticLog, size int) *AsyncDiagnosticLog {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &AsyncDiagnosticLog{next: next, queue: make(chan models.UserStateEntry, size)}
}

// Append enqueues e without blocking. After Run has stopped it returns
// ErrLogClosed instead of accepting an entry that would never be written.
func (a *AsyncDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		slog.Warn("AsyncDiagnosticLog.Append: log closed, dropping entry", "conversationID", e.ConversationID)
		return ErrLogClosed
	}
	select {
	case a.queue <- e:
		return nil
	default:
		slog.Warn("AsyncDiagnosticLog.Append: queue full, dropping entry", "conversationID", e.ConversationID)
		return ErrQueueFull
	}
}

// Run writes queued entries until ctx is cancelled, then flushes what is left.
func (a *AsyncDiagnosticLog) Run(ctx context.Context) error {
	slog.Info("AsyncDiagnosticLog.Run: starting", "queueSize", cap(a.queue))
	for {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			a.closed = true
			a.mu.Unlock()
			a.drain()
			slog.Info("AsyncDiagnosticLog.Run: stopping")
			return nil
		case e := <-a.queue:
			a.write(ctx, e)
		}
	}
}

func (a *AsyncDiagnosticLog) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-a.queue:
			a.write(ctx, e)
		default:
			return
		}
	}
}

func (a *AsyncDiagnosticLog) write(ctx context.Context, e models.UserStateEntry) {
	if err := a.next.Append(ctx, e); err != nil {
		slog.Error("AsyncDiagnosticLog.write: append failed", "id", e.ID, "error", err)
	}
}

// Recent delegates to the backing log when it supports reads.
func (a *AsyncDiagnosticLog) Recent(ctx context.Context, limit int) ([]models.UserStateEntry, error) {
	if r, ok := a.next.(DiagnosticReader); ok {
		return r.Recent(ctx, limit)
	}
	return nil, nil
}

// Close closes the backing log. Call it after Run has returned.
func (a *AsyncDiagnosticLog) Close() error {
	return a.next.Close()
}
