package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// ErrSessionNotFound is returned for an unknown conversation ID.
var ErrSessionNotFound = errors.New("conversation not found")

// InMemoryDiagnosticLog keeps diagnostic entries in memory.
type InMemoryDiagnosticLog struct {
	mu      sync.RWMutex
	entries []models.UserStateEntry
}

// NewInMemoryDiagnosticLog creates an empty in-memory log.
func NewInMemoryDiagnosticLog() *InMemoryDiagnosticLog {
	return &InMemoryDiagnosticLog{}
}

func (l *InMemoryDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *InMemoryDiagnosticLog) Recent(ctx context.Context, limit int) ([]models.UserStateEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.UserStateEntry, 0, min(limit, len(l.entries)))
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

func (l *InMemoryDiagnosticLog) Close() error { return nil }

// session serialises turns of one conversation.
type session struct {
	mu    sync.Mutex
	state models.ConversationState
}

// InMemorySessionStore holds conversation state between turns.
// Turns on the same conversation run one at a time.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*session)}
}

// Create registers a new conversation with empty state.
func (s *InMemorySessionStore) Create(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{}
	slog.Debug("InMemorySessionStore Create", "conversationID", id)
}

func (s *InMemorySessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Get returns a snapshot of a conversation's state.
func (s *InMemorySessionStore) Get(id string) (models.ConversationState, error) {
	sess, ok := s.get(id)
	if !ok {
		return models.ConversationState{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}

// Update runs fn with the conversation's state while holding its lock and
// stores the returned state. If fn fails the state is left unchanged.
func (s *InMemorySessionStore) Update(id string, fn func(models.ConversationState) (models.ConversationState, error)) error {
	sess, ok := s.get(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next, err := fn(sess.state)
	if err != nil {
		return err
	}
	sess.state = next
	return nil
}

// Delete removes a conversation.
func (s *InMemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	slog.Debug("InMemorySessionStore Delete", "conversationID", id)
	return nil
}

// Len returns the number of open conversations.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
