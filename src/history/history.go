package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Role labels a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in a session. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrInvalidSession is returned for empty or whitespace-only session keys.
var ErrInvalidSession = errors.New("invalid session key")

// Store is an append-only per-session turn log.
//
// Append adds turns to the end of the session's sequence; passing several
// turns appends them under one critical section, so concurrent callers
// cannot interleave inside the batch. Recent returns up to limit trailing
// turns in chronological order; unknown-but-valid sessions read as empty.
// Clear removes a session and is idempotent.
type Store interface {
	Append(ctx context.Context, sessionKey string, turns ...Turn) error
	Recent(ctx context.Context, sessionKey string, limit int) ([]Turn, error)
	Clear(ctx context.Context, sessionKey string) error
}

// ValidateSessionKey rejects empty and whitespace-only keys.
func ValidateSessionKey(sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return ErrInvalidSession
	}
	return nil
}

// MemoryStore implements Store in process, with per-session serialization.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	mu    sync.Mutex
	turns []Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionLog)}
}

func (m *MemoryStore) session(sessionKey string, create bool) *sessionLog {
	m.mu.RLock()
	s := m.sessions[sessionKey]
	m.mu.RUnlock()
	if s != nil || !create {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s = m.sessions[sessionKey]; s == nil {
		s = &sessionLog{}
		m.sessions[sessionKey] = s
	}
	return s
}

func (m *MemoryStore) Append(_ context.Context, sessionKey string, turns ...Turn) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}
	s := m.session(sessionKey, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range turns {
		if t.Timestamp.IsZero() {
			t.Timestamp = now
		}
		s.turns = append(s.turns, t)
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, sessionKey string, limit int) ([]Turn, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	s := m.session(sessionKey, false)
	if s == nil {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.turns) - limit
	if start < 0 {
		start = 0
	}
	return append([]Turn(nil), s.turns[start:]...), nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionKey string) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey)
	return nil
}

var _ Store = (*MemoryStore)(nil)
