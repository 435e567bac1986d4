package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store. Records are copied in and out so callers
// never share state with it.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	turns    map[string]*Turn
	bySess   map[string][]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*Session),
		turns:    make(map[string]*Turn),
		bySess:   make(map[string][]string),
	}
}

func (m *Memory) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("create session %s: %w", s.ID, ErrAlreadyExists)
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.ID] = copySession(s)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	out := copySession(s)
	out.TurnCount = len(m.bySess[id])
	return out, nil
}

func (m *Memory) CreateTurn(_ context.Context, t *Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.turns[t.ID]; ok {
		return fmt.Errorf("create turn %s: %w", t.ID, ErrAlreadyExists)
	}
	sess, ok := m.sessions[t.SessionID]
	if !ok {
		return fmt.Errorf("create turn: session %s: %w", t.SessionID, ErrNotFound)
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.turns[t.ID] = copyTurn(t)
	m.bySess[t.SessionID] = append(m.bySess[t.SessionID], t.ID)
	sess.UpdatedAt = now
	return nil
}

func (m *Memory) UpdateTurn(_ context.Context, t *Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.turns[t.ID]
	if !ok {
		return fmt.Errorf("update turn %s: %w", t.ID, ErrNotFound)
	}
	t.SessionID = existing.SessionID
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	m.turns[t.ID] = copyTurn(t)
	return nil
}

func (m *Memory) GetTurn(_ context.Context, id string) (*Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.turns[id]
	if !ok {
		return nil, fmt.Errorf("get turn %s: %w", id, ErrNotFound)
	}
	return copyTurn(t), nil
}

func (m *Memory) ListTurns(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("list turns %s: %w", sessionID, ErrNotFound)
	}
	ids := m.bySess[sessionID]
	out := make([]Turn, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copyTurn(m.turns[id]))
	}
	return out, nil
}

func (m *Memory) Close(context.Context) error {
	return nil
}

func copySession(s *Session) *Session {
	c := *s
	c.Config = maps.Clone(s.Config)
	return &c
}

func copyTurn(t *Turn) *Turn {
	c := *t
	c.Attachments = slices.Clone(t.Attachments)
	c.UIContext = maps.Clone(t.UIContext)
	c.Messages = slices.Clone(t.Messages)
	c.Artifacts = slices.Clone(t.Artifacts)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
