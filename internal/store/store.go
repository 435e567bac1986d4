// Package store persists creative sessions and their turns for the mock backend.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested session or turn does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a record with the same ID was already created.
	ErrAlreadyExists = errors.New("already exists")
)

// Session groups the turns of one creative.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Config    map[string]any `json:"config,omitempty"`
	TurnCount int            `json:"turn_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Attachment is an uploaded asset referenced by a turn.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}

// Message is one message produced for a turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Turn is a single user submission and the backend's work on it.
type Turn struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Status      string         `json:"status"`
	UserText    string         `json:"user_text"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	UIContext   map[string]any `json:"ui_context,omitempty"`
	Messages    []Message      `json:"messages,omitempty"`
	Artifacts   []string       `json:"artifacts,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Store is the persistence contract shared by the memory and SurrealDB backends.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	CreateTurn(ctx context.Context, t *Turn) error
	UpdateTurn(ctx context.Context, t *Turn) error
	GetTurn(ctx context.Context, id string) (*Turn, error)
	// ListTurns returns the session's turns, oldest first.
	ListTurns(ctx context.Context, sessionID string) ([]Turn, error)
	Close(ctx context.Context) error
}
