package gateway

import (
	"encoding/json"
	"time"
)

// Turn statuses reported by the backend. A turn is active while pending or running.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// IsActive reports whether a turn with the given status may still change.
func IsActive(status string) bool {
	return status == StatusPending || status == StatusRunning
}

// Attachment describes an uploaded asset sent with a turn.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}

// CreateTurnRequest is the body of POST /api/v1/turns. A nil SessionID asks
// the backend to open a new session.
type CreateTurnRequest struct {
	SessionID     *string        `json:"session_id"`
	UserText      string         `json:"user_text"`
	Attachments   []Attachment   `json:"attachments,omitempty"`
	UIContext     map[string]any `json:"ui_context,omitempty"`
	TitleIfNew    string         `json:"title_if_new,omitempty"`
	SessionConfig map[string]any `json:"session_config,omitempty"`
}

// TurnRef identifies a created turn.
type TurnRef struct {
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
	Status    string `json:"status,omitempty"`
}

// TurnMessage is one message of a turn. Backends send either content or text.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Body returns the message text regardless of which field carried it.
func (m TurnMessage) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Text
}

// Turn is the detail returned by GET /api/v1/turns/{id}.
type Turn struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	Status      string        `json:"status"`
	UserText    string        `json:"user_text,omitempty"`
	Messages    []TurnMessage `json:"messages,omitempty"`
	Artifacts   []string      `json:"artifacts,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   Timestamp     `json:"created_at"`
	UpdatedAt   Timestamp     `json:"updated_at"`
	CompletedAt *Timestamp    `json:"completed_at,omitempty"`
}

// TurnSummary is an entry of GET /api/v1/sessions/{id}/turns.
type TurnSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	UserText  string    `json:"user_text,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// Session is the metadata returned by GET /api/v1/sessions/{id}.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Config    map[string]any `json:"config,omitempty"`
	TurnCount int            `json:"turn_count"`
	CreatedAt Timestamp      `json:"created_at"`
	UpdatedAt Timestamp      `json:"updated_at"`
}

// TurnEvent is pushed over the turn stream whenever the turn changes.
type TurnEvent struct {
	Turn  Turn   `json:"turn"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// timestampLayouts are tried in order when decoding a Timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// Timestamp is an informational response time. Values in an unknown format
// decode to the zero time instead of failing the whole response.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts RFC 3339 and the common SQL layouts.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			return nil
		}
	}
	return nil
}
