// Package service provides the mock creative backend's turn processing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/creative-go/internal/chat"
	"github.com/raphaelgruber/creative-go/internal/metrics"
	"github.com/raphaelgruber/creative-go/internal/store"
)

// TurnStatus represents the state of a turn.
type TurnStatus string

const (
	TurnStatusPending   TurnStatus = "pending"
	TurnStatusRunning   TurnStatus = "running"
	TurnStatusCompleted TurnStatus = "completed"
	TurnStatusFailed    TurnStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s TurnStatus) Terminal() bool {
	return s == TurnStatusCompleted || s == TurnStatusFailed
}

// DefaultStep is the delay between a turn's status transitions.
const DefaultStep = 1500 * time.Millisecond

const defaultTitle = "Untitled creative"

var (
	// ErrEmptyText is returned when a turn carries no user text.
	ErrEmptyText = errors.New("user_text is required")

	// ErrArtifactNotFound is returned for artifacts a turn did not produce.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// CreateTurnInput is a user submission. An empty SessionID opens a new session.
type CreateTurnInput struct {
	SessionID     string
	UserText      string
	Attachments   []store.Attachment
	UIContext     map[string]any
	TitleIfNew    string
	SessionConfig map[string]any
}

// TurnService creates turns and advances them pending → running → completed
// in the background.
type TurnService struct {
	store   store.Store
	metrics *metrics.Collector
	step    time.Duration
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	artifactSeq atomic.Int64

	mu     sync.Mutex
	closed bool
	subs   map[string][]chan store.Turn
}

// NewTurnService creates a turn service. A nil collector disables metrics.
func NewTurnService(st store.Store, collector *metrics.Collector, step time.Duration) *TurnService {
	if step <= 0 {
		step = DefaultStep
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TurnService{
		store:   st,
		metrics: collector,
		step:    step,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string][]chan store.Turn),
	}
}

// Close stops background processing and waits for in-flight turns to settle.
func (s *TurnService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// CreateTurn records a pending turn and starts processing it.
func (s *TurnService) CreateTurn(ctx context.Context, in CreateTurnInput) (*store.Turn, error) {
	if strings.TrimSpace(in.UserText) == "" {
		return nil, ErrEmptyText
	}
	if s.ctx.Err() != nil {
		return nil, fmt.Errorf("create turn: %w", s.ctx.Err())
	}

	sessionID := in.SessionID
	if sessionID == "" {
		title := strings.TrimSpace(in.TitleIfNew)
		if title == "" {
			title = defaultTitle
		}
		sess := &store.Session{ID: uuid.NewString(), Title: title, Config: in.SessionConfig}
		done := s.metrics.Timer(metrics.OpStoreQuery)
		err := s.store.CreateSession(ctx, sess)
		done(err)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		s.metrics.Add(metrics.CounterSessionsCreated, 1)
		slog.Info("session created", "session_id", sess.ID, "title", title)
		sessionID = sess.ID
	}

	turn := &store.Turn{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Status:      string(TurnStatusPending),
		UserText:    in.UserText,
		Attachments: in.Attachments,
		UIContext:   in.UIContext,
	}
	done := s.metrics.Timer(metrics.OpStoreQuery)
	err := s.store.CreateTurn(ctx, turn)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	s.metrics.Add(metrics.CounterTurnsCreated, 1)
	slog.Info("turn created", "turn_id", turn.ID, "session_id", sessionID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.fail(*turn, errors.New("service shutting down"))
		return nil, fmt.Errorf("create turn: %w", context.Canceled)
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go s.process(*turn)

	return turn, nil
}

// GetTurn returns a turn by ID.
func (s *TurnService) GetTurn(ctx context.Context, id string) (*store.Turn, error) {
	done := s.metrics.Timer(metrics.OpStoreQuery)
	t, err := s.store.GetTurn(ctx, id)
	done(err)
	return t, err
}

// GetSession returns session metadata by ID.
func (s *TurnService) GetSession(ctx context.Context, id string) (*store.Session, error) {
	done := s.metrics.Timer(metrics.OpStoreQuery)
	sess, err := s.store.GetSession(ctx, id)
	done(err)
	return sess, err
}

// ListTurns returns a session's turns, oldest first.
func (s *TurnService) ListTurns(ctx context.Context, sessionID string) ([]store.Turn, error) {
	done := s.metrics.Timer(metrics.OpStoreQuery)
	turns, err := s.store.ListTurns(ctx, sessionID)
	done(err)
	return turns, err
}

// ResolveArtifact maps an artifact a turn produced to its image URL.
func (s *TurnService) ResolveArtifact(ctx context.Context, sessionID, turnID, filename string) (string, error) {
	turn, err := s.GetTurn(ctx, turnID)
	if err != nil {
		return "", err
	}
	if turn.SessionID != sessionID || !slices.Contains(turn.Artifacts, filename) {
		return "", fmt.Errorf("%s/%s/%s: %w", sessionID, turnID, filename, ErrArtifactNotFound)
	}

	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(filename, "creative-"), ".jpg"))
	if err != nil {
		return "", fmt.Errorf("%s: %w", filename, ErrArtifactNotFound)
	}
	return chat.ImageVariant(n - 1), nil
}

// Subscribe delivers a copy of the turn after every change. Call the returned
// func to unsubscribe.
func (s *TurnService) Subscribe(turnID string) (<-chan store.Turn, func()) {
	ch := make(chan store.Turn, 4)

	s.mu.Lock()
	s.subs[turnID] = append(s.subs[turnID], ch)
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[turnID] = slices.DeleteFunc(s.subs[turnID], func(c chan store.Turn) bool { return c == ch })
		if len(s.subs[turnID]) == 0 {
			delete(s.subs, turnID)
		}
	}
}

func (s *TurnService) publish(t store.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[t.ID] {
		select {
		case ch <- t:
		default:
			// Slow subscriber; it will see the next update.
		}
	}
}

func (s *TurnService) process(turn store.Turn) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn goroutine panicked", "turn_id", turn.ID, "panic", r)
			s.fail(turn, fmt.Errorf("internal panic: %v", r))
		}
	}()

	done := s.metrics.Timer(metrics.OpTurnProcess)

	if !s.wait() {
		s.fail(turn, errors.New("service shutting down"))
		done(context.Canceled)
		return
	}
	turn.Status = string(TurnStatusRunning)
	if err := s.update(&turn); err != nil {
		s.fail(turn, err)
		done(err)
		return
	}

	if !s.wait() {
		s.fail(turn, errors.New("service shutting down"))
		done(context.Canceled)
		return
	}

	turn.Messages, turn.Artifacts = s.respond(turn)
	turn.Status = string(TurnStatusCompleted)
	now := s.now().UTC()
	turn.CompletedAt = &now
	if err := s.update(&turn); err != nil {
		s.fail(turn, err)
		done(err)
		return
	}

	s.metrics.Add(metrics.CounterTurnsCompleted, 1)
	done(nil)
	slog.Info("turn completed", "turn_id", turn.ID, "artifacts", len(turn.Artifacts))
}

// respond builds the turn's messages from the scripted responder. The first
// turn of a session always yields a creative.
func (s *TurnService) respond(turn store.Turn) ([]store.Message, []string) {
	reply := chat.Reply(turn.UserText, s.now())

	hasImage := slices.ContainsFunc(reply, func(m chat.Message) bool { return m.Kind == chat.KindImage })
	if !hasImage && s.firstTurn(turn) {
		reply = append(reply, chat.Message{Role: chat.RoleAssistant, Kind: chat.KindImage, Content: chat.InitialImage})
	}

	var artifacts []string
	messages := make([]store.Message, 0, len(reply))
	for _, m := range reply {
		content := m.Content
		if m.Kind == chat.KindImage {
			content = fmt.Sprintf("creative-%d.jpg", s.artifactSeq.Add(1))
			artifacts = append(artifacts, content)
		}
		messages = append(messages, store.Message{Role: string(m.Role), Content: content, Type: string(m.Kind)})
	}
	return messages, artifacts
}

func (s *TurnService) firstTurn(turn store.Turn) bool {
	turns, err := s.store.ListTurns(s.ctx, turn.SessionID)
	if err != nil {
		slog.Warn("failed to list session turns", "session_id", turn.SessionID, "error", err)
		return false
	}
	return len(turns) > 0 && turns[0].ID == turn.ID
}

// wait sleeps one step. It returns false when the service is closing.
func (s *TurnService) wait() bool {
	timer := time.NewTimer(s.step)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *TurnService) update(turn *store.Turn) error {
	done := s.metrics.Timer(metrics.OpStoreQuery)
	err := s.store.UpdateTurn(context.Background(), turn)
	done(err)
	if err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	s.publish(*turn)
	return nil
}

// fail marks the turn failed. Persistence errors are logged only.
func (s *TurnService) fail(turn store.Turn, err error) {
	turn.Status = string(TurnStatusFailed)
	turn.Error = err.Error()
	now := s.now().UTC()
	turn.CompletedAt = &now

	if dbErr := s.store.UpdateTurn(context.Background(), &turn); dbErr != nil {
		slog.Warn("failed to persist turn failure", "turn_id", turn.ID, "error", dbErr)
	}
	s.publish(turn)
	s.metrics.Add(metrics.CounterTurnsFailed, 1)
	slog.Error("turn failed", "turn_id", turn.ID, "error", err)
}
