package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// SurrealConfig holds SurrealDB connection configuration.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Surreal is a Store backed by SurrealDB over an auto-reconnecting websocket.
type Surreal struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	logger logger.Logger
}

var _ Store = (*Surreal)(nil)

// NewSurreal connects, signs in and selects the namespace and database.
func NewSurreal(ctx context.Context, cfg SurrealConfig, log *slog.Logger) (*Surreal, error) {
	if log == nil {
		log = slog.Default()
	}
	sdkLogger := logger.New(log.Handler())

	codec := surrealcbor.New()

	// gorillaws adds /rpc itself.
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	auth := surrealdb.Auth{Username: cfg.Username, Password: cfg.Password}
	if cfg.AuthLevel == "database" {
		auth.Namespace = cfg.Namespace
		auth.Database = cfg.Database
	}
	if _, err := db.SignIn(ctx, auth); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	sdkLogger.Info("SurrealDB connection established", "namespace", cfg.Namespace, "database", cfg.Database)
	return &Surreal{conn: conn, db: db, logger: sdkLogger}, nil
}

// InitSchema defines the session and turn tables if they do not exist.
func (s *Surreal) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, s.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the SurrealDB connection.
func (s *Surreal) Close(ctx context.Context) error {
	s.logger.Info("closing SurrealDB connection")
	return s.conn.Close(ctx)
}

// WipeData deletes every session and turn. Use for testing only.
func (s *Surreal) WipeData(ctx context.Context) error {
	for _, table := range []string{"turn", "session"} {
		if _, err := surrealdb.Query[any](ctx, s.db, "DELETE "+table, nil); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

type sessionRecord struct {
	ID      surrealmodels.RecordID `json:"id"`
	Title   string                 `json:"title"`
	Config  map[string]any         `json:"config,omitempty"`
	Created time.Time              `json:"created"`
	Updated time.Time              `json:"updated"`
}

type turnRecord struct {
	ID          surrealmodels.RecordID `json:"id"`
	Session     string                 `json:"session"`
	Status      string                 `json:"status"`
	UserText    string                 `json:"user_text"`
	Attachments []Attachment           `json:"attachments"`
	UIContext   map[string]any         `json:"ui_context,omitempty"`
	Messages    []Message              `json:"messages"`
	Artifacts   []string               `json:"artifacts"`
	Error       *string                `json:"error,omitempty"`
	Created     time.Time              `json:"created"`
	Updated     time.Time              `json:"updated"`
	Completed   *time.Time             `json:"completed,omitempty"`
}

type countRow struct {
	Count int `json:"count"`
}

func (r sessionRecord) toSession() (*Session, error) {
	id, err := recordIDString(r.ID)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Title: r.Title, Config: r.Config, CreatedAt: r.Created, UpdatedAt: r.Updated}, nil
}

func (r turnRecord) toTurn() (*Turn, error) {
	id, err := recordIDString(r.ID)
	if err != nil {
		return nil, err
	}
	t := &Turn{
		ID:          id,
		SessionID:   r.Session,
		Status:      r.Status,
		UserText:    r.UserText,
		Attachments: r.Attachments,
		UIContext:   r.UIContext,
		Messages:    r.Messages,
		Artifacts:   r.Artifacts,
		CreatedAt:   r.Created,
		UpdatedAt:   r.Updated,
		CompletedAt: r.Completed,
	}
	if r.Error != nil {
		t.Error = *r.Error
	}
	return t, nil
}

// recordIDString extracts the string key of a record ID.
func recordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

func (s *Surreal) CreateSession(ctx context.Context, sess *Session) error {
	config := sess.Config
	if config == nil {
		config = map[string]any{}
	}

	results, err := surrealdb.Query[[]sessionRecord](ctx, s.db, `
		CREATE type::record("session", $id) SET
			title = $title,
			config = $config,
			created = time::now(),
			updated = time::now()
		RETURN AFTER
	`, map[string]any{"id": sess.ID, "title": sess.Title, "config": config})
	if err != nil {
		return fmt.Errorf("create session: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("create session: no result returned")
	}

	created, err := (*results)[0].Result[0].toSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sess.CreatedAt, sess.UpdatedAt = created.CreatedAt, created.UpdatedAt
	return nil
}

func (s *Surreal) GetSession(ctx context.Context, id string) (*Session, error) {
	results, err := surrealdb.Query[[]sessionRecord](ctx, s.db, `
		SELECT * FROM type::record("session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}

	sess, err := (*results)[0].Result[0].toSession()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	counts, err := surrealdb.Query[[]countRow](ctx, s.db, `
		SELECT count() AS count FROM turn WHERE session = $id GROUP ALL
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("count turns: %w", err)
	}
	if counts != nil && len(*counts) > 0 && len((*counts)[0].Result) > 0 {
		sess.TurnCount = (*counts)[0].Result[0].Count
	}
	return sess, nil
}

func (s *Surreal) CreateTurn(ctx context.Context, t *Turn) error {
	if _, err := s.GetSession(ctx, t.SessionID); err != nil {
		return fmt.Errorf("create turn: %w", err)
	}

	results, err := surrealdb.Query[[]turnRecord](ctx, s.db, `
		CREATE type::record("turn", $id) SET
			session = $session,
			status = $status,
			user_text = $user_text,
			attachments = $attachments,
			ui_context = $ui_context,
			messages = $messages,
			artifacts = $artifacts,
			created = time::now(),
			updated = time::now()
		RETURN AFTER;
	`, turnVars(t))
	if err != nil {
		return fmt.Errorf("create turn: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("create turn: no result returned")
	}

	if _, err := surrealdb.Query[any](ctx, s.db, `
		UPDATE type::record("session", $id) SET updated = time::now()
	`, map[string]any{"id": t.SessionID}); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	created, err := (*results)[0].Result[0].toTurn()
	if err != nil {
		return fmt.Errorf("create turn: %w", err)
	}
	t.CreatedAt, t.UpdatedAt = created.CreatedAt, created.UpdatedAt
	return nil
}

func (s *Surreal) UpdateTurn(ctx context.Context, t *Turn) error {
	vars := turnVars(t)
	vars["settled"] = t.CompletedAt != nil

	results, err := surrealdb.Query[[]turnRecord](ctx, s.db, `
		UPDATE type::record("turn", $id) SET
			status = $status,
			messages = $messages,
			artifacts = $artifacts,
			error = $error,
			updated = time::now(),
			completed = IF $settled THEN (completed ?? time::now()) ELSE NONE END
		RETURN AFTER
	`, vars)
	if err != nil {
		return fmt.Errorf("update turn: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update turn %s: %w", t.ID, ErrNotFound)
	}

	updated, err := (*results)[0].Result[0].toTurn()
	if err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	t.SessionID, t.CreatedAt, t.UpdatedAt = updated.SessionID, updated.CreatedAt, updated.UpdatedAt
	return nil
}

func (s *Surreal) GetTurn(ctx context.Context, id string) (*Turn, error) {
	results, err := surrealdb.Query[[]turnRecord](ctx, s.db, `
		SELECT * FROM type::record("turn", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get turn: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get turn %s: %w", id, ErrNotFound)
	}
	return (*results)[0].Result[0].toTurn()
}

func (s *Surreal) ListTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	results, err := surrealdb.Query[[]turnRecord](ctx, s.db, `
		SELECT * FROM turn WHERE session = $session ORDER BY created ASC
	`, map[string]any{"session": sessionID})
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []Turn{}, nil
	}

	turns := make([]Turn, 0, len((*results)[0].Result))
	for _, r := range (*results)[0].Result {
		t, err := r.toTurn()
		if err != nil {
			return nil, fmt.Errorf("list turns: %w", err)
		}
		turns = append(turns, *t)
	}
	return turns, nil
}

// turnVars builds query parameters, replacing nil collections with empty ones
// so SCHEMAFULL array and object fields accept them.
func turnVars(t *Turn) map[string]any {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	uiContext := t.UIContext
	if uiContext == nil {
		uiContext = map[string]any{}
	}
	messages := t.Messages
	if messages == nil {
		messages = []Message{}
	}
	artifacts := t.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	var errText *string
	if t.Error != "" {
		errText = &t.Error
	}

	return map[string]any{
		"id":          t.ID,
		"session":     t.SessionID,
		"status":      t.Status,
		"user_text":   t.UserText,
		"attachments": attachments,
		"ui_context":  uiContext,
		"messages":    messages,
		"artifacts":   artifacts,
		"error":       errText,
	}
}

// wrapQueryError maps known SurrealDB query errors to store sentinels.
func wrapQueryError(err error) error {
	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) && strings.Contains(queryErr.Message, "already exists") {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, queryErr.Message)
	}
	return err
}
