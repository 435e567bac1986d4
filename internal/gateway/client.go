// Package gateway is the HTTP client for the creative session backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Client talks to the session backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. Trailing slashes are dropped so paths can
// be appended directly.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Body: string(data)}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

// CreateTurn submits user input, opening a session when req.SessionID is nil.
func (c *Client) CreateTurn(ctx context.Context, req CreateTurnRequest) (*TurnRef, error) {
	var ref TurnRef
	if err := c.do(ctx, "create turn", http.MethodPost, "/api/v1/turns", req, &ref); err != nil {
		return nil, err
	}
	if ref.SessionID == "" || ref.TurnID == "" {
		return nil, fmt.Errorf("create turn: %w: missing session_id or turn_id", ErrMalformedResponse)
	}
	return &ref, nil
}

// GetSession fetches session metadata.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := c.do(ctx, "get session", http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionTurns lists the turns of a session, oldest first.
func (c *Client) GetSessionTurns(ctx context.Context, sessionID string) ([]TurnSummary, error) {
	var turns []TurnSummary
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/turns"
	if err := c.do(ctx, "get session turns", http.MethodGet, path, nil, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// GetTurn fetches the current state of a turn.
func (c *Client) GetTurn(ctx context.Context, turnID string) (*Turn, error) {
	var t Turn
	if err := c.do(ctx, "get turn", http.MethodGet, "/api/v1/turns/"+url.PathEscape(turnID), nil, &t); err != nil {
		return nil, err
	}
	if t.Status == "" {
		return nil, fmt.Errorf("get turn: %w: missing status", ErrMalformedResponse)
	}
	return &t, nil
}

// ArtifactURL builds the download URL of a generated artifact. No request is made.
func (c *Client) ArtifactURL(sessionID, turnID, filename string) string {
	return c.baseURL + "/api/v1/artifacts/" + url.PathEscape(sessionID) + "/" +
		url.PathEscape(turnID) + "/" + url.PathEscape(filename)
}
