package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WatchTurn subscribes to the turn's websocket stream and calls onEvent for
// every update until the server marks the stream done. Return an error from
// onEvent to stop early.
func (c *Client) WatchTurn(ctx context.Context, turnID string, onEvent func(TurnEvent) error) error {
	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/api/v1/turns/" + url.PathEscape(turnID) + "/stream")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			return &ServerError{Status: resp.StatusCode, Body: resp.Status}
		}
		return &NetworkError{Op: "watch turn", Err: err}
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var ev TurnEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return &NetworkError{Op: "watch turn", Err: err}
		}

		if ev.Error != "" {
			return errors.New(ev.Error)
		}
		if err := onEvent(ev); err != nil {
			return err
		}
		if ev.Done {
			return nil
		}
	}
}
