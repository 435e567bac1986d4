package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var leakOpts = []goleak.Option{
	goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTrimsTrailingSlashes(t *testing.T) {
	c := New("http://example.test///", 0)
	assert.Equal(t, "http://example.test", c.BaseURL())
	assert.Equal(t, "http://example.test/api/v1/artifacts/s1/t1/creative-1.jpg", c.ArtifactURL("s1", "t1", "creative-1.jpg"))
}

func TestArtifactURLEscapes(t *testing.T) {
	c := New("http://example.test", 0)
	assert.Equal(t, "http://example.test/api/v1/artifacts/s%2F1/t1/my%20file.jpg", c.ArtifactURL("s/1", "t1", "my file.jpg"))
}

func TestCreateTurn(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/turns", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id":"s1","turn_id":"t1","status":"pending","extra":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	ref, err := c.CreateTurn(context.Background(), CreateTurnRequest{
		UserText:    "hello",
		Attachments: []Attachment{{Name: "hero.png", Size: 10, Type: "image/png"}},
		UIContext:   map[string]any{"platforms": []string{"Instagram"}},
		TitleIfNew:  "Hot deals",
	})
	require.NoError(t, err)
	assert.Equal(t, &TurnRef{SessionID: "s1", TurnID: "t1", Status: "pending"}, ref)

	assert.Contains(t, got, "session_id")
	assert.Nil(t, got["session_id"], "new sessions send an explicit null")
	assert.Equal(t, "hello", got["user_text"])
	assert.Equal(t, "Hot deals", got["title_if_new"])
	assert.NotContains(t, got, "session_config")
}

func TestCreateTurnErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error keeps body",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			check: func(t *testing.T, err error) {
				var se *ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusInternalServerError, se.Status)
				assert.Equal(t, `{"error":"boom"}`, se.Body)
				assert.Contains(t, err.Error(), "boom")
			},
		},
		{
			name:   "missing ids",
			status: http.StatusOK,
			body:   `{"session_id":"s1"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).CreateTurn(context.Background(), CreateTurnRequest{UserText: "x"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).GetTurn(context.Background(), "t1")
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "get turn", ne.Op)
}

func TestGetters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s1","title":"Hot deals","turn_count":2}`))
	})
	mux.HandleFunc("GET /api/v1/sessions/s1/turns", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"t1","status":"completed"},{"id":"t2","status":"running"}]`))
	})
	mux.HandleFunc("GET /api/v1/turns/t1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1","session_id":"s1","status":"completed","messages":[{"role":"assistant","text":"hi","type":"text"},{"role":"assistant","content":"creative-1.jpg","type":"image"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)
	ctx := context.Background()

	s, err := c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Hot deals", s.Title)
	assert.Equal(t, 2, s.TurnCount)

	turns, err := c.GetSessionTurns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "t2", turns[1].ID)

	turn, err := c.GetTurn(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, turn.Messages, 2)
	assert.Equal(t, "hi", turn.Messages[0].Body())
	assert.Equal(t, "creative-1.jpg", turn.Messages[1].Body())

	_, err = c.GetTurn(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestGetTurnTimestamps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{"rfc3339", `{"id":"t1","status":"completed","created_at":"2025-01-01T10:00:00Z"}`, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"sql datetime", `{"id":"t1","status":"completed","created_at":"2025-01-01 10:00:00"}`, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"unknown format", `{"id":"t1","status":"completed","created_at":"yesterday","completed_at":1735725600}`, time.Time{}},
		{"null", `{"id":"t1","status":"completed","created_at":null}`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			turn, err := New(srv.URL, time.Second).GetTurn(context.Background(), "t1")
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, turn.Status)
			assert.True(t, tt.want.Equal(turn.CreatedAt.Time), "got %v", turn.CreatedAt)
		})
	}
}

func TestGetTurnMissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).GetTurn(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPollTurnToleratesOddTimestamps(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1","status":"completed","created_at":"2025-01-01 10:00:00","updated_at":"01/01/2025"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	turn, err := New(srv.URL, time.Second).PollTurn(ctx, discardLogger(), 5*time.Millisecond, "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, turn.Status)
	assert.True(t, turn.UpdatedAt.IsZero())
}

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive(StatusPending))
	assert.True(t, IsActive(StatusRunning))
	assert.False(t, IsActive(StatusCompleted))
	assert.False(t, IsActive(StatusFailed))
	assert.False(t, IsActive(""))
}

func TestPollTurnContinuesAfterErrors(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			_, _ = w.Write([]byte(`{"id":"t1","status":"running"}`))
		default:
			_, _ = w.Write([]byte(`{"id":"t1","status":"completed"}`))
		}
	}))
	defer srv.Close()

	var seen []string
	turn, err := New(srv.URL, time.Second).PollTurn(context.Background(), discardLogger(), 5*time.Millisecond, "t1", func(t *Turn) {
		seen = append(seen, t.Status)
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, turn.Status)
	assert.Equal(t, []string{StatusRunning, StatusCompleted}, seen)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollTurnStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1","status":"running"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL, time.Second).PollTurn(ctx, discardLogger(), 5*time.Millisecond, "t1", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
