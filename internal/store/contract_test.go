package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContract exercises behavior every Store implementation must share.
func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("session round trip", func(t *testing.T) {
		sess := &Session{ID: uuid.NewString(), Title: "Hot deals", Config: map[string]any{"theme": "dark"}}
		require.NoError(t, s.CreateSession(ctx, sess))
		assert.False(t, sess.CreatedAt.IsZero())

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hot deals", got.Title)
		assert.Equal(t, "dark", got.Config["theme"])
		assert.Zero(t, got.TurnCount)
		assert.WithinDuration(t, sess.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("duplicate session", func(t *testing.T) {
		sess := &Session{ID: uuid.NewString(), Title: "a"}
		require.NoError(t, s.CreateSession(ctx, sess))
		err := s.CreateSession(ctx, &Session{ID: sess.ID, Title: "b"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := s.GetSession(ctx, "nope")
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = s.GetTurn(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.ListTurns(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.UpdateTurn(ctx, &Turn{ID: "nope", Status: "running"})
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.CreateTurn(ctx, &Turn{ID: uuid.NewString(), SessionID: "nope", Status: "pending"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("turn lifecycle", func(t *testing.T) {
		sess := &Session{ID: uuid.NewString(), Title: "Lifecycle"}
		require.NoError(t, s.CreateSession(ctx, sess))

		first := &Turn{
			ID:          uuid.NewString(),
			SessionID:   sess.ID,
			Status:      "pending",
			UserText:    "Hey VC",
			Attachments: []Attachment{{Name: "hero.png", Size: 2048, Type: "image/png"}},
			UIContext:   map[string]any{"post_type": "Sale"},
		}
		require.NoError(t, s.CreateTurn(ctx, first))

		second := &Turn{ID: uuid.NewString(), SessionID: sess.ID, Status: "pending", UserText: "@Rotate 90"}
		require.NoError(t, s.CreateTurn(ctx, second))

		done := time.Now().UTC()
		first.Status = "completed"
		first.Messages = []Message{{Role: "assistant", Content: "Here's your generated creative! ✨", Type: "text"}}
		first.Artifacts = []string{"creative-1.jpg"}
		first.CompletedAt = &done
		require.NoError(t, s.UpdateTurn(ctx, first))

		got, err := s.GetTurn(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.SessionID)
		assert.Equal(t, "completed", got.Status)
		assert.Equal(t, "Hey VC", got.UserText)
		assert.Equal(t, first.Attachments, got.Attachments)
		assert.Equal(t, first.Messages, got.Messages)
		assert.Equal(t, []string{"creative-1.jpg"}, got.Artifacts)
		assert.Equal(t, "Sale", got.UIContext["post_type"])
		require.NotNil(t, got.CompletedAt)

		turns, err := s.ListTurns(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, first.ID, turns[0].ID)
		assert.Equal(t, second.ID, turns[1].ID)

		gotSess, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, gotSess.TurnCount)
	})

	t.Run("failed turn keeps error", func(t *testing.T) {
		sess := &Session{ID: uuid.NewString(), Title: "Failing"}
		require.NoError(t, s.CreateSession(ctx, sess))
		turn := &Turn{ID: uuid.NewString(), SessionID: sess.ID, Status: "pending", UserText: "x"}
		require.NoError(t, s.CreateTurn(ctx, turn))

		now := time.Now().UTC()
		turn.Status = "failed"
		turn.Error = "renderer unavailable"
		turn.CompletedAt = &now
		require.NoError(t, s.UpdateTurn(ctx, turn))

		got, err := s.GetTurn(ctx, turn.ID)
		require.NoError(t, err)
		assert.Equal(t, "failed", got.Status)
		assert.Equal(t, "renderer unavailable", got.Error)
	})
}
