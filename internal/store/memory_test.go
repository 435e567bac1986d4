package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContract(t *testing.T) {
	runContract(t, NewMemory())
}

func TestMemoryCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateSession(ctx, &Session{ID: "s1", Title: "t"}))
	turn := &Turn{ID: "t1", SessionID: "s1", Status: "pending", Artifacts: []string{"a.jpg"}}
	require.NoError(t, m.CreateTurn(ctx, turn))

	turn.Artifacts[0] = "changed.jpg"
	got, err := m.GetTurn(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, got.Artifacts)

	got.Artifacts[0] = "mutated.jpg"
	again, err := m.GetTurn(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, again.Artifacts)
}

func TestMemoryUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateSession(ctx, &Session{ID: "s1"}))
	require.NoError(t, m.CreateTurn(ctx, &Turn{ID: "t1", SessionID: "s1", Status: "pending"}))

	update := &Turn{ID: "t1", SessionID: "other", Status: "running"}
	require.NoError(t, m.UpdateTurn(ctx, update))
	assert.Equal(t, "s1", update.SessionID)

	got, err := m.GetTurn(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "running", got.Status)
	assert.Equal(t, "s1", got.SessionID)
}
