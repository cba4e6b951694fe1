package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopTypingWithoutRowIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	updated, err := s.StopTyping(ctx, "c1", "a", 10)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, 0, countRows(t, s, "SELECT COUNT(*) FROM typing_states"))
}

func TestTypingLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartTyping(ctx, "c1", "a", 1000))
	require.NoError(t, s.StartTyping(ctx, "c1", "a", 1500))
	assert.Equal(t, 1, countRows(t, s, "SELECT COUNT(*) FROM typing_states"))

	active, err := s.ListTyping(ctx, "c1", "b", 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1500), active[0].UpdatedAt)

	own, err := s.ListTyping(ctx, "c1", "a", 0)
	require.NoError(t, err)
	assert.Empty(t, own)

	stale, err := s.ListTyping(ctx, "c1", "b", 1500)
	require.NoError(t, err)
	assert.Empty(t, stale)

	updated, err := s.StopTyping(ctx, "c1", "a", 1600)
	require.NoError(t, err)
	assert.True(t, updated)

	active, err = s.ListTyping(ctx, "c1", "b", 0)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.Equal(t, 1, countRows(t, s,
		"SELECT COUNT(*) FROM typing_states WHERE conversation_id = ? AND user_id = ? AND typing = 0 AND updated_at = ?",
		"c1", "a", 1600))
}

func TestDeleteTypingBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartTyping(ctx, "c1", "a", 100))
	require.NoError(t, s.StartTyping(ctx, "c1", "b", 900))

	n, err := s.DeleteTypingBefore(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, 0, countRows(t, s, "SELECT COUNT(*) FROM typing_states WHERE user_id = ?", "a"))
	assert.Equal(t, 1, countRows(t, s, "SELECT COUNT(*) FROM typing_states WHERE user_id = ?", "b"))
}
