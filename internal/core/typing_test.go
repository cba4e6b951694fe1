package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingExpiresAfterTimeout(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	require.NoError(t, env.svc.SetTyping(testCtx, alice, convID, true))

	env.clock.Advance(100 * time.Millisecond)
	typing, err := env.svc.ListTyping(testCtx, bob, convID)
	require.NoError(t, err)
	require.Len(t, typing, 1)
	assert.Equal(t, "user_alice", typing[0].UserID)

	own, err := env.svc.ListTyping(testCtx, alice, convID)
	require.NoError(t, err)
	assert.Empty(t, own)

	env.clock.Advance(1900 * time.Millisecond)
	typing, err = env.svc.ListTyping(testCtx, bob, convID)
	require.NoError(t, err)
	assert.Empty(t, typing)

	stored, err := env.store.ListTyping(testCtx, convID, "user_bob", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Typing)
}

func TestStopTypingNeverCreatesRows(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	require.NoError(t, env.svc.SetTyping(testCtx, alice, convID, false))
	removed, err := env.store.DeleteTypingBefore(testCtx, math.MaxInt64)
	require.NoError(t, err)
	assert.Zero(t, removed)

	require.NoError(t, env.svc.SetTyping(testCtx, alice, convID, true))
	require.NoError(t, env.svc.SetTyping(testCtx, alice, convID, false))

	typing, err := env.svc.ListTyping(testCtx, bob, convID)
	require.NoError(t, err)
	assert.Empty(t, typing)

	removed, err = env.store.DeleteTypingBefore(testCtx, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestSetTypingUnauthenticatedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.SetTyping(testCtx, nobody, "c1", true))

	typing, err := env.svc.ListTyping(testCtx, alice, "c1")
	require.NoError(t, err)
	assert.Empty(t, typing)
}
