package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTypingCompactorValidatesCron(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewTypingCompactor(env.store, "not a cron", time.Hour, zerolog.Nop())
	assert.Error(t, err)

	c, err := NewTypingCompactor(env.store, "", time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, TypingTimeout, c.retention)
}

func TestTypingCompactorRunOnce(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	require.NoError(t, env.svc.SetTyping(testCtx, alice, convID, true))
	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.svc.SetTyping(testCtx, bob, convID, true))

	c, err := NewTypingCompactor(env.store, "*/10 * * * *", time.Hour, zerolog.Nop())
	require.NoError(t, err)
	c.now = env.clock.Now

	n, err := c.RunOnce(testCtx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := env.store.ListTyping(testCtx, convID, "", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "user_bob", remaining[0].UserID)
}

func TestTypingCompactorRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	c, err := NewTypingCompactor(env.store, "0 0 1 1 *", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("compactor did not stop")
	}
}
