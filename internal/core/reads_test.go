package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkReadKeepsLatest(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	_, err := env.svc.MarkRead(testCtx, alice, convID, 2000)
	require.NoError(t, err)
	mark, err := env.svc.MarkRead(testCtx, alice, convID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), mark.LastReadAt)

	got, err := env.svc.GetRead(testCtx, alice, convID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2000), got.LastReadAt)

	none, err := env.svc.GetRead(testCtx, bob, convID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMarkReadConcurrentKeepsLatest(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	var wg sync.WaitGroup
	for _, ts := range []int64{500, 4000, 1500, 3000, 2500, 100} {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			_, err := env.svc.MarkRead(testCtx, alice, convID, ts)
			assert.NoError(t, err)
		}(ts)
	}
	wg.Wait()

	got, err := env.svc.GetRead(testCtx, alice, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), got.LastReadAt)
}

func TestMarkReadUnauthenticatedIsNoop(t *testing.T) {
	env := newTestEnv(t)

	mark, err := env.svc.MarkRead(testCtx, nobody, "c1", 10)
	require.NoError(t, err)
	assert.Nil(t, mark)

	marks, err := env.svc.ListAllReads(testCtx, nobody)
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestListAllReads(t *testing.T) {
	env := newTestEnv(t)
	withBob := env.direct(t, alice, bob)
	withCarol := env.direct(t, alice, carol)

	_, err := env.svc.MarkRead(testCtx, alice, withBob, 10)
	require.NoError(t, err)
	_, err = env.svc.MarkRead(testCtx, alice, withCarol, 20)
	require.NoError(t, err)
	_, err = env.svc.MarkRead(testCtx, bob, withBob, 30)
	require.NoError(t, err)

	marks, err := env.svc.ListAllReads(testCtx, alice)
	require.NoError(t, err)
	assert.Len(t, marks, 2)
	for _, m := range marks {
		assert.Equal(t, "user_alice", m.UserID)
	}
}
