package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/chat-core/internal/events"
)

func TestGetOrCreateDirectIsOrderIndependent(t *testing.T) {
	env := newTestEnv(t)

	first := env.direct(t, alice, bob)
	second := env.direct(t, bob, alice)
	assert.Equal(t, first, second)

	conv, err := env.svc.GetByID(testCtx, first)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.False(t, conv.IsGroup)
	assert.Equal(t, []string{"user_alice", "user_bob"}, conv.Members)
	assert.Equal(t, "user_alice|user_bob", *conv.MembersKey)
	assert.Equal(t, int64(0), conv.LastMessageAt)

	assert.Equal(t, []events.Kind{events.KindConversationCreated}, env.notifier.kinds())
}

func TestGetOrCreateDirectConcurrentCallsConverge(t *testing.T) {
	env := newTestEnv(t)

	const callers = 12
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice, bob
			if i%2 == 1 {
				a, b = bob, alice
			}
			id, err := env.svc.GetOrCreateDirect(testCtx, a, b.ID())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	convs, err := env.svc.ListForCaller(testCtx, alice)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestGetOrCreateDirectValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetOrCreateDirect(testCtx, alice, alice.ID())
	assert.ErrorIs(t, err, ErrSelfConversation)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.GetOrCreateDirect(testCtx, alice, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.GetOrCreateDirect(testCtx, alice, "evil|id")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.GetOrCreateDirect(testCtx, nobody, bob.ID())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateGroupDeduplicatesMembers(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.svc.CreateGroup(testCtx, alice, "  Team  ", []string{"user_bob", "user_alice", "user_bob", " ", "user_carol"})
	require.NoError(t, err)

	conv, err := env.svc.GetByID(testCtx, id)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.True(t, conv.IsGroup)
	assert.Equal(t, "Team", *conv.Name)
	assert.Nil(t, conv.MembersKey)
	assert.ElementsMatch(t, []string{"user_alice", "user_bob", "user_carol"}, conv.Members)

	again, err := env.svc.CreateGroup(testCtx, alice, "Team", []string{"user_bob", "user_carol"})
	require.NoError(t, err)
	assert.NotEqual(t, id, again)

	ev := env.notifier.last()
	assert.Equal(t, events.KindConversationCreated, ev.Kind)
	assert.ElementsMatch(t, []string{"user_alice", "user_bob", "user_carol"}, ev.Audience)
}

func TestListForCallerOrdersByActivity(t *testing.T) {
	env := newTestEnv(t)

	withBob := env.direct(t, alice, bob)
	env.clock.Advance(time.Millisecond)
	withCarol := env.direct(t, alice, carol)

	env.clock.Advance(10 * time.Millisecond)
	_, err := env.svc.Send(testCtx, alice, withBob, "ping")
	require.NoError(t, err)

	convs, err := env.svc.ListForCaller(testCtx, alice)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, withBob, convs[0].ID)
	assert.Equal(t, withCarol, convs[1].ID)

	none, err := env.svc.ListForCaller(testCtx, nobody)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByIDMissing(t *testing.T) {
	env := newTestEnv(t)
	conv, err := env.svc.GetByID(testCtx, "missing")
	require.NoError(t, err)
	assert.Nil(t, conv)
}
