package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWithPreviewUnreadCounts(t *testing.T) {
	env := newTestEnv(t)
	convID := env.direct(t, alice, bob)

	previews, err := env.svc.ListWithPreview(testCtx, alice)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Nil(t, previews[0].LastMessage)
	assert.Equal(t, 0, previews[0].UnreadCount)

	env.clock.Advance(10 * time.Millisecond)
	_, err = env.svc.Send(testCtx, alice, convID, "mine")
	require.NoError(t, err)
	env.clock.Advance(10 * time.Millisecond)
	_, err = env.svc.Send(testCtx, bob, convID, "first")
	require.NoError(t, err)

	previews, err = env.svc.ListWithPreview(testCtx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, previews[0].UnreadCount, "own messages are never unread")

	env.clock.Advance(10 * time.Millisecond)
	latest, err := env.svc.Send(testCtx, bob, convID, "second")
	require.NoError(t, err)

	previews, err = env.svc.ListWithPreview(testCtx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, previews[0].UnreadCount)
	require.NotNil(t, previews[0].LastMessage)
	assert.Equal(t, "second", previews[0].LastMessage.Content)
	assert.Equal(t, "user_bob", previews[0].LastMessage.SenderID)
	assert.Equal(t, latest.CreatedAt, previews[0].LastMessage.CreatedAt)

	_, err = env.svc.MarkRead(testCtx, alice, convID, latest.CreatedAt)
	require.NoError(t, err)
	previews, err = env.svc.ListWithPreview(testCtx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, previews[0].UnreadCount)

	previews, err = env.svc.ListWithPreview(testCtx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, previews[0].UnreadCount)
}

func TestListWithPreviewDeletedAndOrdering(t *testing.T) {
	env := newTestEnv(t)
	withBob := env.direct(t, alice, bob)
	withCarol := env.direct(t, alice, carol)
	group, err := env.svc.CreateGroup(testCtx, carol, "g", []string{"user_alice"})
	require.NoError(t, err)

	env.clock.Advance(10 * time.Millisecond)
	msg, err := env.svc.Send(testCtx, bob, withBob, "regret")
	require.NoError(t, err)
	env.clock.Advance(10 * time.Millisecond)
	_, err = env.svc.Send(testCtx, carol, group, "hello group")
	require.NoError(t, err)
	require.NoError(t, env.svc.SoftDelete(testCtx, bob, msg.ID))

	previews, err := env.svc.ListWithPreview(testCtx, alice)
	require.NoError(t, err)
	require.Len(t, previews, 3)
	assert.Equal(t, group, previews[0].ID)
	assert.Equal(t, withBob, previews[1].ID)
	assert.Equal(t, withCarol, previews[2].ID)

	require.NotNil(t, previews[1].LastMessage)
	assert.Equal(t, DeletedMessagePlaceholder, previews[1].LastMessage.Content)
	assert.Equal(t, 1, previews[1].UnreadCount)

	none, err := env.svc.ListWithPreview(testCtx, nobody)
	require.NoError(t, err)
	assert.Empty(t, none)
}
