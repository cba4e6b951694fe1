package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recordingNotifier) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type testEnv struct {
	svc      *ChatService
	store    *store.SQLiteStore
	clock    *fakeClock
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := newFakeClock()
	notifier := &recordingNotifier{}
	svc := NewChatService(st, notifier, zerolog.Nop()).WithClock(clock.Now)
	return &testEnv{svc: svc, store: st, clock: clock, notifier: notifier}
}

var (
	alice   = auth.NewCaller("user_alice")
	bob     = auth.NewCaller("user_bob")
	carol   = auth.NewCaller("user_carol")
	nobody  = auth.Caller{}
	testCtx = context.Background()
)

func (e *testEnv) direct(t *testing.T, a, b auth.Caller) string {
	t.Helper()
	id, err := e.svc.GetOrCreateDirect(testCtx, a, b.ID())
	require.NoError(t, err)
	return id
}
