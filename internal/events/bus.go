package events

import (
	"context"
	"sync"

	"gwi.com/chat-core/internal/metrics"
)

const subscriptionBuffer = 64

// Subscription receives the events addressed to one user.
type Subscription struct {
	UserID string
	C      <-chan Event

	ch chan Event
}

// Bus is an in-process Notifier that fans events out to per-user
// subscriptions. A user may hold several subscriptions, one per device.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewBus() *Bus {
	return &Bus{
		subs: map[string]map[*Subscription]struct{}{},
	}
}

func (b *Bus) Subscribe(userID string) *Subscription {
	ch := make(chan Event, subscriptionBuffer)
	sub := &Subscription{UserID: userID, C: ch, ch: ch}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = map[*Subscription]struct{}{}
	}
	b.subs[userID][sub] = struct{}{}
	b.mu.Unlock()

	metrics.EventSubscribers.Inc()
	return sub
}

// Unsubscribe detaches sub and closes its channel. Calling it twice is safe.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sub.UserID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.UserID)
	}
	close(sub.ch)
	metrics.EventSubscribers.Dec()
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(ev.Audience) == 0 {
		for _, set := range b.subs {
			deliver(set, ev)
		}
	} else {
		for _, uid := range ev.Audience {
			deliver(b.subs[uid], ev)
		}
	}
	metrics.EventsPublished.WithLabelValues("bus").Inc()
	return nil
}

func deliver(set map[*Subscription]struct{}, ev Event) {
	for sub := range set {
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.Inc()
		}
	}
}
