package events

import (
	"context"
	"errors"
)

type Kind string

const (
	KindUserSynced          Kind = "user.synced"
	KindPresenceChanged     Kind = "user.presence"
	KindConversationCreated Kind = "conversation.created"
	KindMessageSent         Kind = "message.sent"
	KindMessageDeleted      Kind = "message.deleted"
	KindReactionToggled     Kind = "message.reaction"
	KindReadMarked          Kind = "read.marked"
	KindTypingChanged       Kind = "typing.changed"
)

// Event announces a committed change. Seq grows monotonically for the life of
// the process so subscribers can tell whether anything changed since the
// last event they saw.
type Event struct {
	Seq            uint64   `json:"seq"`
	Kind           Kind     `json:"kind"`
	ConversationID string   `json:"conversationId,omitempty"`
	MessageID      string   `json:"messageId,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	At             int64    `json:"at"`
	Audience       []string `json:"audience,omitempty"` // Empty means everyone
}

// Notifier delivers change events. Implementations must not block on slow
// consumers.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Discard drops every event.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier, collecting their errors.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
