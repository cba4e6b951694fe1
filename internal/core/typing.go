package core

import (
	"context"
	"fmt"
	"time"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

// TypingTimeout is how long a typing flag counts after its last update.
const TypingTimeout = 2000 * time.Millisecond

// SetTyping records whether the caller is typing in a conversation. Stopping
// only patches an existing row; no row is ever created for "not typing".
func (s *ChatService) SetTyping(ctx context.Context, caller auth.Caller, conversationID string, typing bool) error {
	if !caller.Authenticated() {
		return nil
	}

	now := s.nowMillis()
	if typing {
		if err := s.dbStore.StartTyping(ctx, conversationID, caller.ID(), now); err != nil {
			return fmt.Errorf("failed to start typing: %w", err)
		}
	} else {
		updated, err := s.dbStore.StopTyping(ctx, conversationID, caller.ID(), now)
		if err != nil {
			return fmt.Errorf("failed to stop typing: %w", err)
		}
		if !updated {
			return nil
		}
	}

	s.publishToMembers(ctx, conversationID, events.Event{
		Kind:   events.KindTypingChanged,
		UserID: caller.ID(),
		At:     now,
	})
	return nil
}

// ListTyping returns the other users currently typing in a conversation.
// Flags older than TypingTimeout are treated as not typing even though the
// stored row still says otherwise.
func (s *ChatService) ListTyping(ctx context.Context, caller auth.Caller, conversationID string) ([]store.TypingState, error) {
	if !caller.Authenticated() {
		return []store.TypingState{}, nil
	}
	since := s.nowMillis() - TypingTimeout.Milliseconds()
	return s.dbStore.ListTyping(ctx, conversationID, caller.ID(), since)
}
