package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/metrics"
	"gwi.com/chat-core/internal/store"
)

// Send appends a message from the caller. Content is trimmed; empty content
// is accepted. The conversation's lastMessageAt moves to the message's
// createdAt in the same write.
func (s *ChatService) Send(ctx context.Context, caller auth.Caller, conversationID, content string) (*store.Message, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}

	msg := &store.Message{
		ConversationID: conversationID,
		SenderID:       caller.ID(),
		Content:        strings.TrimSpace(content),
		CreatedAt:      s.nowMillis(),
	}
	if err := s.dbStore.InsertMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotMember) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	metrics.MessagesSent.Inc()
	s.publishToMembers(ctx, conversationID, events.Event{
		Kind:      events.KindMessageSent,
		MessageID: msg.ID,
		UserID:    caller.ID(),
		At:        msg.CreatedAt,
	})
	return msg, nil
}

// List returns a conversation's messages oldest first. Non-members and
// unknown conversations get an empty list rather than an error.
func (s *ChatService) List(ctx context.Context, caller auth.Caller, conversationID string) ([]store.Message, error) {
	if !caller.Authenticated() {
		return []store.Message{}, nil
	}

	member, err := s.dbStore.IsMember(ctx, conversationID, caller.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return []store.Message{}, nil
	}
	return s.dbStore.ListMessages(ctx, conversationID)
}

// SoftDelete clears a message the caller sent. Any other case, including a
// missing message, is ErrNotAllowed.
func (s *ChatService) SoftDelete(ctx context.Context, caller auth.Caller, messageID string) error {
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}

	msg, err := s.dbStore.SoftDeleteMessage(ctx, messageID, caller.ID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNotOwner) {
			return ErrNotAllowed
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	metrics.MessagesDeleted.Inc()
	s.publishToMembers(ctx, msg.ConversationID, events.Event{
		Kind:      events.KindMessageDeleted,
		MessageID: msg.ID,
		UserID:    caller.ID(),
	})
	return nil
}
