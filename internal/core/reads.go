package core

import (
	"context"
	"fmt"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

// MarkRead moves the caller's read watermark for a conversation forward to
// lastReadAt. An older value leaves the stored one in place. Unauthenticated
// callers are ignored and get a nil mark.
func (s *ChatService) MarkRead(ctx context.Context, caller auth.Caller, conversationID string, lastReadAt int64) (*store.ReadMark, error) {
	if !caller.Authenticated() {
		return nil, nil
	}

	mark, err := s.dbStore.MarkRead(ctx, conversationID, caller.ID(), lastReadAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark read: %w", err)
	}

	// Only the reader's own devices care about their watermark.
	s.publish(ctx, events.Event{
		Kind:           events.KindReadMarked,
		ConversationID: conversationID,
		UserID:         caller.ID(),
		At:             mark.LastReadAt,
		Audience:       []string{caller.ID()},
	})
	return mark, nil
}

// GetRead returns the caller's watermark for a conversation, or nil.
func (s *ChatService) GetRead(ctx context.Context, caller auth.Caller, conversationID string) (*store.ReadMark, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	return s.dbStore.GetReadMark(ctx, conversationID, caller.ID())
}

func (s *ChatService) ListAllReads(ctx context.Context, caller auth.Caller) ([]store.ReadMark, error) {
	if !caller.Authenticated() {
		return []store.ReadMark{}, nil
	}
	return s.dbStore.ListReadMarksForUser(ctx, caller.ID())
}
