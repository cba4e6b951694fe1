package core

import (
	"context"
	"fmt"
	"strings"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/metrics"
	"gwi.com/chat-core/internal/store"
	"gwi.com/chat-core/internal/utils"
)

// GetOrCreateDirect returns the id of the one-to-one conversation between the
// caller and otherID, creating it on first use. Argument order never matters
// and concurrent calls for the same pair agree on a single conversation.
func (s *ChatService) GetOrCreateDirect(ctx context.Context, caller auth.Caller, otherID string) (string, error) {
	if !caller.Authenticated() {
		return "", ErrUnauthenticated
	}
	if otherID == "" {
		return "", fmt.Errorf("%w: other user id is required", ErrInvalidArgument)
	}
	if otherID == caller.ID() {
		return "", ErrSelfConversation
	}

	key, err := utils.MembersKey(caller.ID(), otherID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	now := s.nowMillis()
	conv, outcome, err := s.dbStore.GetOrCreateDirect(ctx, key, []string{caller.ID(), otherID}, now)
	if err != nil {
		return "", fmt.Errorf("failed to get or create direct conversation: %w", err)
	}

	switch outcome {
	case store.DirectCreated:
		metrics.ConversationsCreated.WithLabelValues("direct").Inc()
		s.publish(ctx, events.Event{
			Kind:           events.KindConversationCreated,
			ConversationID: conv.ID,
			UserID:         caller.ID(),
			At:             now,
			Audience:       conv.Members,
		})
	case store.DirectRaced:
		metrics.DirectConflicts.Inc()
		s.logger.Debug().Str("members_key", key).Str("conversation_id", conv.ID).
			Msg("direct conversation insert lost a race, using existing row")
	}
	return conv.ID, nil
}

// CreateGroup always creates a new conversation; identical groups may exist
// side by side. The caller is always a member.
func (s *ChatService) CreateGroup(ctx context.Context, caller auth.Caller, name string, memberIDs []string) (string, error) {
	if !caller.Authenticated() {
		return "", ErrUnauthenticated
	}

	members := utils.UnionMembers(caller.ID(), memberIDs)

	now := s.nowMillis()
	conv, err := s.dbStore.CreateGroup(ctx, strings.TrimSpace(name), members, now)
	if err != nil {
		return "", fmt.Errorf("failed to create group: %w", err)
	}

	metrics.ConversationsCreated.WithLabelValues("group").Inc()
	s.publish(ctx, events.Event{
		Kind:           events.KindConversationCreated,
		ConversationID: conv.ID,
		UserID:         caller.ID(),
		At:             now,
		Audience:       conv.Members,
	})
	return conv.ID, nil
}

// ListForCaller returns the caller's conversations, most recently active
// first. Unauthenticated callers get an empty list.
func (s *ChatService) ListForCaller(ctx context.Context, caller auth.Caller) ([]store.Conversation, error) {
	if !caller.Authenticated() {
		return []store.Conversation{}, nil
	}
	return s.dbStore.ListConversationsForUser(ctx, caller.ID())
}

// GetByID returns the conversation or nil. Membership is not checked.
func (s *ChatService) GetByID(ctx context.Context, conversationID string) (*store.Conversation, error) {
	return s.dbStore.GetConversation(ctx, conversationID)
}
