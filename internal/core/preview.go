package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/metrics"
	"gwi.com/chat-core/internal/store"
)

// DeletedMessagePlaceholder replaces the content of a deleted last message in
// previews.
const DeletedMessagePlaceholder = "This message was deleted"

const previewConcurrency = 8

type LastMessagePreview struct {
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	SenderID  string `json:"senderId"`
}

type ConversationPreview struct {
	store.Conversation
	LastMessage *LastMessagePreview `json:"lastMessage"`
	UnreadCount int                 `json:"unreadCount"`
}

// ListWithPreview returns the caller's conversations, most recently active
// first, each with its last message and the number of messages from others
// newer than the caller's read watermark.
func (s *ChatService) ListWithPreview(ctx context.Context, caller auth.Caller) ([]ConversationPreview, error) {
	if !caller.Authenticated() {
		return []ConversationPreview{}, nil
	}
	start := time.Now()
	defer func() { metrics.PreviewDuration.Observe(time.Since(start).Seconds()) }()

	convs, err := s.dbStore.ListConversationsForUser(ctx, caller.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	previews := make([]ConversationPreview, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(previewConcurrency)
	for i := range convs {
		i := i
		g.Go(func() error {
			p, err := s.buildPreview(gctx, caller.ID(), convs[i])
			if err != nil {
				return err
			}
			previews[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return previews, nil
}

func (s *ChatService) buildPreview(ctx context.Context, userID string, conv store.Conversation) (ConversationPreview, error) {
	p := ConversationPreview{Conversation: conv}

	last, err := s.dbStore.LastMessage(ctx, conv.ID)
	if err != nil {
		return p, fmt.Errorf("failed to load last message of %s: %w", conv.ID, err)
	}
	if last != nil {
		content := last.Content
		if last.Deleted {
			content = DeletedMessagePlaceholder
		}
		p.LastMessage = &LastMessagePreview{
			Content:   content,
			CreatedAt: last.CreatedAt,
			SenderID:  last.SenderID,
		}
	}

	var watermark int64
	mark, err := s.dbStore.GetReadMark(ctx, conv.ID, userID)
	if err != nil {
		return p, fmt.Errorf("failed to load read mark of %s: %w", conv.ID, err)
	}
	if mark != nil {
		watermark = mark.LastReadAt
	}

	p.UnreadCount, err = s.dbStore.CountUnread(ctx, conv.ID, userID, watermark)
	if err != nil {
		return p, fmt.Errorf("failed to count unread in %s: %w", conv.ID, err)
	}
	return p, nil
}
