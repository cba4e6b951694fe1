package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

// Store is the persistence the service relies on. *store.SQLiteStore
// satisfies it.
type Store interface {
	UpsertUser(ctx context.Context, user store.User) error
	SetUserOnline(ctx context.Context, userID string, online bool, lastSeen int64) (bool, error)
	GetUser(ctx context.Context, userID string) (*store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)

	GetOrCreateDirect(ctx context.Context, membersKey string, members []string, now int64) (*store.Conversation, store.DirectOutcome, error)
	CreateGroup(ctx context.Context, name string, members []string, now int64) (*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]store.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)

	InsertMessage(ctx context.Context, msg *store.Message) error
	GetMessage(ctx context.Context, messageID string) (*store.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]store.Message, error)
	LastMessage(ctx context.Context, conversationID string) (*store.Message, error)
	CountUnread(ctx context.Context, conversationID, userID string, watermark int64) (int, error)
	SoftDeleteMessage(ctx context.Context, messageID, senderID string) (*store.Message, error)
	ToggleReaction(ctx context.Context, messageID, key, userID string) (*store.ToggleResult, error)

	MarkRead(ctx context.Context, conversationID, userID string, lastReadAt int64) (*store.ReadMark, error)
	GetReadMark(ctx context.Context, conversationID, userID string) (*store.ReadMark, error)
	ListReadMarksForUser(ctx context.Context, userID string) ([]store.ReadMark, error)

	StartTyping(ctx context.Context, conversationID, userID string, now int64) error
	StopTyping(ctx context.Context, conversationID, userID string, now int64) (bool, error)
	ListTyping(ctx context.Context, conversationID, excludeUserID string, since int64) ([]store.TypingState, error)
}

type ChatService struct {
	dbStore  Store
	notifier events.Notifier
	logger   zerolog.Logger
	now      func() time.Time
	seq      atomic.Uint64
}

func NewChatService(db Store, notifier events.Notifier, logger zerolog.Logger) *ChatService {
	if notifier == nil {
		notifier = events.Discard
	}
	return &ChatService{
		dbStore:  db,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

func (s *ChatService) nowMillis() int64 {
	return s.now().UnixMilli()
}

// publish stamps ev with the next sequence number and hands it to the
// notifier. Delivery failures are logged; the change is already committed.
func (s *ChatService) publish(ctx context.Context, ev events.Event) {
	ev.Seq = s.seq.Add(1)
	if ev.At == 0 {
		ev.At = s.nowMillis()
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("kind", string(ev.Kind)).
			Uint64("seq", ev.Seq).
			Msg("failed to publish change event")
	}
}

// publishToMembers addresses ev to the conversation's members. Nothing is
// published when they cannot be resolved.
func (s *ChatService) publishToMembers(ctx context.Context, conversationID string, ev events.Event) {
	conv, err := s.dbStore.GetConversation(ctx, conversationID)
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to resolve event audience")
		return
	}
	if conv == nil || len(conv.Members) == 0 {
		return
	}
	ev.ConversationID = conversationID
	ev.Audience = conv.Members
	s.publish(ctx, ev)
}
