package core

import (
	"context"
	"fmt"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

// Profile is the identity-provider data synced on sign-in.
type Profile struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// UpsertUser creates or refreshes the caller's record from the identity
// provider and marks it online.
func (s *ChatService) UpsertUser(ctx context.Context, caller auth.Caller, profile Profile) (string, error) {
	if !caller.Authenticated() {
		return "", ErrUnauthenticated
	}

	now := s.nowMillis()
	user := store.User{
		ID:       caller.ID(),
		FullName: profile.FullName,
		Email:    profile.Email,
		Avatar:   profile.Avatar,
		Online:   true,
		LastSeen: now,
	}
	if err := s.dbStore.UpsertUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to sync user %s: %w", caller.ID(), err)
	}

	s.publish(ctx, events.Event{Kind: events.KindUserSynced, UserID: caller.ID(), At: now})
	return caller.ID(), nil
}

// SetOnline patches the caller's presence. Callers without a user record
// are ignored.
func (s *ChatService) SetOnline(ctx context.Context, caller auth.Caller, online bool) error {
	if !caller.Authenticated() {
		return nil
	}

	now := s.nowMillis()
	updated, err := s.dbStore.SetUserOnline(ctx, caller.ID(), online, now)
	if err != nil {
		return fmt.Errorf("failed to set presence for %s: %w", caller.ID(), err)
	}
	if updated {
		s.publish(ctx, events.Event{Kind: events.KindPresenceChanged, UserID: caller.ID(), At: now})
	}
	return nil
}

func (s *ChatService) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.dbStore.ListUsers(ctx)
}

// GetUser returns nil when no user has the given id.
func (s *ChatService) GetUser(ctx context.Context, userID string) (*store.User, error) {
	return s.dbStore.GetUser(ctx, userID)
}
