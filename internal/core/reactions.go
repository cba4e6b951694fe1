package core

import (
	"context"
	"errors"
	"fmt"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/metrics"
	"gwi.com/chat-core/internal/store"
)

var emojiKeys = map[string]string{
	"👍":  "thumbs_up",
	"❤":  "heart",
	"❤️": "heart",
	"😂":  "joy",
	"😮":  "astonished",
	"😢":  "cry",
}

var keyEmojis = map[string]string{
	"thumbs_up":  "👍",
	"heart":      "❤️",
	"joy":        "😂",
	"astonished": "😮",
	"cry":        "😢",
}

// ReactionKey maps a reaction as typed by a user to the key it is stored
// under. Known emoji map to names; anything else must be non-empty
// printable ASCII and is used as is.
func ReactionKey(emoji string) (string, bool) {
	if key, ok := emojiKeys[emoji]; ok {
		return key, true
	}
	if emoji == "" {
		return "", false
	}
	for i := 0; i < len(emoji); i++ {
		if emoji[i] < 0x20 || emoji[i] > 0x7E {
			return "", false
		}
	}
	return emoji, true
}

// ReactionEmoji is the inverse of ReactionKey for display. Keys without an
// emoji are returned unchanged.
func ReactionEmoji(key string) string {
	if emoji, ok := keyEmojis[key]; ok {
		return emoji
	}
	return key
}

// ToggleReaction adds the caller to the reactor list of emoji on a message,
// or removes them if already present, and returns the resulting map.
func (s *ChatService) ToggleReaction(ctx context.Context, caller auth.Caller, messageID, emoji string) (store.Reactions, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	key, ok := ReactionKey(emoji)
	if !ok {
		return nil, ErrInvalidReaction
	}

	res, err := s.dbStore.ToggleReaction(ctx, messageID, key, caller.ID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	action := "removed"
	if res.Added {
		action = "added"
	}
	metrics.ReactionsToggled.WithLabelValues(action).Inc()
	if res.Conflicts > 0 {
		metrics.ReactionRetries.Add(float64(res.Conflicts))
		s.logger.Debug().Str("message_id", messageID).Int("conflicts", res.Conflicts).Msg("reaction toggle retried")
	}

	s.publishToMembers(ctx, res.Message.ConversationID, events.Event{
		Kind:      events.KindReactionToggled,
		MessageID: messageID,
		UserID:    caller.ID(),
	})
	return res.Message.Reactions, nil
}
