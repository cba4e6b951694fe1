package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// maxReactionAttempts bounds optimistic retries of a reaction write. Each
// failed attempt means some other writer succeeded, so the bound only bites
// under sustained contention on a single message.
const maxReactionAttempts = 16

// ToggleResult describes a completed reaction toggle.
type ToggleResult struct {
	Message   *Message // State after the toggle
	Added     bool     // False when the reaction was removed
	Conflicts int      // Optimistic retries it took
}

// Toggle returns a copy of r with userID added to or removed from key, and
// whether it was added. The receiver is not modified.
func (r Reactions) Toggle(key, userID string) (Reactions, bool) {
	out := make(Reactions, len(r)+1)
	for k, ids := range r {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[k] = cp
	}

	ids := out[key]
	for i, id := range ids {
		if id == userID {
			ids = append(ids[:i], ids[i+1:]...)
			if len(ids) == 0 {
				delete(out, key)
			} else {
				out[key] = ids
			}
			return out, false
		}
	}
	out[key] = append(ids, userID)
	return out, true
}

// ToggleReaction flips userID's reaction key on a message. The whole map is
// rewritten only if the row version is unchanged since it was read; on a lost
// race the read-modify-write is retried so concurrent toggles all apply.
func (s *SQLiteStore) ToggleReaction(ctx context.Context, messageID, key, userID string) (*ToggleResult, error) {
	for attempt := 0; attempt < maxReactionAttempts; attempt++ {
		msg, err := s.GetMessage(ctx, messageID)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			return nil, ErrNotFound
		}

		next, added := msg.Reactions.Toggle(key, userID)
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode reactions: %w", err)
		}

		res, err := s.db.ExecContext(ctx,
			"UPDATE messages SET reactions_json = ?, version = version + 1 WHERE id = ? AND version = ?",
			string(data), messageID, msg.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to update reactions: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 1 {
			msg.Reactions = next
			msg.Version++
			return &ToggleResult{Message: msg, Added: added, Conflicts: attempt}, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to toggle reaction on %s: %w", messageID, ErrVersionConflict)
}
