package store

import (
	"context"
	"fmt"
)

// StartTyping creates or refreshes the user's typing row.
func (s *SQLiteStore) StartTyping(ctx context.Context, conversationID, userID string, now int64) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO typing_states (conversation_id, user_id, typing, updated_at)
        VALUES (?, ?, 1, ?)
        ON CONFLICT(conversation_id, user_id) DO UPDATE SET
            typing = 1,
            updated_at = excluded.updated_at
    `, conversationID, userID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert typing state: %w", err)
	}
	return nil
}

// StopTyping patches an existing typing row. No row is created when none
// exists; it reports whether a row was updated.
func (s *SQLiteStore) StopTyping(ctx context.Context, conversationID, userID string, now int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE typing_states SET typing = 0, updated_at = ?
        WHERE conversation_id = ? AND user_id = ?
    `, now, conversationID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update typing state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected > 0, nil
}

// ListTyping returns rows in the conversation flagged typing and updated
// strictly after since, excluding excludeUserID.
func (s *SQLiteStore) ListTyping(ctx context.Context, conversationID, excludeUserID string, since int64) ([]TypingState, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT conversation_id, user_id, typing, updated_at
        FROM typing_states
        WHERE conversation_id = ? AND user_id != ? AND typing = 1 AND updated_at > ?
        ORDER BY updated_at DESC, user_id
    `, conversationID, excludeUserID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query typing states: %w", err)
	}
	defer rows.Close()

	states := []TypingState{}
	for rows.Next() {
		var st TypingState
		if err := rows.Scan(&st.ConversationID, &st.UserID, &st.Typing, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan typing row: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// DeleteTypingBefore removes typing rows last updated before cutoff and
// returns how many were removed.
func (s *SQLiteStore) DeleteTypingBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM typing_states WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale typing states: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n, nil
}
