package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MarkRead records a read watermark. The stored value only ever moves
// forward: the upsert keeps the larger of the existing and incoming values.
func (s *SQLiteStore) MarkRead(ctx context.Context, conversationID, userID string, lastReadAt int64) (*ReadMark, error) {
	var mark ReadMark
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO read_marks (conversation_id, user_id, last_read_at)
        VALUES (?, ?, ?)
        ON CONFLICT(conversation_id, user_id) DO UPDATE SET
            last_read_at = MAX(read_marks.last_read_at, excluded.last_read_at)
        RETURNING conversation_id, user_id, last_read_at
    `, conversationID, userID, lastReadAt).Scan(&mark.ConversationID, &mark.UserID, &mark.LastReadAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert read mark: %w", err)
	}
	return &mark, nil
}

func (s *SQLiteStore) GetReadMark(ctx context.Context, conversationID, userID string) (*ReadMark, error) {
	var mark ReadMark
	err := s.db.QueryRowContext(ctx, `
        SELECT conversation_id, user_id, last_read_at
        FROM read_marks WHERE conversation_id = ? AND user_id = ?
    `, conversationID, userID).Scan(&mark.ConversationID, &mark.UserID, &mark.LastReadAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get read mark: %w", err)
	}
	return &mark, nil
}

func (s *SQLiteStore) ListReadMarksForUser(ctx context.Context, userID string) ([]ReadMark, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT conversation_id, user_id, last_read_at
        FROM read_marks WHERE user_id = ?
        ORDER BY conversation_id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query read marks: %w", err)
	}
	defer rows.Close()

	marks := []ReadMark{}
	for rows.Next() {
		var mark ReadMark
		if err := rows.Scan(&mark.ConversationID, &mark.UserID, &mark.LastReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan read mark row: %w", err)
		}
		marks = append(marks, mark)
	}
	return marks, rows.Err()
}
