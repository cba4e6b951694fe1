package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

const messageColumns = "id, conversation_id, sender_id, content, created_at, deleted, reactions_json, version"

// InsertMessage appends msg and moves the conversation's lastMessageAt forward
// to msg.CreatedAt in one transaction. A message committed after a newer one
// never pulls lastMessageAt back. The sender must be a member, otherwise
// ErrNotMember is returned and nothing is written.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Reactions == nil {
		msg.Reactions = Reactions{}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		member, err := isMember(ctx, tx, msg.ConversationID, msg.SenderID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotMember
		}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO messages (id, conversation_id, sender_id, content, created_at, deleted, reactions_json, version)
            VALUES (?, ?, ?, ?, ?, 0, '{}', 0)
        `, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		_, err = tx.ExecContext(ctx, "UPDATE conversations SET last_message_at = MAX(last_message_at, ?) WHERE id = ?", msg.CreatedAt, msg.ConversationID)
		if err != nil {
			return fmt.Errorf("failed to bump conversation activity: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", messageID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages oldest first; messages with
// equal timestamps keep insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at ASC, seq ASC
    `, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// LastMessage returns the newest message of a conversation, or nil.
func (s *SQLiteStore) LastMessage(ctx context.Context, conversationID string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at DESC, seq DESC
        LIMIT 1
    `, conversationID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	return msg, nil
}

// CountUnread counts messages in the conversation not sent by userID and
// created strictly after the watermark.
func (s *SQLiteStore) CountUnread(ctx context.Context, conversationID, userID string, watermark int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM messages
        WHERE conversation_id = ? AND sender_id != ? AND created_at > ?
    `, conversationID, userID, watermark).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// SoftDeleteMessage clears the content of a message owned by senderID and
// flags it deleted. Reactions are kept. Returns ErrNotFound or ErrNotOwner
// without writing anything when the checks fail.
func (s *SQLiteStore) SoftDeleteMessage(ctx context.Context, messageID, senderID string) (*Message, error) {
	var deleted *Message
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", messageID)
		msg, err := scanMessage(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get message: %w", err)
		}
		if msg.SenderID != senderID {
			return ErrNotOwner
		}

		if _, err := tx.ExecContext(ctx, "UPDATE messages SET deleted = 1, content = '' WHERE id = ?", messageID); err != nil {
			return fmt.Errorf("failed to soft-delete message: %w", err)
		}
		msg.Deleted = true
		msg.Content = ""
		deleted = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	var reactionsJSON string
	err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content,
		&msg.CreatedAt, &msg.Deleted, &reactionsJSON, &msg.Version)
	if err != nil {
		return nil, err
	}
	msg.Reactions = Reactions{}
	if reactionsJSON != "" {
		if err := json.Unmarshal([]byte(reactionsJSON), &msg.Reactions); err != nil {
			return nil, fmt.Errorf("failed to decode reactions for message %s: %w", msg.ID, err)
		}
	}
	return &msg, nil
}
