package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gwi.com/chat-core/internal/utils"
)

// DirectOutcome says how GetOrCreateDirect arrived at its result.
type DirectOutcome int

const (
	DirectFound   DirectOutcome = iota // Existing row matched the key
	DirectCreated                      // This call inserted the row
	DirectRaced                        // A concurrent insert won; its row was returned
)

const conversationColumns = "c.id, c.is_group, c.name, c.members_key, c.last_message_at, c.created_at"

// GetOrCreateDirect returns the direct conversation identified by membersKey,
// inserting it with the given members when absent. Concurrent inserts for the
// same key converge on a single row through the unique index.
func (s *SQLiteStore) GetOrCreateDirect(ctx context.Context, membersKey string, members []string, now int64) (*Conversation, DirectOutcome, error) {
	existing, err := s.getConversationByMembersKey(ctx, membersKey)
	if err != nil {
		return nil, DirectFound, err
	}
	if existing != nil {
		return existing, DirectFound, nil
	}

	key := membersKey
	conv := &Conversation{
		ID:         uuid.NewString(),
		IsGroup:    false,
		Members:    utils.SortedMembers(members),
		MembersKey: &key,
		CreatedAt:  now,
	}
	err = s.insertConversation(ctx, conv)
	if err == nil {
		return conv, DirectCreated, nil
	}
	if !isUniqueViolation(err) {
		return nil, DirectFound, err
	}

	winner, err := s.getConversationByMembersKey(ctx, membersKey)
	if err != nil {
		return nil, DirectRaced, err
	}
	if winner == nil {
		return nil, DirectRaced, fmt.Errorf("direct conversation %s vanished after conflict", membersKey)
	}
	return winner, DirectRaced, nil
}

// CreateGroup inserts a new group conversation. Groups are never deduplicated.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string, members []string, now int64) (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.NewString(),
		IsGroup:   true,
		Name:      &name,
		Members:   utils.SortedMembers(members),
		CreatedAt: now,
	}
	if err := s.insertConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *SQLiteStore) insertConversation(ctx context.Context, conv *Conversation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO conversations (id, is_group, name, members_key, last_message_at, created_at)
            VALUES (?, ?, ?, ?, ?, ?)
        `, conv.ID, conv.IsGroup, conv.Name, conv.MembersKey, conv.LastMessageAt, conv.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO conversation_members (conversation_id, user_id) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare member insert: %w", err)
		}
		defer stmt.Close()

		for _, member := range conv.Members {
			if _, err := stmt.ExecContext(ctx, conv.ID, member); err != nil {
				return fmt.Errorf("failed to insert member %s: %w", member, err)
			}
		}
		return nil
	})
}

// GetConversation returns the conversation with its members, or nil.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	return getConversation(ctx, s.db, "c.id = ?", id)
}

func (s *SQLiteStore) getConversationByMembersKey(ctx context.Context, membersKey string) (*Conversation, error) {
	return getConversation(ctx, s.db, "c.members_key = ?", membersKey)
}

func getConversation(ctx context.Context, q queryer, where string, arg any) (*Conversation, error) {
	row := q.QueryRowContext(ctx, "SELECT "+conversationColumns+" FROM conversations c WHERE "+where, arg)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	members, err := loadMembers(ctx, q, "conversation_id = ?", conv.ID)
	if err != nil {
		return nil, err
	}
	if m, ok := members[conv.ID]; ok {
		conv.Members = m
	}
	return conv, nil
}

// ListConversationsForUser returns every conversation userID belongs to,
// most recently active first.
func (s *SQLiteStore) ListConversationsForUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+conversationColumns+`
        FROM conversations c
        JOIN conversation_members m ON m.conversation_id = c.id
        WHERE m.user_id = ?
        ORDER BY c.last_message_at DESC, c.created_at DESC, c.id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	if len(convs) == 0 {
		return convs, nil
	}

	members, err := loadMembers(ctx, s.db,
		"conversation_id IN (SELECT conversation_id FROM conversation_members WHERE user_id = ?)", userID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if m, ok := members[convs[i].ID]; ok {
			convs[i].Members = m
		}
	}
	return convs, nil
}

// IsMember reports whether userID belongs to the conversation. A missing
// conversation has no members.
func (s *SQLiteStore) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	return isMember(ctx, s.db, conversationID, userID)
}

func isMember(ctx context.Context, q queryer, conversationID, userID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM conversation_members WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// loadMembers returns sorted member ids keyed by conversation id.
func loadMembers(ctx context.Context, q queryer, where string, arg any) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT conversation_id, user_id FROM conversation_members WHERE "+where+" ORDER BY conversation_id, user_id", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var convID, userID string
		if err := rows.Scan(&convID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		out[convID] = append(out[convID], userID)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var name, membersKey sql.NullString
	if err := row.Scan(&conv.ID, &conv.IsGroup, &name, &membersKey, &conv.LastMessageAt, &conv.CreatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		conv.Name = &name.String
	}
	if membersKey.Valid {
		conv.MembersKey = &membersKey.String
	}
	conv.Members = []string{}
	return &conv, nil
}
