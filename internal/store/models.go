package store

// All timestamps are Unix epoch milliseconds.

type User struct {
	ID       string `json:"id"` // Caller id from the identity provider
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"lastSeen"`
}

type Conversation struct {
	ID            string   `json:"id"` // UUID
	IsGroup       bool     `json:"isGroup"`
	Name          *string  `json:"name,omitempty"`       // Groups only
	Members       []string `json:"members"`              // Sorted
	MembersKey    *string  `json:"membersKey,omitempty"` // Direct conversations only
	LastMessageAt int64    `json:"lastMessageAt"`
	CreatedAt     int64    `json:"createdAt"`
}

// Reactions maps a reaction key to the ids of the users who applied it, in
// the order they reacted. A key is present only while its list is non-empty.
type Reactions map[string][]string

type Message struct {
	ID             string    `json:"id"` // ULID
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      int64     `json:"createdAt"`
	Deleted        bool      `json:"deleted"`
	Reactions      Reactions `json:"reactions"`
	Version        int64     `json:"-"` // Bumped on every reaction write
}

type ReadMark struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	LastReadAt     int64  `json:"lastReadAt"`
}

type TypingState struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Typing         bool   `json:"typing"`
	UpdatedAt      int64  `json:"updatedAt"`
}
