package store

import (
	"context"
	"time"
)

// ChatMessage is one row of the chat log. Embedded flips false→true exactly
// once, after the sync worker has saved the corresponding document.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Embedded  bool      `json:"embedded"`
}

// Document is an embedded chat message, immutable once written.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
}

// BannedUser is one entry of the moderation list.
type BannedUser struct {
	ID       string
	Username string
}

// MatchedDocument is one similarity search hit.
type MatchedDocument struct {
	Content    string
	Similarity float64
}

// Notification is one event delivered on the broadcast channel.
type Notification struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

// Payload carries a serialized ChatMessage.
type Payload struct {
	Message string `json:"message"`
}

// EventSyncDocument asks the sync worker to embed a newly stored chat message.
const EventSyncDocument = "sync-document"

// Store is the persistence boundary: chat log, document collection with
// similarity search, and the banned user list.
type Store interface {
	// Chat log
	SaveChatMessage(ctx context.Context, username, message string) (*ChatMessage, error)
	ChatMessagesNotEmbedded(ctx context.Context) ([]ChatMessage, error)
	MarkChatMessagesEmbedded(ctx context.Context, ids []int64) error

	// Documents
	SaveDocument(ctx context.Context, content string, embedding []float32) error
	MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]MatchedDocument, error)

	// Moderation list
	InsertBannedUser(ctx context.Context, username string) error
	DeleteBannedUser(ctx context.Context, username string) error
	DeleteAllBannedUsers(ctx context.Context) error
	BannedUsers(ctx context.Context) ([]BannedUser, error)

	Close() error
}
