package store

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// MockStore is an in-memory Store for tests. Individual operations can be
// overridden via the injectable func fields; otherwise the in-memory
// collections behave like the real schema, including the append-only
// banned_users semantics.
type MockStore struct {
	mu sync.Mutex

	Chat      []ChatMessage
	Documents []Document
	Banned    []BannedUser

	nextChatID int64

	// Injectable failures
	SaveChatMessageFunc  func(ctx context.Context, username, message string) (*ChatMessage, error)
	SaveDocumentFunc     func(ctx context.Context, content string, embedding []float32) error
	MatchDocumentsFunc   func(ctx context.Context, embedding []float32, threshold float64, limit int) ([]MatchedDocument, error)
	InsertBannedUserFunc func(ctx context.Context, username string) error
	MarkEmbeddedFunc     func(ctx context.Context, ids []int64) error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (s *MockStore) SaveChatMessage(ctx context.Context, username, message string) (*ChatMessage, error) {
	if s.SaveChatMessageFunc != nil {
		return s.SaveChatMessageFunc(ctx, username, message)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChatID++
	msg := ChatMessage{
		ID:        s.nextChatID,
		Username:  username,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.Chat = append(s.Chat, msg)
	return &msg, nil
}

func (s *MockStore) ChatMessagesNotEmbedded(ctx context.Context) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ChatMessage
	for _, m := range s.Chat {
		if !m.Embedded {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MockStore) MarkChatMessagesEmbedded(ctx context.Context, ids []int64) error {
	if s.MarkEmbeddedFunc != nil {
		return s.MarkEmbeddedFunc(ctx, ids)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		for i := range s.Chat {
			if s.Chat[i].ID == id {
				s.Chat[i].Embedded = true
			}
		}
	}
	return nil
}

func (s *MockStore) SaveDocument(ctx context.Context, content string, embedding []float32) error {
	if s.SaveDocumentFunc != nil {
		return s.SaveDocumentFunc(ctx, content, embedding)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Documents = append(s.Documents, Document{
		ID:        fmt.Sprintf("doc-%d", len(s.Documents)+1),
		Content:   content,
		Embedding: embedding,
	})
	return nil
}

func (s *MockStore) MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]MatchedDocument, error) {
	if s.MatchDocumentsFunc != nil {
		return s.MatchDocumentsFunc(ctx, embedding, threshold, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []MatchedDocument
	for _, d := range s.Documents {
		sim := cosineSimilarity(embedding, d.Embedding)
		if sim >= threshold {
			matches = append(matches, MatchedDocument{Content: d.Content, Similarity: sim})
		}
	}

	// Insertion sort by descending similarity; tiny inputs only.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Similarity > matches[j-1].Similarity; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MockStore) InsertBannedUser(ctx context.Context, username string) error {
	if s.InsertBannedUserFunc != nil {
		return s.InsertBannedUserFunc(ctx, username)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Banned = append(s.Banned, BannedUser{
		ID:       fmt.Sprintf("ban-%d", len(s.Banned)+1),
		Username: username,
	})
	return nil
}

func (s *MockStore) DeleteBannedUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Banned[:0]
	for _, b := range s.Banned {
		if b.Username != username {
			kept = append(kept, b)
		}
	}
	s.Banned = kept
	return nil
}

func (s *MockStore) DeleteAllBannedUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Banned = nil
	return nil
}

func (s *MockStore) BannedUsers(ctx context.Context) ([]BannedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BannedUser, len(s.Banned))
	copy(out, s.Banned)
	return out, nil
}

func (s *MockStore) Close() error {
	return nil
}

// BannedUsernames returns the banned usernames in insertion order (test helper).
func (s *MockStore) BannedUsernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, b := range s.Banned {
		names = append(names, b.Username)
	}
	return names
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
