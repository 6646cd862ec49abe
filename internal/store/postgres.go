package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the chat log, document collection and banned user
// list in PostgreSQL, with pgvector backing the similarity search.
type PostgresStore struct {
	pool       *pgxpool.Pool
	channel    string
	dimensions int
}

// PostgresOptions configures a PostgresStore.
type PostgresOptions struct {
	DatabaseURL string
	Channel     string // NOTIFY channel for new chat messages
	Dimensions  int    // Embedding vector width
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{
		pool:       pool,
		channel:    opts.Channel,
		dimensions: opts.Dimensions,
	}
	if s.dimensions <= 0 {
		s.dimensions = 1536
	}

	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		`CREATE TABLE IF NOT EXISTS chat (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			embedded BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		);`, s.dimensions),
		`CREATE TABLE IF NOT EXISTS banned_users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_embedded ON chat (embedded) WHERE NOT embedded;`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// SaveChatMessage inserts a chat row and broadcasts a sync-document event so
// the sync worker picks it up.
func (s *PostgresStore) SaveChatMessage(ctx context.Context, username, message string) (*ChatMessage, error) {
	msg := &ChatMessage{
		Username: username,
		Message:  message,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat (username, message) VALUES ($1, $2) RETURNING id, created_at, embedded`,
		username, message,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.Embedded)
	if err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}

	if err := s.notifySyncDocument(ctx, msg); err != nil {
		// The row exists either way; the worker's not-embedded query scope
		// will catch it on the next sweep.
		return msg, fmt.Errorf("notify sync-document: %w", err)
	}

	return msg, nil
}

func (s *PostgresStore) notifySyncDocument(ctx context.Context, msg *ChatMessage) error {
	if s.channel == "" {
		return nil
	}

	serialized, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	envelope, err := json.Marshal(Notification{
		Event:   EventSyncDocument,
		Payload: Payload{Message: string(serialized)},
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(envelope))
	return err
}

// ChatMessagesNotEmbedded returns chat rows the sync worker has not yet processed.
func (s *PostgresStore) ChatMessagesNotEmbedded(ctx context.Context) ([]ChatMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, message, created_at, embedded FROM chat WHERE embedded = FALSE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query not-embedded chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Username, &m.Message, &m.CreatedAt, &m.Embedded); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}
	return msgs, nil
}

// MarkChatMessagesEmbedded flips the embedded flag for the given chat rows.
func (s *PostgresStore) MarkChatMessagesEmbedded(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE chat SET embedded = TRUE WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark chat messages embedded: %w", err)
	}
	return nil
}

// SaveDocument stores one embedded document.
func (s *PostgresStore) SaveDocument(ctx context.Context, content string, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, content, embedding) VALUES ($1, $2, $3::vector)`,
		uuid.NewString(), content, encodeVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// MatchDocuments returns documents whose cosine similarity to the query
// embedding is at least threshold, most similar first, at most limit rows.
// Tie-breaking within equal similarities is whatever the planner yields.
func (s *PostgresStore) MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]MatchedDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content, 1 - (embedding <=> $1::vector) AS similarity
		 FROM documents
		 WHERE 1 - (embedding <=> $1::vector) >= $2
		 ORDER BY similarity DESC
		 LIMIT $3`,
		encodeVector(embedding), threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}
	defer rows.Close()

	var matches []MatchedDocument
	for rows.Next() {
		var m MatchedDocument
		if err := rows.Scan(&m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}

// InsertBannedUser adds a username to the moderation list. Duplicate bans
// create duplicate rows; the list is append-only on purpose.
func (s *PostgresStore) InsertBannedUser(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO banned_users (id, username) VALUES ($1, $2)`,
		uuid.NewString(), username,
	)
	if err != nil {
		return fmt.Errorf("insert banned user: %w", err)
	}
	return nil
}

// DeleteBannedUser removes all ban rows for a username. Deleting a username
// that is not banned is a no-op, not an error.
func (s *PostgresStore) DeleteBannedUser(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM banned_users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete banned user: %w", err)
	}
	return nil
}

// DeleteAllBannedUsers clears the moderation list.
func (s *PostgresStore) DeleteAllBannedUsers(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM banned_users`)
	if err != nil {
		return fmt.Errorf("delete all banned users: %w", err)
	}
	return nil
}

// BannedUsers lists the moderation list.
func (s *PostgresStore) BannedUsers(ctx context.Context) ([]BannedUser, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username FROM banned_users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query banned users: %w", err)
	}
	defer rows.Close()

	var users []BannedUser
	for rows.Next() {
		var u BannedUser
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan banned user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banned user rows: %w", err)
	}
	return users, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
