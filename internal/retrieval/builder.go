package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/store"
)

// Builder turns a username into a prompt fragment summarizing chat messages
// that mention them, assembled from a similarity search over embedded chat
// history. Documents use the fixed "<username>: <message>" content format.
type Builder struct {
	embedder  llm.EmbeddingClient
	store     store.Store
	threshold float64
	limit     int
	log       *logger.Logger
}

// NewBuilder creates a mention summary builder.
func NewBuilder(embedder llm.EmbeddingClient, st store.Store, cfg config.RetrievalConfig) *Builder {
	return &Builder{
		embedder:  embedder,
		store:     st,
		threshold: cfg.MatchThreshold,
		limit:     cfg.MatchCount,
		log:       logger.WithPrefix("retrieval"),
	}
}

// MentionSummary embeds a question about username, searches for similar chat
// documents, and wraps the parsed matches in a sentiment-judgment instruction
// for the model. A failed search is treated as zero matches; a failed
// embedding propagates, since there is nothing to search with.
func (b *Builder) MentionSummary(ctx context.Context, username string) (string, error) {
	query := fmt.Sprintf("Is anyone talking about %s?", username)

	embedding, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed mention query: %w", err)
	}

	matches, err := b.store.MatchDocuments(ctx, embedding, b.threshold, b.limit)
	if err != nil {
		b.log.Warn("match documents failed, treating as no matches: %v", err)
		matches = nil
	}
	b.log.Debug("mention query for %q matched %d documents", username, len(matches))

	if len(matches) == 0 {
		return fmt.Sprintf("No, nobody is mentioning %s.", username), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Below are chat messages from users mentioning %s:\n---\n", username)

	n := 0
	for _, match := range matches {
		author, message, ok := parseDocumentContent(match.Content)
		if !ok {
			b.log.Warn("skipping document with unexpected content shape: %q", match.Content)
			continue
		}
		n++
		fmt.Fprintf(&sb, "%d. user: %s; comment: %s\n", n, author, message)
	}

	if n == 0 {
		return fmt.Sprintf("No, nobody is mentioning %s.", username), nil
	}

	fmt.Fprintf(&sb, "---\n")
	fmt.Fprintf(&sb, "Check whether these users are speaking ill of %s. ", username)
	fmt.Fprintf(&sb, "Explain what kind of comments these are and whether they are good or bad, mentioning each commenter by name.")

	return sb.String(), nil
}

// parseDocumentContent splits "<username>: <message>" at the first colon-space
// boundary. Content not matching that shape is skipped by the caller.
func parseDocumentContent(content string) (username, message string, ok bool) {
	username, message, ok = strings.Cut(content, ": ")
	if !ok || username == "" || message == "" {
		return "", "", false
	}
	return username, message, true
}
