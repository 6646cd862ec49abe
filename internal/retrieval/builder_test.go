package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/store"
)

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{MatchThreshold: 0.5, MatchCount: 10}
}

func TestMentionSummaryNoMatches(t *testing.T) {
	st := store.NewMockStore()
	builder := NewBuilder(llm.NewMockEmbedder(), st, testConfig())

	summary, err := builder.MentionSummary(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("MentionSummary: %v", err)
	}
	if summary != "No, nobody is mentioning @alice." {
		t.Errorf("summary = %q", summary)
	}
}

func TestMentionSummaryFormatsMatches(t *testing.T) {
	st := store.NewMockStore()
	st.MatchDocumentsFunc = func(ctx context.Context, embedding []float32, threshold float64, limit int) ([]store.MatchedDocument, error) {
		return []store.MatchedDocument{
			{Content: "@bob: alice is terrible at this game", Similarity: 0.9},
			{Content: "@carol: I think alice is great", Similarity: 0.7},
		}, nil
	}
	builder := NewBuilder(llm.NewMockEmbedder(), st, testConfig())

	summary, err := builder.MentionSummary(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("MentionSummary: %v", err)
	}

	if !strings.Contains(summary, "1. user: @bob; comment: alice is terrible at this game") {
		t.Errorf("missing first match:\n%s", summary)
	}
	if !strings.Contains(summary, "2. user: @carol; comment: I think alice is great") {
		t.Errorf("missing second match:\n%s", summary)
	}
	if !strings.Contains(summary, "speaking ill of @alice") {
		t.Errorf("missing judgment instruction:\n%s", summary)
	}
}

func TestMentionSummarySkipsMalformedDocuments(t *testing.T) {
	st := store.NewMockStore()
	st.MatchDocumentsFunc = func(ctx context.Context, embedding []float32, threshold float64, limit int) ([]store.MatchedDocument, error) {
		return []store.MatchedDocument{
			{Content: "no separator here", Similarity: 0.9},
			{Content: "@bob: a real comment", Similarity: 0.8},
		}, nil
	}
	builder := NewBuilder(llm.NewMockEmbedder(), st, testConfig())

	summary, err := builder.MentionSummary(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("MentionSummary: %v", err)
	}
	if !strings.Contains(summary, "1. user: @bob; comment: a real comment") {
		t.Errorf("valid document dropped:\n%s", summary)
	}
	if strings.Contains(summary, "no separator here") {
		t.Errorf("malformed document included:\n%s", summary)
	}
}

func TestMentionSummaryAllMalformedMeansNoMatches(t *testing.T) {
	st := store.NewMockStore()
	st.MatchDocumentsFunc = func(ctx context.Context, embedding []float32, threshold float64, limit int) ([]store.MatchedDocument, error) {
		return []store.MatchedDocument{{Content: "garbage", Similarity: 0.9}}, nil
	}
	builder := NewBuilder(llm.NewMockEmbedder(), st, testConfig())

	summary, err := builder.MentionSummary(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("MentionSummary: %v", err)
	}
	if summary != "No, nobody is mentioning @alice." {
		t.Errorf("summary = %q", summary)
	}
}

func TestMentionSummaryEmbeddingFailurePropagates(t *testing.T) {
	st := store.NewMockStore()
	embedder := llm.NewMockEmbedder()
	embedder.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}
	builder := NewBuilder(embedder, st, testConfig())

	if _, err := builder.MentionSummary(context.Background(), "@alice"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMentionSummarySearchFailureTreatedAsNoMatches(t *testing.T) {
	st := store.NewMockStore()
	st.MatchDocumentsFunc = func(ctx context.Context, embedding []float32, threshold float64, limit int) ([]store.MatchedDocument, error) {
		return nil, errors.New("connection refused")
	}
	builder := NewBuilder(llm.NewMockEmbedder(), st, testConfig())

	summary, err := builder.MentionSummary(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("MentionSummary: %v", err)
	}
	if summary != "No, nobody is mentioning @alice." {
		t.Errorf("summary = %q", summary)
	}
}

func TestParseDocumentContent(t *testing.T) {
	tests := []struct {
		content  string
		username string
		message  string
		ok       bool
	}{
		{"@bob: hello there", "@bob", "hello there", true},
		{"@bob: a: b: c", "@bob", "a: b: c", true},
		{"no separator", "", "", false},
		{": leading", "", "", false},
		{"@bob: ", "", "", false},
	}

	for _, tt := range tests {
		username, message, ok := parseDocumentContent(tt.content)
		if ok != tt.ok || username != tt.username || message != tt.message {
			t.Errorf("parseDocumentContent(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.content, username, message, ok, tt.username, tt.message, tt.ok)
		}
	}
}
