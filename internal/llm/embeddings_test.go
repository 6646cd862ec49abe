package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pvlima/modbot/internal/config"
)

func testEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.EmbeddingAPIKey = "sk-test"
	cfg.EmbeddingDimensions = 3
	e := NewOpenAIEmbedder(cfg)
	e.SetBaseURL(srv.URL)
	return e
}

func TestEmbedSendsModelAndInput(t *testing.T) {
	var gotAuth string
	var gotBody embeddingsRequest

	e := testEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	})

	vec, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length = %d, want 3", len(vec))
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Input != "hello world" {
		t.Errorf("input = %q", gotBody.Input)
	}
	if gotBody.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", gotBody.Model)
	}
}

func TestEmbedAPIErrorStatus(t *testing.T) {
	e := testEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedErrorBody(t *testing.T) {
	e := testEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid model", "type": "invalid_request_error"},
		})
	})

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedEmptyData(t *testing.T) {
	e := testEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty data")
	}
}
