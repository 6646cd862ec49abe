package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/pvlima/modbot/internal/config"
)

func TestTokenEstimator(t *testing.T) {
	e := NewTokenEstimator()

	text := strings.Repeat("a", 400)
	// 400 chars / 4 = 100 tokens, +20% buffer = 120
	if got := e.EstimateTokens(text); got != 120 {
		t.Errorf("EstimateTokens = %d, want 120", got)
	}

	msgs := []Message{
		{Role: "user", Content: text},
		{Role: "assistant", Content: text},
	}
	// 2 * (4 overhead + 120)
	if got := e.EstimateMessages(msgs); got != 248 {
		t.Errorf("EstimateMessages = %d, want 248", got)
	}
}

func TestRateLimitedClientDelegates(t *testing.T) {
	inner := NewMockCompletionClient()
	cfg := &config.RateLimitConfig{TokensPerMinute: 600000}
	c := NewRateLimitedClient(inner, cfg)

	resp, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil, "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("content = %q", resp.Content)
	}
	if c.GetModel() != inner.GetModel() {
		t.Errorf("GetModel = %q, want %q", c.GetModel(), inner.GetModel())
	}
}

func TestRateLimitedClientInvokesWaitCallback(t *testing.T) {
	inner := NewMockCompletionClient()
	// A tiny budget forces a wait once the burst is consumed.
	cfg := &config.RateLimitConfig{TokensPerMinute: 6000}
	c := NewRateLimitedClient(inner, cfg)

	waited := false
	c.SetWaitCallback(func(ctx context.Context, info WaitInfo) error {
		waited = true
		if info.Duration <= 0 {
			t.Errorf("wait duration = %v, want > 0", info.Duration)
		}
		return nil
	})

	big := strings.Repeat("a", 20000)
	for i := 0; i < 3 && !waited; i++ {
		if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: big}}, nil, ""); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	if !waited {
		t.Error("wait callback never invoked")
	}
}

func TestRateLimitedClientCancelledWait(t *testing.T) {
	inner := NewMockCompletionClient()
	cfg := &config.RateLimitConfig{TokensPerMinute: 6000}
	c := NewRateLimitedClient(inner, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	c.SetWaitCallback(func(ctx context.Context, info WaitInfo) error {
		cancel()
		return ctx.Err()
	})

	big := strings.Repeat("a", 20000)
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		_, err = c.Chat(ctx, []Message{{Role: "user", Content: big}}, nil, "")
	}
	if err == nil {
		t.Error("expected error after cancelled wait")
	}
}
