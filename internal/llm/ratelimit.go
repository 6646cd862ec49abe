package llm

import (
	"context"
	"time"

	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/logger"
	"golang.org/x/time/rate"
)

// TokenEstimator estimates token counts for rate limiting
type TokenEstimator struct{}

// NewTokenEstimator creates a new token estimator
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{}
}

// EstimateTokens estimates the number of tokens in a string.
// Uses a rough approximation: chars/4 + 20% buffer.
func (e *TokenEstimator) EstimateTokens(text string) int {
	baseEstimate := len(text) / 4
	return int(float64(baseEstimate) * 1.2)
}

// EstimateMessages estimates tokens for a slice of messages
func (e *TokenEstimator) EstimateMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		// Overhead for message structure (~4 tokens per message)
		total += 4
		total += e.EstimateTokens(msg.Content)
	}
	return total
}

// WaitInfo contains information about a rate limit wait
type WaitInfo struct {
	Duration    time.Duration // How long to wait
	Reason      string        // Why we're waiting
	Attempt     int           // Current attempt number (1-based, 0 if not a retry)
	MaxAttempts int           // Maximum number of attempts (0 if not a retry)
}

// WaitCallback is called when the client needs to wait due to rate limiting.
// It should block for the specified duration or until context is cancelled.
// If nil, a plain timer wait is used.
type WaitCallback func(ctx context.Context, info WaitInfo) error

// RateLimitedClient wraps a CompletionClient with a proactive token bucket
type RateLimitedClient struct {
	inner     CompletionClient
	limiter   *rate.Limiter
	burst     int
	estimator *TokenEstimator
	onWait    WaitCallback
}

// NewRateLimitedClient creates a rate-limited wrapper around a completion client
func NewRateLimitedClient(inner CompletionClient, cfg *config.RateLimitConfig) *RateLimitedClient {
	tokensPerSecond := float64(cfg.TokensPerMinute) / 60.0
	burst := cfg.TokensPerMinute / 6
	if burst < 1000 {
		burst = 1000
	}

	return &RateLimitedClient{
		inner:     inner,
		limiter:   rate.NewLimiter(rate.Limit(tokensPerSecond), burst),
		burst:     burst,
		estimator: NewTokenEstimator(),
	}
}

// SetWaitCallback sets a callback to be invoked when waiting for tokens
func (c *RateLimitedClient) SetWaitCallback(cb WaitCallback) {
	c.onWait = cb
}

// Chat reserves estimated tokens from the bucket before delegating
func (c *RateLimitedClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, systemPrompt string) (*Response, error) {
	estimate := c.estimator.EstimateMessages(messages) + c.estimator.EstimateTokens(systemPrompt)
	if estimate > c.burst {
		estimate = c.burst
	}

	reservation := c.limiter.ReserveN(time.Now(), estimate)
	if delay := reservation.Delay(); delay > 0 {
		logger.Debug("rate limit: waiting %s for %d tokens", delay, estimate)
		if err := c.wait(ctx, delay); err != nil {
			reservation.Cancel()
			return nil, err
		}
	}

	return c.inner.Chat(ctx, messages, tools, systemPrompt)
}

// GetModel returns the wrapped client's model
func (c *RateLimitedClient) GetModel() string {
	return c.inner.GetModel()
}

func (c *RateLimitedClient) wait(ctx context.Context, d time.Duration) error {
	if c.onWait != nil {
		return c.onWait(ctx, WaitInfo{
			Duration: d,
			Reason:   "token bucket cooldown",
		})
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
