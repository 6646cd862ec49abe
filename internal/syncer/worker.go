package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pvlima/modbot/internal/config"
	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/store"
)

// Worker embeds newly stored chat messages as they are announced on the
// broadcast channel. Each event is handled to completion, with retries,
// before the next one is taken.
type Worker struct {
	store    store.Store
	embedder llm.EmbeddingClient
	cfg      config.SyncConfig
	log      *logger.Logger
}

// NewWorker creates a sync worker.
func NewWorker(st store.Store, embedder llm.EmbeddingClient, cfg config.SyncConfig) *Worker {
	return &Worker{
		store:    st,
		embedder: embedder,
		cfg:      cfg,
		log:      logger.WithPrefix("syncer"),
	}
}

// Run consumes events until the channel closes or the context is canceled.
// A failed event is logged and dropped; the worker keeps going.
func (w *Worker) Run(ctx context.Context, events <-chan store.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.HandleEvent(ctx, n); err != nil {
				w.log.Error("event dropped: %v", err)
			}
		}
	}
}

// HandleEvent embeds the chat message carried by a sync-document event and
// marks the source row embedded. Other event types are ignored.
func (w *Worker) HandleEvent(ctx context.Context, n store.Notification) error {
	if n.Event != store.EventSyncDocument {
		w.log.Debug("ignoring event %q", n.Event)
		return nil
	}

	var msg store.ChatMessage
	if err := json.Unmarshal([]byte(n.Payload.Message), &msg); err != nil {
		return apperrors.SyncFailed("undecodable event payload", err)
	}

	content := fmt.Sprintf("%s: %s", msg.Username, msg.Message)

	err := w.withRetry(ctx, func() error {
		embedding, err := w.embedder.Embed(ctx, content)
		if err != nil {
			return err
		}
		if err := w.store.SaveDocument(ctx, content, embedding); err != nil {
			return err
		}
		return w.store.MarkChatMessagesEmbedded(ctx, []int64{msg.ID})
	})
	if err != nil {
		return apperrors.SyncFailed(fmt.Sprintf("could not sync message %d", msg.ID), err)
	}

	w.log.Info("synced: %s", content)
	return nil
}

// SyncBacklog embeds every chat message the worker missed while it was not
// running. Called once at startup, before consuming live events.
func (w *Worker) SyncBacklog(ctx context.Context) error {
	messages, err := w.store.ChatMessagesNotEmbedded(ctx)
	if err != nil {
		return apperrors.SyncFailed("could not list unembedded messages", err)
	}
	if len(messages) == 0 {
		return nil
	}

	w.log.Info("syncing backlog of %d messages", len(messages))
	for _, msg := range messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return apperrors.SyncFailed("could not encode backlog message", err)
		}
		n := store.Notification{
			Event:   store.EventSyncDocument,
			Payload: store.Payload{Message: string(payload)},
		}
		if err := w.HandleEvent(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// withRetry runs fn with exponential backoff up to the configured attempt
// ceiling.
func (w *Worker) withRetry(ctx context.Context, fn func() error) error {
	maxAttempts := w.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	delay := w.cfg.RetryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		w.log.Warn("attempt %d/%d failed, retrying in %v: %v", attempt, maxAttempts, delay, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if w.cfg.RetryMaxDelay > 0 && delay > w.cfg.RetryMaxDelay {
			delay = w.cfg.RetryMaxDelay
		}
	}
	return lastErr
}
