package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/store"
)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		Channel:        "modbot_events",
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

func syncEvent(t *testing.T, msg store.ChatMessage) store.Notification {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return store.Notification{
		Event:   store.EventSyncDocument,
		Payload: store.Payload{Message: string(payload)},
	}
}

func TestHandleEventEmbedsAndMarks(t *testing.T) {
	st := store.NewMockStore()
	msg, _ := st.SaveChatMessage(context.Background(), "@bob", "alice is great")
	embedder := llm.NewMockEmbedder()
	worker := NewWorker(st, embedder, testSyncConfig())

	if err := worker.HandleEvent(context.Background(), syncEvent(t, *msg)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(st.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(st.Documents))
	}
	if st.Documents[0].Content != "@bob: alice is great" {
		t.Errorf("document content = %q", st.Documents[0].Content)
	}
	if embedder.CallCount() != 1 {
		t.Errorf("embeddings = %d, want 1", embedder.CallCount())
	}

	remaining, _ := st.ChatMessagesNotEmbedded(context.Background())
	if len(remaining) != 0 {
		t.Errorf("unembedded messages = %d, want 0", len(remaining))
	}
}

func TestHandleEventIgnoresOtherEvents(t *testing.T) {
	st := store.NewMockStore()
	embedder := llm.NewMockEmbedder()
	worker := NewWorker(st, embedder, testSyncConfig())

	n := store.Notification{Event: "presence", Payload: store.Payload{Message: "{}"}}
	if err := worker.HandleEvent(context.Background(), n); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if embedder.CallCount() != 0 {
		t.Errorf("embeddings = %d, want 0", embedder.CallCount())
	}
}

func TestHandleEventMalformedPayload(t *testing.T) {
	st := store.NewMockStore()
	worker := NewWorker(st, llm.NewMockEmbedder(), testSyncConfig())

	n := store.Notification{
		Event:   store.EventSyncDocument,
		Payload: store.Payload{Message: "not json"},
	}
	if err := worker.HandleEvent(context.Background(), n); err == nil {
		t.Fatal("expected error")
	}
	if len(st.Documents) != 0 {
		t.Errorf("documents = %d, want 0", len(st.Documents))
	}
}

func TestHandleEventRetriesTransientFailure(t *testing.T) {
	st := store.NewMockStore()
	msg, _ := st.SaveChatMessage(context.Background(), "@bob", "hello")

	attempts := 0
	embedder := llm.NewMockEmbedder()
	embedder.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporary failure")
		}
		return []float32{0.1, 0.2, 0.3}, nil
	}
	worker := NewWorker(st, embedder, testSyncConfig())

	if err := worker.HandleEvent(context.Background(), syncEvent(t, *msg)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(st.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(st.Documents))
	}
}

func TestHandleEventGivesUpAfterMaxAttempts(t *testing.T) {
	st := store.NewMockStore()
	msg, _ := st.SaveChatMessage(context.Background(), "@bob", "hello")

	attempts := 0
	embedder := llm.NewMockEmbedder()
	embedder.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		attempts++
		return nil, errors.New("permanent failure")
	}
	worker := NewWorker(st, embedder, testSyncConfig())

	if err := worker.HandleEvent(context.Background(), syncEvent(t, *msg)); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	// The source row stays unembedded so a later backlog pass can retry it.
	remaining, _ := st.ChatMessagesNotEmbedded(context.Background())
	if len(remaining) != 1 {
		t.Errorf("unembedded messages = %d, want 1", len(remaining))
	}
}

func TestSyncBacklog(t *testing.T) {
	st := store.NewMockStore()
	_, _ = st.SaveChatMessage(context.Background(), "@bob", "one")
	_, _ = st.SaveChatMessage(context.Background(), "@carol", "two")
	worker := NewWorker(st, llm.NewMockEmbedder(), testSyncConfig())

	if err := worker.SyncBacklog(context.Background()); err != nil {
		t.Fatalf("SyncBacklog: %v", err)
	}
	if len(st.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(st.Documents))
	}
	remaining, _ := st.ChatMessagesNotEmbedded(context.Background())
	if len(remaining) != 0 {
		t.Errorf("unembedded messages = %d, want 0", len(remaining))
	}
}

func TestRunConsumesEventsUntilClose(t *testing.T) {
	st := store.NewMockStore()
	msg, _ := st.SaveChatMessage(context.Background(), "@bob", "hello")
	worker := NewWorker(st, llm.NewMockEmbedder(), testSyncConfig())

	events := make(chan store.Notification, 1)
	events <- syncEvent(t, *msg)
	close(events)

	if err := worker.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(st.Documents))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	worker := NewWorker(store.NewMockStore(), llm.NewMockEmbedder(), testSyncConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan store.Notification)
	if err := worker.Run(ctx, events); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
