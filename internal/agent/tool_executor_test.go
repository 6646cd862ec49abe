package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/tools"
)

// slowTool blocks until released, recording peak concurrency.
type slowTool struct {
	name    string
	active  *atomic.Int32
	peak    *atomic.Int32
	release chan struct{}
}

func (t *slowTool) Name() string                { return t.name }
func (t *slowTool) Description() string         { return "slow tool" }
func (t *slowTool) InputSchema() map[string]any { return map[string]any{} }
func (t *slowTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	n := t.active.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-t.release
	t.active.Add(-1)
	return "done", nil
}

func TestExecuteToolCallsPreservesRequestOrder(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&echoTool{name: "echo"})
	executor := newToolExecutor(registry, 4)

	var calls []llm.ToolCall
	for i := 0; i < 8; i++ {
		calls = append(calls, llm.ToolCall{
			ID:    fmt.Sprintf("call-%d", i),
			Name:  "echo",
			Input: map[string]any{"username": fmt.Sprintf("user-%d", i)},
		})
	}

	results := executor.ExecuteToolCalls(context.Background(), calls, nil)
	if len(results) != len(calls) {
		t.Fatalf("results = %d, want %d", len(results), len(calls))
	}
	for i, res := range results {
		if res.ToolCallID != calls[i].ID {
			t.Errorf("results[%d].ToolCallID = %q, want %q", i, res.ToolCallID, calls[i].ID)
		}
		if want := fmt.Sprintf("echo: user-%d", i); res.Result != want {
			t.Errorf("results[%d].Result = %q, want %q", i, res.Result, want)
		}
	}
}

func TestExecuteToolCallsBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	release := make(chan struct{})
	registry := tools.NewRegistry()
	registry.Register(&slowTool{name: "slow", active: &active, peak: &peak, release: release})
	executor := newToolExecutor(registry, 2)

	var calls []llm.ToolCall
	for i := 0; i < 6; i++ {
		calls = append(calls, llm.ToolCall{ID: fmt.Sprintf("call-%d", i), Name: "slow"})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		executor.ExecuteToolCalls(context.Background(), calls, nil)
	}()

	close(release)
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestExecuteToolCallsMixedOutcomes(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&echoTool{name: "echo"})
	executor := newToolExecutor(registry, 4)

	calls := []llm.ToolCall{
		{ID: "call-1", Name: "echo", Input: map[string]any{"username": "alice"}},
		{ID: "call-2", Name: "missing"},
	}

	results := executor.ExecuteToolCalls(context.Background(), calls, nil)
	if results[0].IsError {
		t.Errorf("first result should succeed: %+v", results[0])
	}
	if !results[1].IsError || results[1].Fatal {
		t.Errorf("unknown tool should be a non-fatal error: %+v", results[1])
	}
}
