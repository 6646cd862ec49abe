package agent

import (
	"context"
	"sync"

	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/tools"
)

const defaultMaxConcurrency = 4

// toolResult holds the outcome of one tool dispatch. Every dispatched
// request produces exactly one result, error or not.
type toolResult struct {
	Name       string
	Result     string
	IsError    bool
	Fatal      bool // Handler execution failure, as opposed to a bad request
	Err        error
	ToolCallID string
}

// toolExecutor dispatches one assistant turn's tool requests as a concurrent
// batch. All requests are issued before any result is awaited; the caller
// proceeds only after every dispatch has settled.
type toolExecutor struct {
	registry       *tools.Registry
	maxConcurrency int
}

func newToolExecutor(registry *tools.Registry, maxConcurrency int) *toolExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &toolExecutor{
		registry:       registry,
		maxConcurrency: maxConcurrency,
	}
}

// ExecuteToolCalls runs the batch and returns results in request order.
// Unknown tools and malformed arguments fail only their own dispatch and are
// marked non-fatal so the model can react; handler failures are marked fatal
// and left to the caller's recovery policy.
func (te *toolExecutor) ExecuteToolCalls(ctx context.Context, calls []llm.ToolCall, progress Progress) []toolResult {
	results := make([]toolResult, len(calls))
	sem := make(chan struct{}, te.maxConcurrency)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call llm.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if progress != nil {
				progress.SetMessage("executing: " + call.Name)
			}

			result, err := te.registry.Dispatch(ctx, call)
			if err != nil {
				results[idx] = te.errorResult(call, err)
				return
			}
			results[idx] = toolResult{
				Name:       call.Name,
				Result:     result,
				ToolCallID: call.ID,
			}
		}(i, call)
	}
	wg.Wait()

	return results
}

func (te *toolExecutor) errorResult(call llm.ToolCall, err error) toolResult {
	r := toolResult{
		Name:       call.Name,
		Result:     "Error: " + apperrors.GetUserMessage(err),
		IsError:    true,
		Err:        err,
		ToolCallID: call.ID,
	}

	switch apperrors.GetCode(err) {
	case apperrors.CodeToolNotFound, apperrors.CodeInvalidToolArgs:
		// The request was bad, not the handler; the model can correct it.
	default:
		r.Fatal = true
		r.Err = apperrors.ToolExecutionFailed(call.Name, err)
	}

	return r
}
