package agent

import (
	"context"

	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
)

// Converse resolves one user message into a final assistant answer, running
// as many completion/tool-dispatch rounds as that takes, up to the configured
// iteration ceiling.
func (a *Agent) Converse(ctx context.Context, userMessage string) (string, error) {
	a.conv.AddUser(userMessage)

	maxIterations := a.config.Agent.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 20
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		a.startProgress("thinking")

		resp, err := a.requestCompletion(ctx)
		if err != nil {
			a.stopProgress()
			return "", err
		}

		// Text with no tool requests ends the turn.
		if len(resp.ToolCalls) == 0 {
			a.stopProgress()
			if resp.Content == "" {
				a.log.Error("completion carried neither text nor tool requests (stop_reason=%s)", resp.StopReason)
				return "", apperrors.ProtocolViolation()
			}
			a.conv.AddAssistantText(resp.Content)
			return resp.Content, nil
		}

		a.conv.AddAssistantToolCalls(resp.ToolCalls)
		a.log.Info("iteration %d: dispatching %d tool calls", iteration+1, len(resp.ToolCalls))

		results := a.executor.ExecuteToolCalls(ctx, resp.ToolCalls, a.progress)
		a.stopProgress()

		// Every request gets its reply turn before anything can abort, so
		// the conversation never carries an unanswered tool request.
		var fatal error
		for i, res := range results {
			a.output.ToolCall(res.Name, describeCall(resp.ToolCalls[i]))
			a.output.ToolResult(res.Name, res.Result, res.IsError)

			if err := a.conv.AddToolReply(res.ToolCallID, res.Result, res.IsError); err != nil {
				a.log.Error("dropping tool reply: %v", err)
			}
			if res.Fatal && fatal == nil {
				fatal = res.Err
			}
		}

		if fatal != nil {
			if !a.config.Agent.RecoverToolErrors {
				return "", fatal
			}
			a.log.Warn("recovering from tool failure: %v", fatal)
		}
	}

	return "", apperrors.MaxIterationsReached(maxIterations)
}

// requestCompletion asks for the next assistant turn under the per-request
// timeout.
func (a *Agent) requestCompletion(ctx context.Context) (*llm.Response, error) {
	timeout := a.config.Agent.CompletionTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := a.llm.Chat(ctx, a.conv.Messages(), a.registry.Definitions(), a.conv.SystemPrompt())
	if err != nil {
		return nil, apperrors.ProviderRequestFailed(err)
	}
	return resp, nil
}

// describeCall renders a tool request's arguments for display.
func describeCall(call llm.ToolCall) string {
	if username, ok := call.Input["username"].(string); ok {
		return "username=" + username
	}
	return ""
}
