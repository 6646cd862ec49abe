package llm

import (
	"context"
	"sync"
)

// MockCompletionClient implements CompletionClient for testing.
type MockCompletionClient struct {
	// Injectable behavior
	ChatFunc func(ctx context.Context, messages []Message, tools []ToolDefinition, systemPrompt string) (*Response, error)

	// State
	model string
	mu    sync.Mutex

	// Call recording
	ChatCalls []ChatCall
}

// ChatCall records the arguments of a Chat invocation.
type ChatCall struct {
	Messages     []Message
	Tools        []ToolDefinition
	SystemPrompt string
}

// NewMockCompletionClient creates a mock client with sensible defaults.
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{
		model: "mock-model",
	}
}

// Chat calls the injected ChatFunc or returns a default response.
func (m *MockCompletionClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, systemPrompt string) (*Response, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{
		Messages:     messages,
		Tools:        tools,
		SystemPrompt: systemPrompt,
	})
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages, tools, systemPrompt)
	}
	return &Response{
		Content:    "mock response",
		StopReason: "end_turn",
	}, nil
}

// GetModel returns the current model name.
func (m *MockCompletionClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// CallCount returns how many Chat invocations were recorded.
func (m *MockCompletionClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// MockEmbedder implements EmbeddingClient for testing.
type MockEmbedder struct {
	// Injectable behavior
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu sync.Mutex

	// Call recording
	EmbedCalls []string
}

// NewMockEmbedder creates a mock embedder returning a small fixed vector.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Embed calls the injected EmbedFunc or returns a deterministic vector.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls = append(m.EmbedCalls, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}

	// Deterministic vector derived from the text length so different
	// inputs produce different embeddings.
	v := make([]float32, 8)
	for i := range v {
		v[i] = float32((len(text)+i)%7) / 7.0
	}
	return v, nil
}

// CallCount returns how many Embed invocations were recorded.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.EmbedCalls)
}
