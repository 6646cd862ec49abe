package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/logger"
)

// Message represents a conversation message
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // Assistant turns requesting tool invocations
	ToolCallID string     // Tool turns: id of the originating request
	IsError    bool       // Tool turns: result is a failure message
}

// ToolCall represents a tool call from the LLM
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Response represents an LLM response
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
}

// ToolDefinition defines a tool for the LLM
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// CompletionClient is the interface for completion clients
type CompletionClient interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, systemPrompt string) (*Response, error)
	GetModel() string
}

// EmbeddingClient turns free text into a fixed-length vector
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the Anthropic SDK
type Client struct {
	client *anthropic.Client
	config *config.Config
	model  string
}

// NewClient creates a new completion client
func NewClient(cfg *config.Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.RateLimit.MaxRetries),
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		client: &client,
		config: cfg,
		model:  cfg.Model,
	}
}

// SetModel changes the current model
func (c *Client) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model
func (c *Client) GetModel() string {
	return c.model
}

// Chat sends a conversation and returns one assistant turn
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, systemPrompt string) (*Response, error) {
	logger.Debug("Chat: sending request with %d messages, %d tools", len(messages), len(tools))

	params := c.buildParams(messages, tools, systemPrompt)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Chat: API error: %v", err)
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	logger.Debug("Chat: received response with stop_reason=%s", msg.StopReason)
	return c.parseResponse(msg), nil
}

func (c *Client) buildParams(messages []Message, tools []ToolDefinition, systemPrompt string) anthropic.MessageNewParams {
	var apiMessages []anthropic.MessageParam

	// The API requires strictly alternating roles, so blocks headed for the
	// same role as the previous message are merged into it. Tool result turns
	// become tool_result blocks in a user message, which also coalesces a
	// whole batch of results into one message.
	appendBlocks := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if n := len(apiMessages); n > 0 && apiMessages[n-1].Role == role {
			apiMessages[n-1].Content = append(apiMessages[n-1].Content, blocks...)
			return
		}
		apiMessages = append(apiMessages, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			appendBlocks(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: tc.Input,
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			appendBlocks(anthropic.MessageParamRoleAssistant, blocks...)
		case "tool":
			appendBlocks(anthropic.MessageParamRoleUser, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: msg.ToolCallID,
					IsError:   anthropic.Bool(msg.IsError),
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: msg.Content}},
					},
				},
			})
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(c.config.Temperature),
		Messages:    apiMessages,
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}

	if len(tools) > 0 {
		var apiTools []anthropic.ToolUnionParam
		for _, tool := range tools {
			schema := buildInputSchema(tool.InputSchema)
			toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
			toolParam.OfTool.Description = anthropic.String(tool.Description)

			apiTools = append(apiTools, toolParam)
		}
		params.Tools = apiTools
	}

	return params
}

func (c *Client) parseResponse(msg *anthropic.Message) *Response {
	resp := &Response{
		StopReason: string(msg.StopReason),
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]any
			if err := json.Unmarshal(b.Input, &input); err != nil {
				logger.Warn("failed to parse tool input for %s: %v", b.Name, err)
				input = make(map[string]any)
			}
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			})
		}
	}

	return resp
}

// buildInputSchema converts a tool's schema map to the SDK's ToolInputSchemaParam
func buildInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	result := anthropic.ToolInputSchemaParam{}

	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = props
	}

	if req, ok := schema["required"]; ok {
		result.ExtraFields = map[string]interface{}{
			"required": req,
		}
	}

	return result
}
