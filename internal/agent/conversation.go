package agent

import (
	"fmt"

	"github.com/pvlima/modbot/internal/llm"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in a conversation. Assistant turns carry text content or
// tool requests; tool turns carry the result for exactly one request.
type Turn struct {
	Role       Role
	Content    string
	ToolCalls  []llm.ToolCall
	ToolCallID string
	IsError    bool
}

// Conversation is an append-only sequence of turns. The first turn is always
// the system instruction, and a tool reply is only accepted while its
// originating request is outstanding.
type Conversation struct {
	system  string
	turns   []Turn
	pending map[string]bool
}

// NewConversation creates a conversation seeded with the system instruction.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		system:  systemPrompt,
		turns:   []Turn{{Role: RoleSystem, Content: systemPrompt}},
		pending: make(map[string]bool),
	}
}

// SystemPrompt returns the system instruction.
func (c *Conversation) SystemPrompt() string {
	return c.system
}

// Len returns the number of turns, including the system turn.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the turn sequence.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// AddUser appends a user turn.
func (c *Conversation) AddUser(text string) {
	c.turns = append(c.turns, Turn{Role: RoleUser, Content: text})
}

// AddAssistantText appends a terminal assistant turn.
func (c *Conversation) AddAssistantText(text string) {
	c.turns = append(c.turns, Turn{Role: RoleAssistant, Content: text})
}

// AddAssistantToolCalls appends an assistant turn requesting tool
// invocations and marks each request id as awaiting a reply.
func (c *Conversation) AddAssistantToolCalls(calls []llm.ToolCall) {
	c.turns = append(c.turns, Turn{Role: RoleAssistant, ToolCalls: calls})
	for _, call := range calls {
		c.pending[call.ID] = true
	}
}

// AddToolReply appends a tool turn for an outstanding request. A reply whose
// id matches no outstanding request is rejected; that keeps the sequence free
// of orphan tool replies.
func (c *Conversation) AddToolReply(requestID, text string, isError bool) error {
	if !c.pending[requestID] {
		return fmt.Errorf("tool reply %q matches no outstanding request", requestID)
	}
	delete(c.pending, requestID)
	c.turns = append(c.turns, Turn{
		Role:       RoleTool,
		Content:    text,
		ToolCallID: requestID,
		IsError:    isError,
	})
	return nil
}

// PendingReplies returns how many tool requests still await a reply.
func (c *Conversation) PendingReplies() int {
	return len(c.pending)
}

// Reset drops everything but the system instruction.
func (c *Conversation) Reset() {
	c.turns = []Turn{{Role: RoleSystem, Content: c.system}}
	c.pending = make(map[string]bool)
}

// Messages converts the conversation into the client's wire shape. The
// system turn is carried separately (see SystemPrompt), matching how the
// provider wants it.
func (c *Conversation) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Role == RoleSystem {
			continue
		}
		msgs = append(msgs, llm.Message{
			Role:       string(t.Role),
			Content:    t.Content,
			ToolCalls:  t.ToolCalls,
			ToolCallID: t.ToolCallID,
			IsError:    t.IsError,
		})
	}
	return msgs
}
