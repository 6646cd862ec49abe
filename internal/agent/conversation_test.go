package agent

import (
	"testing"

	"github.com/pvlima/modbot/internal/llm"
)

func TestConversationStartsWithSystemTurn(t *testing.T) {
	conv := NewConversation("be helpful")

	if conv.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", conv.Len())
	}
	turns := conv.Turns()
	if turns[0].Role != RoleSystem {
		t.Errorf("first turn role = %s, want %s", turns[0].Role, RoleSystem)
	}
	if conv.SystemPrompt() != "be helpful" {
		t.Errorf("system prompt = %q", conv.SystemPrompt())
	}
}

func TestConversationToolReplyLifecycle(t *testing.T) {
	conv := NewConversation("sys")
	conv.AddUser("ban alice")
	conv.AddAssistantToolCalls([]llm.ToolCall{
		{ID: "call-1", Name: "banUser"},
		{ID: "call-2", Name: "liftAllBans"},
	})

	if got := conv.PendingReplies(); got != 2 {
		t.Fatalf("pending replies = %d, want 2", got)
	}

	if err := conv.AddToolReply("call-1", "done", false); err != nil {
		t.Fatalf("AddToolReply: %v", err)
	}
	if err := conv.AddToolReply("call-2", "failed", true); err != nil {
		t.Fatalf("AddToolReply: %v", err)
	}
	if got := conv.PendingReplies(); got != 0 {
		t.Errorf("pending replies = %d, want 0", got)
	}
}

func TestConversationRejectsOrphanToolReply(t *testing.T) {
	conv := NewConversation("sys")
	conv.AddUser("hello")

	if err := conv.AddToolReply("nope", "result", false); err == nil {
		t.Fatal("expected error for reply without outstanding request")
	}
	if conv.Len() != 2 {
		t.Errorf("orphan reply must not be appended, got %d turns", conv.Len())
	}
}

func TestConversationRejectsDuplicateToolReply(t *testing.T) {
	conv := NewConversation("sys")
	conv.AddAssistantToolCalls([]llm.ToolCall{{ID: "call-1", Name: "banUser"}})

	if err := conv.AddToolReply("call-1", "ok", false); err != nil {
		t.Fatalf("first reply: %v", err)
	}
	if err := conv.AddToolReply("call-1", "again", false); err == nil {
		t.Fatal("expected error for second reply to the same request")
	}
}

func TestConversationReset(t *testing.T) {
	conv := NewConversation("sys")
	conv.AddUser("hello")
	conv.AddAssistantToolCalls([]llm.ToolCall{{ID: "call-1", Name: "banUser"}})

	conv.Reset()

	if conv.Len() != 1 {
		t.Errorf("after reset Len = %d, want 1", conv.Len())
	}
	if conv.PendingReplies() != 0 {
		t.Errorf("after reset pending = %d, want 0", conv.PendingReplies())
	}
	if conv.SystemPrompt() != "sys" {
		t.Errorf("system prompt lost on reset")
	}
}

func TestConversationMessagesSkipSystemTurn(t *testing.T) {
	conv := NewConversation("sys")
	conv.AddUser("hello")
	conv.AddAssistantText("hi there")

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
}
