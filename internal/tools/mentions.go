package tools

import (
	"context"

	"github.com/pvlima/modbot/internal/retrieval"
)

// MentionsTool answers "is anyone talking about X?" by delegating to the
// retrieval builder and returning its prompt fragment verbatim, so the next
// completion request sees the matched chat history.
type MentionsTool struct {
	builder *retrieval.Builder
}

// NewMentionsTool creates the areYouTalkingAboutSomeoneInTheChat tool.
func NewMentionsTool(builder *retrieval.Builder) *MentionsTool {
	return &MentionsTool{builder: builder}
}

func (t *MentionsTool) Name() string {
	return "areYouTalkingAboutSomeoneInTheChat"
}

func (t *MentionsTool) Description() string {
	return "Check whether anyone in the chat is talking about a given user."
}

func (t *MentionsTool) InputSchema() map[string]any {
	return usernameSchema("The username of the person being talked about.")
}

func (t *MentionsTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	args, err := parseUsernameArgs(t.Name(), input)
	if err != nil {
		return "", err
	}
	return t.builder.MentionSummary(ctx, args.Username)
}
