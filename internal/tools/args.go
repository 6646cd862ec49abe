package tools

import (
	"strings"

	apperrors "github.com/pvlima/modbot/internal/errors"
)

// usernameArgs is the argument shape shared by every moderation tool that
// targets a single user.
type usernameArgs struct {
	Username string
}

// parseUsernameArgs validates the raw payload for tools taking a required
// username field.
func parseUsernameArgs(tool string, input map[string]any) (usernameArgs, error) {
	raw, present := input["username"]
	if !present {
		return usernameArgs{}, apperrors.InvalidToolArguments(tool, "missing required field \"username\"")
	}
	username, ok := raw.(string)
	if !ok {
		return usernameArgs{}, apperrors.InvalidToolArguments(tool, "field \"username\" must be a string")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return usernameArgs{}, apperrors.InvalidToolArguments(tool, "field \"username\" must not be empty")
	}
	return usernameArgs{Username: username}, nil
}

// usernameSchema is the JSON schema fragment for a required username argument.
func usernameSchema(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"username": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"username"},
	}
}

// emptySchema is the JSON schema for tools taking no arguments.
func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
