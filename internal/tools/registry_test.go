package tools

import (
	"context"
	"testing"

	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/store"
)

func TestRegistryDispatchUnknownTool(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.CodeToolNotFound {
		t.Errorf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodeToolNotFound)
	}
}

func TestRegistryDefinitionsKeepRegistrationOrder(t *testing.T) {
	st := store.NewMockStore()
	registry := NewRegistry()
	registry.Register(NewBanUserTool(st))
	registry.Register(NewLiftTheBanTool(st))
	registry.Register(NewLiftAllBansTool(st))

	defs := registry.Definitions()
	want := []string{"banUser", "liftTheBan", "liftAllBans"}
	if len(defs) != len(want) {
		t.Fatalf("definitions = %d, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestParseUsernameArgs(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"username": "@alice"}, false},
		{"missing", map[string]any{}, true},
		{"wrong type", map[string]any{"username": 42}, true},
		{"empty", map[string]any{"username": ""}, true},
		{"nil input", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseUsernameArgs("banUser", tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.GetCode(err) != apperrors.CodeInvalidToolArgs {
					t.Errorf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodeInvalidToolArgs)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseUsernameArgs: %v", err)
			}
			if args.Username != "@alice" {
				t.Errorf("username = %q", args.Username)
			}
		})
	}
}
