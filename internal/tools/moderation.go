package tools

import (
	"context"
	"fmt"

	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/store"
)

// Store failures inside moderation handlers are logged and the confirmation
// is still returned; the conversation should not die because one insert
// failed. Only provider failures propagate.

// BanUserTool adds a username to the moderation list.
type BanUserTool struct {
	store store.Store
	log   *logger.Logger
}

// NewBanUserTool creates the banUser tool.
func NewBanUserTool(st store.Store) *BanUserTool {
	return &BanUserTool{store: st, log: logger.WithPrefix("tools")}
}

func (t *BanUserTool) Name() string {
	return "banUser"
}

func (t *BanUserTool) Description() string {
	return "Ban a user from the chat."
}

func (t *BanUserTool) InputSchema() map[string]any {
	return usernameSchema("The username of the person to ban.")
}

func (t *BanUserTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	args, err := parseUsernameArgs(t.Name(), input)
	if err != nil {
		return "", err
	}

	if err := t.store.InsertBannedUser(ctx, args.Username); err != nil {
		t.log.Warn("ban insert failed for %q: %v", args.Username, err)
	}
	t.log.Info("banning user %q", args.Username)

	return fmt.Sprintf("User %s has been banned successfully. Announce this in a strict and formal tone.", args.Username), nil
}

// LiftTheBanTool removes a username from the moderation list. Lifting a ban
// that does not exist succeeds; the end state is the same.
type LiftTheBanTool struct {
	store store.Store
	log   *logger.Logger
}

// NewLiftTheBanTool creates the liftTheBan tool.
func NewLiftTheBanTool(st store.Store) *LiftTheBanTool {
	return &LiftTheBanTool{store: st, log: logger.WithPrefix("tools")}
}

func (t *LiftTheBanTool) Name() string {
	return "liftTheBan"
}

func (t *LiftTheBanTool) Description() string {
	return "Lift the ban from a user."
}

func (t *LiftTheBanTool) InputSchema() map[string]any {
	return usernameSchema("The username of the person to unban.")
}

func (t *LiftTheBanTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	args, err := parseUsernameArgs(t.Name(), input)
	if err != nil {
		return "", err
	}

	if err := t.store.DeleteBannedUser(ctx, args.Username); err != nil {
		t.log.Warn("ban delete failed for %q: %v", args.Username, err)
	}
	t.log.Info("lifting ban for user %q", args.Username)

	return fmt.Sprintf("The ban on user %s has been lifted successfully. Announce this in a strict and formal tone.", args.Username), nil
}

// LiftAllBansTool clears the moderation list.
type LiftAllBansTool struct {
	store store.Store
	log   *logger.Logger
}

// NewLiftAllBansTool creates the liftAllBans tool.
func NewLiftAllBansTool(st store.Store) *LiftAllBansTool {
	return &LiftAllBansTool{store: st, log: logger.WithPrefix("tools")}
}

func (t *LiftAllBansTool) Name() string {
	return "liftAllBans"
}

func (t *LiftAllBansTool) Description() string {
	return "Lift all bans from users."
}

func (t *LiftAllBansTool) InputSchema() map[string]any {
	return emptySchema()
}

func (t *LiftAllBansTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	if err := t.store.DeleteAllBannedUsers(ctx); err != nil {
		t.log.Warn("lift all bans failed: %v", err)
	}
	t.log.Info("lifting all bans")

	return "All bans have been lifted successfully. Announce this in a strict and formal tone.", nil
}

// ProtectUserTool generates one short defensive remark about a user via a
// single-turn completion and posts it to the chat under a fixed system
// username. The nested completion is isolated from the agent loop's own
// conversation.
type ProtectUserTool struct {
	store          store.Store
	llm            llm.CompletionClient
	systemUsername string
	log            *logger.Logger
}

// NewProtectUserTool creates the protectUser tool.
func NewProtectUserTool(st store.Store, client llm.CompletionClient, systemUsername string) *ProtectUserTool {
	return &ProtectUserTool{
		store:          st,
		llm:            client,
		systemUsername: systemUsername,
		log:            logger.WithPrefix("tools"),
	}
}

func (t *ProtectUserTool) Name() string {
	return "protectUser"
}

func (t *ProtectUserTool) Description() string {
	return "Protect a user from those who are talking bad about them."
}

func (t *ProtectUserTool) InputSchema() map[string]any {
	return usernameSchema("The username of the person to protect.")
}

const protectPersona = "You are a loyal friend speaking up for someone in a group chat. " +
	"Write exactly one short, kind remark defending the person you are told about. " +
	"Reply with the remark only, no preamble and no quotes."

func (t *ProtectUserTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	args, err := parseUsernameArgs(t.Name(), input)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Write a short supportive remark defending %s.", args.Username)
	resp, err := t.llm.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, protectPersona)
	if err != nil {
		return "", apperrors.ProviderRequestFailed(err)
	}
	if resp.Content == "" {
		return "", apperrors.ToolExecutionFailed(t.Name(), fmt.Errorf("empty protective remark from model"))
	}

	if _, err := t.store.SaveChatMessage(ctx, t.systemUsername, resp.Content); err != nil {
		t.log.Warn("saving protective remark failed: %v", err)
	}
	t.log.Info("posted protective remark for %q", args.Username)

	return fmt.Sprintf("A protective comment about %s has been posted to the chat successfully. Announce this in a strict and formal tone.", args.Username), nil
}
