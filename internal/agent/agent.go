package agent

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/pvlima/modbot/internal/config"
	apperrors "github.com/pvlima/modbot/internal/errors"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/store"
	"github.com/pvlima/modbot/internal/tools"
)

// defaultSystemPrompt seeds every conversation.
const defaultSystemPrompt = "You are a helpful chat moderation assistant. " +
	"Answer the user's questions as best you can, and use the available tools " +
	"to moderate the chat when asked."

// Output is the sink for user-visible agent activity.
type Output interface {
	Assistant(text string)
	ToolCall(name, description string)
	ToolResult(name, result string, isError bool)
	Error(err error)
	Warning(msg string)
	Info(msg string)
}

// Input reads lines from the user.
type Input interface {
	ReadLine(prompt string) (string, error)
}

// Progress shows ephemeral activity while a turn is being resolved.
// Start and Stop tolerate repeated calls.
type Progress interface {
	Start(message string)
	SetMessage(message string)
	Stop()
}

// Config wires an Agent's collaborators.
type Config struct {
	LLM          llm.CompletionClient
	Tools        *tools.Registry
	Store        store.Store
	Output       Output
	Input        Input
	Progress     Progress // optional
	Config       *config.Config
	SystemPrompt string // defaults to the moderation persona
}

// Agent drives one interactive moderation session: it owns the conversation
// and resolves each user line into a final assistant answer.
type Agent struct {
	llm      llm.CompletionClient
	registry *tools.Registry
	store    store.Store
	output   Output
	input    Input
	progress Progress
	config   *config.Config
	conv     *Conversation
	executor *toolExecutor
	log      *logger.Logger
}

// New creates an agent with a fresh conversation.
func New(cfg Config) *Agent {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Agent{
		llm:      cfg.LLM,
		registry: cfg.Tools,
		store:    cfg.Store,
		output:   cfg.Output,
		input:    cfg.Input,
		progress: cfg.Progress,
		config:   cfg.Config,
		conv:     NewConversation(systemPrompt),
		executor: newToolExecutor(cfg.Tools, cfg.Config.Agent.MaxToolConcurrency),
		log:      logger.WithPrefix("agent"),
	}
}

// Conversation exposes the agent's conversation (read access for tests and
// the REPL's /clear command).
func (a *Agent) Conversation() *Conversation {
	return a.conv
}

// RunInteractive runs the moderation REPL until the user exits or a fatal
// error ends the session.
func (a *Agent) RunInteractive(ctx context.Context) error {
	a.output.Info("modbot ready. Type a message, \"exit\" to quit, /help for commands.")

	for {
		line, err := a.input.ReadLine("You ❯ ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "/exit":
			return nil
		case "/help":
			a.output.Info("Commands: /clear (reset conversation), /bans (list banned users), /exit")
			continue
		case "/clear":
			a.conv.Reset()
			a.output.Info("Conversation cleared")
			continue
		case "/bans":
			a.showBans(ctx)
			continue
		}

		answer, err := a.Converse(ctx, line)
		if err != nil {
			a.stopProgress()
			a.output.Error(err)
			if apperrors.GetCode(err) == apperrors.CodeProtocolViolation {
				// Nothing sensible can follow a protocol violation.
				return err
			}
			continue
		}

		a.output.Assistant(answer)
	}
}

func (a *Agent) showBans(ctx context.Context) {
	users, err := a.store.BannedUsers(ctx)
	if err != nil {
		a.output.Warning("could not list bans: " + err.Error())
		return
	}
	if len(users) == 0 {
		a.output.Info("No users are banned")
		return
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	a.output.Info("Banned users: " + strings.Join(names, ", "))
}

func (a *Agent) startProgress(msg string) {
	if a.progress != nil {
		a.progress.Start(msg)
	}
}

func (a *Agent) stopProgress() {
	if a.progress != nil {
		a.progress.Stop()
	}
}
