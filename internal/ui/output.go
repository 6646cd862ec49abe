package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors
var (
	primaryColor = lipgloss.Color("39")  // Cyan
	successColor = lipgloss.Color("82")  // Green
	warningColor = lipgloss.Color("214") // Orange
	errorColor   = lipgloss.Color("196") // Red
	dimColor     = lipgloss.Color("240") // Gray
)

// Styles
var (
	assistantPrefixStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	toolNameStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	toolDescStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	toolResultSuccessStyle = lipgloss.NewStyle().
				Foreground(successColor)

	toolResultErrorStyle = lipgloss.NewStyle().
				Foreground(errorColor)

	indentStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	promptStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)
)

// Icons
const (
	iconToolCall = "⚡"
	iconSuccess  = "✓"
	iconError    = "✗"
	iconInfo     = "ℹ"
	iconWarning  = "⚠"
)

// OutputHandler renders agent activity to the terminal.
type OutputHandler struct {
	useColors bool
}

// NewOutputHandler creates an output handler. Colors are disabled when stdout
// is not a terminal or NO_COLOR is set.
func NewOutputHandler() *OutputHandler {
	useColors := true
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		useColors = false
	}
	if os.Getenv("NO_COLOR") != "" {
		useColors = false
	}

	if !useColors {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	return &OutputHandler{useColors: useColors}
}

// IsTTY returns true if the output is a terminal (not piped/redirected)
func (o *OutputHandler) IsTTY() bool {
	return o.useColors
}

// Assistant renders a final assistant answer.
func (o *OutputHandler) Assistant(text string) {
	fmt.Println(assistantPrefixStyle.Render("Bot ❯ ") + text)
	fmt.Println()
}

// ToolCall announces a tool dispatch.
func (o *OutputHandler) ToolCall(name string, description string) {
	line := toolCallStyle.Render(iconToolCall+" ") + toolNameStyle.Render(name)
	if description != "" {
		line += toolDescStyle.Render(" - " + description)
	}
	fmt.Println(line)
}

// ToolResult renders a tool outcome, truncated and indented.
func (o *OutputHandler) ToolResult(name string, result string, isError bool) {
	if isError {
		fmt.Println(toolResultErrorStyle.Render(iconError+" "+name+": ") + result)
		return
	}

	const maxLen = 500
	display := result
	if len(result) > maxLen {
		display = result[:maxLen] + "..."
	}

	fmt.Println(toolResultSuccessStyle.Render(iconSuccess + " " + name))
	if display == "" {
		return
	}
	lines := strings.Split(display, "\n")
	if len(lines) > 10 {
		lines = append(lines[:10], "... (truncated)")
	}
	for _, line := range lines {
		fmt.Println(indentStyle.Render("  │ ") + line)
	}
}

// Error outputs an error message
func (o *OutputHandler) Error(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
}

// Warning outputs a warning message
func (o *OutputHandler) Warning(msg string) {
	fmt.Fprintln(os.Stderr, warningStyle.Render(iconWarning+" Warning: ")+msg)
}

// Success outputs a success message
func (o *OutputHandler) Success(msg string) {
	fmt.Println(successStyle.Render(iconSuccess+" ") + msg)
}

// Info outputs an info message
func (o *OutputHandler) Info(msg string) {
	fmt.Println(infoStyle.Render(iconInfo+" ") + msg)
}

// ModelInfo outputs the current model info
func (o *OutputHandler) ModelInfo(model string) {
	fmt.Println(toolDescStyle.Render("Using model: ") + toolNameStyle.Render(model))
}

// Prompt renders the input prompt string.
func (o *OutputHandler) Prompt(prompt string) string {
	return promptStyle.Render(prompt)
}
