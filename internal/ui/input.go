package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// InputHandler handles user input
type InputHandler struct {
	reader *bufio.Reader
	output *OutputHandler
}

// NewInputHandler creates a new input handler
func NewInputHandler(output *OutputHandler) *InputHandler {
	return &InputHandler{
		reader: bufio.NewReader(os.Stdin),
		output: output,
	}
}

// ReadLine reads a single line of input
func (h *InputHandler) ReadLine(prompt string) (string, error) {
	fmt.Print(h.output.Prompt(prompt))
	line, err := h.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks for a yes/no confirmation
func (h *InputHandler) Confirm(prompt string, defaultYes bool) (bool, error) {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}

	response, err := h.ReadLine(prompt + suffix)
	if err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	if response == "" {
		return defaultYes, nil
	}
	return response == "y" || response == "yes", nil
}
