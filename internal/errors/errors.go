package errors

import (
	"errors"
	"fmt"
)

// Category groups errors by subsystem
type Category string

const (
	CategoryLLM    Category = "llm"
	CategoryTool   Category = "tool"
	CategoryAgent  Category = "agent"
	CategoryStore  Category = "store"
	CategorySync   Category = "sync"
	CategoryConfig Category = "config"
)

// ModbotError is the structured error type for the project
type ModbotError struct {
	Category  Category
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *ModbotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

func (e *ModbotError) Unwrap() error {
	return e.Cause
}

func (e *ModbotError) Is(target error) bool {
	t, ok := target.(*ModbotError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Category == t.Category
}

// IsRetryable checks whether an error is retryable.
// Returns false for nil errors or non-ModbotError types.
func IsRetryable(err error) bool {
	var me *ModbotError
	if errors.As(err, &me) {
		return me.Retryable
	}
	return false
}

// GetCategory extracts the error category from a ModbotError.
// Returns an empty Category for nil errors or non-ModbotError types.
func GetCategory(err error) Category {
	var me *ModbotError
	if errors.As(err, &me) {
		return me.Category
	}
	return ""
}

// GetCode extracts the error code from a ModbotError.
// Returns an empty string for nil errors or non-ModbotError types.
func GetCode(err error) string {
	var me *ModbotError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// GetUserMessage returns a user-friendly message for the error.
// For ModbotError it returns the Message field; for other errors it returns Error().
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var me *ModbotError
	if errors.As(err, &me) {
		return me.Message
	}
	return err.Error()
}
