package errors

import "fmt"

// Error codes used for dispatch decisions elsewhere in the codebase.
const (
	CodeProtocolViolation   = "protocol_violation"
	CodeToolNotFound        = "tool_not_found"
	CodeInvalidToolArgs     = "invalid_tool_arguments"
	CodeToolExecutionFailed = "tool_execution_failed"
	CodeProviderFailed      = "provider_request_failed"
	CodeStoreFailed         = "store_operation_failed"
	CodeMaxIterations       = "max_iterations_reached"
	CodeSyncFailed          = "sync_failed"
	CodeConfigLoadFailed    = "config_load_failed"
)

// ProtocolViolation creates an error for an assistant turn that carries
// neither text content nor tool requests. Fatal to the session.
func ProtocolViolation() *ModbotError {
	return &ModbotError{
		Category:  CategoryAgent,
		Code:      CodeProtocolViolation,
		Message:   "assistant turn carried neither content nor tool requests",
		Retryable: false,
	}
}

// ToolNotFound creates an error for when the model requests an undeclared tool.
func ToolNotFound(name string) *ModbotError {
	return &ModbotError{
		Category:  CategoryTool,
		Code:      CodeToolNotFound,
		Message:   fmt.Sprintf("tool %q not found", name),
		Retryable: false,
	}
}

// InvalidToolArguments creates an error for malformed or missing tool arguments.
func InvalidToolArguments(tool, detail string) *ModbotError {
	return &ModbotError{
		Category:  CategoryTool,
		Code:      CodeInvalidToolArgs,
		Message:   fmt.Sprintf("invalid arguments for tool %q: %s", tool, detail),
		Retryable: false,
	}
}

// ToolExecutionFailed creates an error for when a tool handler fails.
// Retryability depends on the underlying cause.
func ToolExecutionFailed(name string, cause error) *ModbotError {
	return &ModbotError{
		Category:  CategoryTool,
		Code:      CodeToolExecutionFailed,
		Message:   fmt.Sprintf("tool %q execution failed", name),
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// ProviderRequestFailed creates an error for a failed completion or embedding call.
func ProviderRequestFailed(cause error) *ModbotError {
	return &ModbotError{
		Category:  CategoryLLM,
		Code:      CodeProviderFailed,
		Message:   "LLM provider request failed",
		Retryable: true,
		Cause:     cause,
	}
}

// StoreOperationFailed creates an error for a failed persistence operation.
func StoreOperationFailed(op string, cause error) *ModbotError {
	return &ModbotError{
		Category:  CategoryStore,
		Code:      CodeStoreFailed,
		Message:   fmt.Sprintf("store operation %q failed", op),
		Retryable: true,
		Cause:     cause,
	}
}

// MaxIterationsReached creates an error for when the agent loop exceeds its
// iteration ceiling without producing a final text turn.
func MaxIterationsReached(iterations int) *ModbotError {
	return &ModbotError{
		Category:  CategoryAgent,
		Code:      CodeMaxIterations,
		Message:   fmt.Sprintf("agent loop exceeded %d iterations", iterations),
		Retryable: false,
	}
}

// SyncFailed creates an error for when the sync worker gives up on an event.
func SyncFailed(detail string, cause error) *ModbotError {
	return &ModbotError{
		Category:  CategorySync,
		Code:      CodeSyncFailed,
		Message:   fmt.Sprintf("document sync failed: %s", detail),
		Retryable: false,
		Cause:     cause,
	}
}

// ConfigLoadFailed creates an error for when configuration loading fails.
func ConfigLoadFailed(path string, cause error) *ModbotError {
	return &ModbotError{
		Category:  CategoryConfig,
		Code:      CodeConfigLoadFailed,
		Message:   fmt.Sprintf("failed to load config from %q", path),
		Retryable: false,
		Cause:     cause,
	}
}
