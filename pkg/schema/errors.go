package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidConnection = "INVALID_CONNECTION"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeStalled           = "RUN_STALLED"
	ErrCodeCancelled         = "CANCELLED"
	ErrCodePermission        = "PERMISSION_DENIED"
)

// DesignError is the structured error type for all designer operations.
type DesignError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *DesignError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DesignError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DesignError.
func NewError(code, message string) *DesignError {
	return &DesignError{Code: code, Message: message}
}

// NewErrorf creates a new DesignError with a formatted message.
func NewErrorf(code, format string, args ...any) *DesignError {
	return &DesignError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *DesignError) WithNode(nodeID string) *DesignError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *DesignError) WithCause(err error) *DesignError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *DesignError) WithDetails(details map[string]any) *DesignError {
	e.Details = details
	return e
}

// CodeOf returns the DesignError code of err, or "" for other error types.
func CodeOf(err error) string {
	de, ok := err.(*DesignError)
	if !ok {
		return ""
	}
	return de.Code
}
