package errors

import "fmt"

// Error codes
const (
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeAlreadyCompleted = "ALREADY_COMPLETED"
	ErrCodeAlreadySubmitted = "ALREADY_SUBMITTED"
	ErrCodeNoQuestions      = "NO_QUESTIONS_AVAILABLE"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "FORBIDDEN")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewInvalidArgumentError creates a new INVALID_ARGUMENT error
func NewInvalidArgumentError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Status:  400,
	}
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewForbiddenError creates a new FORBIDDEN error
func NewForbiddenError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: reason,
		Status:  403,
	}
}

// NewAlreadyCompletedError signals a mutation against a completed game attempt
func NewAlreadyCompletedError(attemptID int64) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyCompleted,
		Message: fmt.Sprintf("attempt %d is already completed", attemptID),
		Status:  409,
	}
}

// NewAlreadySubmittedError signals a mutation against a submitted quiz attempt
func NewAlreadySubmittedError(attemptID int64) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadySubmitted,
		Message: fmt.Sprintf("quiz attempt %d is already submitted", attemptID),
		Status:  409,
	}
}

// NewNoQuestionsError signals an exhausted question pool for the requested scope
func NewNoQuestionsError(mathTypeID int64, difficulty string) *AppError {
	return &AppError{
		Code:    ErrCodeNoQuestions,
		Message: fmt.Sprintf("no published questions for math type %d, difficulty %q", mathTypeID, difficulty),
		Status:  422,
	}
}

// NewConflictError signals a lost optimistic-concurrency race; the caller should retry
func NewConflictError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("%s %v was modified concurrently, retry", resource, id),
		Status:  409,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}
