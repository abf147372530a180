package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline error taxonomy
var (
	// ErrUnreadableDocument: the upload is not a parseable PDF. Fails the job.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrUpstreamJudgment: the completion call failed. Converted into a synthetic CRITICAL finding.
	ErrUpstreamJudgment = errors.New("upstream judgment failure")
	// ErrMalformedJudgment: response present but not decodable. Recovered by the heuristic tier.
	ErrMalformedJudgment = errors.New("malformed judgment output")
	// ErrRenderUnavailable: rich renderer capability absent. Recovered by the text renderer.
	ErrRenderUnavailable = errors.New("rich renderer unavailable")
	// ErrUnknownJob: lookup against an identifier with no record.
	ErrUnknownJob = errors.New("job not found")
)

// Lifecycle errors
var (
	ErrJobNotCompleted   = errors.New("validation not completed yet")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrQueueClosed       = errors.New("queue is shutting down")
	ErrQueueFull         = errors.New("queue is full")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps an error onto the status code the REST surface returns for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownJob), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrJobNotCompleted):
		return http.StatusBadRequest
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text shown to API clients: the AppError message when there is one.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
