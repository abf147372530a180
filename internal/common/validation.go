package common

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

// FieldError is one failed check on a named input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Check inspects a value and returns a user-facing message, or "" when the value passes.
type Check[T any] func(T) string

// Validator collects field errors so a single response can report all of them.
type Validator struct {
	errs []FieldError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs checks against value in order and records every failure under name.
func Field[T any](v *Validator, name string, value T, checks ...Check[T]) *Validator {
	for _, check := range checks {
		if msg := check(value); msg != "" {
			v.errs = append(v.errs, FieldError{Field: name, Message: msg})
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

func (v *Validator) Errors() []FieldError { return v.errs }

// Message joins the failure messages with "; ".
func (v *Validator) Message() string {
	msgs := make([]string, 0, len(v.errs))
	for _, e := range v.errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil or an AppError wrapping ErrInvalidInput.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("INVALID_INPUT", v.Message(), ErrInvalidInput)
}

// NotBlank rejects empty or whitespace-only strings.
func NotBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No file provided"
	}
	return ""
}

// PDFFilename rejects names without a .pdf extension. Blank names are left to NotBlank.
func PDFFilename(s string) string {
	if strings.TrimSpace(s) == "" || constants.IsAllowedDocument(s) {
		return ""
	}
	return "Only PDF files are supported"
}

// AtMost limits a byte count; max <= 0 disables the limit.
func AtMost(max int64) Check[int64] {
	return func(n int64) string {
		if max <= 0 || n <= max {
			return ""
		}
		return fmt.Sprintf("file exceeds the %d byte upload limit", max)
	}
}

// ValidateUpload checks an upload's name and declared size before any job exists.
// Content checks are left to the extractor so a corrupt body still yields a failed job.
func ValidateUpload(filename string, size, maxBytes int64) error {
	v := NewValidator()
	Field(v, "file", filename, NotBlank, PDFFilename)
	Field(v, "size", size, AtMost(maxBytes))
	return v.Err()
}
