package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures. These are the only errors the
// orchestrator propagates to its caller; everything environmental degrades
// inside the Response instead.
var (
	ErrInvalidQuery    = errors.New("invalid query")
	ErrQueryTooShort   = errors.New("query too short")
	ErrUnknownDietTag  = errors.New("unknown diet tag")
	ErrInvalidServings = errors.New("servings out of range")
)

// Sentinel errors for collaborator outages. All of them are expected,
// recoverable conditions.
var (
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrStoreUnavailable     = errors.New("vector store unavailable")
	ErrSearchUnavailable    = errors.New("web search unavailable")
	ErrFetchTimeout         = errors.New("page fetch timed out")
	ErrFetchFailed          = errors.New("page fetch failed")
	ErrProviderTimeout      = errors.New("generation provider timed out")
	ErrProviderFailed       = errors.New("generation provider failed")
	ErrAllProvidersFailed   = errors.New("all generation providers failed")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
