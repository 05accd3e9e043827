package errors

import "fmt"

// RateLimitError signals that a catalog API rejected a request for quota
// reasons. Callers can detect it with errors.As and decide whether to back
// off instead of treating the source as broken.
type RateLimitError struct {
	Source string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded", e.Source)
}

// NewRateLimitError creates a RateLimitError for the named source.
func NewRateLimitError(source string) *RateLimitError {
	return &RateLimitError{Source: source}
}
