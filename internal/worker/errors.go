package worker

import "fmt"

// RateLimitError marks a provider that timed out or throttled us; the
// failover chain treats it as a signal to open the breaker and move on.
type RateLimitError struct {
	Provider string
	Model    string
	Reason   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit: %s/%s - %s", e.Provider, e.Model, e.Reason)
}

// ValidationError is fatal: the job itself is malformed and retrying
// cannot help.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
