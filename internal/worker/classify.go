package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/local/slidescript/internal/ai"
)

// isTransientError reports whether the error should trigger failover or
// a delayed retry.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Refusals sometimes clear on a different model
	if ai.IsContentRefused(err) {
		return true
	}

	if ai.IsRateLimited(err) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	// Network errors (connection issues, timeouts)
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "status 5") {
		return true
	}

	return false
}

// isFatalError reports whether the error should fail the job without retry.
func isFatalError(err error) bool {
	if err == nil {
		return false
	}

	if ai.IsAuthFailed(err) || ai.IsPayloadTooLarge(err) {
		return true
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "unsupported file type") ||
		strings.Contains(errStr, "malformed") {
		return true
	}

	return false
}
