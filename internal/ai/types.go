package ai

import (
    "context"
    "errors"
    "time"
)

// Request is a generic inference request against a text or vision model.
type Request struct {
    Model        string
    SystemPrompt string
    Prompt       string
    MaxTokens    int
    Temperature  float64
    Timeout      time.Duration
    // Vision fields, empty for text-only calls
    ImageBase64  string // base64 encoded slide image
    ImageMIME    string // image MIME type (image/jpeg)
}

type Response struct {
    Text      string
    TokensIn  int
    TokensOut int
}

// Client interface for providers like OpenAI, Anthropic.
type Client interface {
    Name() string
    Do(ctx context.Context, req Request) (Response, error)
}

// Provider failure categories. The matcher treats them all the same (fall
// back to the deterministic allocator); the worker uses them to pick between
// failover, retry and giving up.
var (
    ErrRateLimited     = errors.New("rate_limited")
    ErrAuthFailed      = errors.New("auth_failed")
    ErrPayloadTooLarge = errors.New("payload_too_large")
    ErrContentRefused  = errors.New("content_refused")
)

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
func IsAuthFailed(err error) bool { return errors.Is(err, ErrAuthFailed) }
func IsPayloadTooLarge(err error) bool { return errors.Is(err, ErrPayloadTooLarge) }
func IsContentRefused(err error) bool { return errors.Is(err, ErrContentRefused) }

// classifyStatus maps an HTTP status to a category error; nil means the
// caller should wrap the status itself.
func classifyStatus(status int) error {
    switch status {
    case 401, 403:
        return ErrAuthFailed
    case 413:
        return ErrPayloadTooLarge
    case 429:
        return ErrRateLimited
    }
    return nil
}
