package ai

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
)

type AnthropicClient struct{ http *http.Client; apiKey string }

// NewAnthropicClient builds a client with an explicit key; no ambient reads.
func NewAnthropicClient(apiKey string) *AnthropicClient {
    return &AnthropicClient{http: &http.Client{}, apiKey: apiKey}
}
func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicMsgReq struct {
    Model       string             `json:"model"`
    MaxTokens   int                `json:"max_tokens"`
    Temperature float64            `json:"temperature"`
    System      string             `json:"system,omitempty"`
    Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
    Role    string           `json:"role"`
    Content []map[string]any `json:"content"`
}

// anthropicMsgResp is the content[0].text response shape.
type anthropicMsgResp struct {
    Content []struct{ Text string `json:"text"` } `json:"content"`
    Error   *struct{ Message string `json:"message"` } `json:"error,omitempty"`
}

func (c *AnthropicClient) Do(ctx context.Context, req Request) (Response, error) {
    if c.apiKey == "" { return Response{}, errors.New("anthropic api key not configured") }

    var content []map[string]any
    if req.ImageBase64 != "" {
        content = append(content, map[string]any{
            "type": "image",
            "source": map[string]any{
                "type": "base64", "media_type": req.ImageMIME, "data": req.ImageBase64,
            },
        })
    }
    content = append(content, map[string]any{"type": "text", "text": req.Prompt})

    payload := anthropicMsgReq{
        Model:       req.Model,
        MaxTokens:   req.MaxTokens,
        Temperature: req.Temperature,
        System:      req.SystemPrompt,
        Messages:    []anthropicMessage{{Role: "user", Content: content}},
    }
    body, _ := json.Marshal(payload)
    httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
    httpReq.Header.Set("x-api-key", c.apiKey)
    httpReq.Header.Set("anthropic-version", "2023-06-01")
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(httpReq)
    if err != nil { return Response{}, err }
    defer resp.Body.Close()

    if catErr := classifyStatus(resp.StatusCode); catErr != nil { return Response{}, catErr }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return Response{}, fmt.Errorf("anthropic status %d", resp.StatusCode)
    }

    var r anthropicMsgResp
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil { return Response{}, err }
    if r.Error != nil { return Response{}, fmt.Errorf("anthropic: %s", r.Error.Message) }
    if len(r.Content) == 0 { return Response{}, errors.New("no content") }
    return Response{Text: r.Content[0].Text}, nil
}
