// Package chat talks to an OpenAI-compatible completion endpoint such as
// LM Studio. The backend serves one request at a time, so callers are
// expected to serialize access per user; the client itself is stateless and
// safe for concurrent use.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL       = "http://localhost:1234/v1"
	DefaultModel         = "llava"
	DefaultTimeout       = 180 * time.Second
	DefaultVisionTimeout = 240 * time.Second

	// Vision replies get a larger token allowance than plain chat.
	DefaultVisionMaxTokens = 500
)

// DefaultParams mirror the conversation defaults used for every request.
var DefaultParams = Params{
	MaxTokens:   400,
	Temperature: 0.7,
	TopP:        1.0,
}

// Options configure a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	VisionTimeout   time.Duration
	Params          Params
	VisionMaxTokens int
}

// Client posts chat completions to a single backend.
type Client struct {
	baseURL         string
	params          Params
	visionMaxTokens int
	httpClient      *http.Client
	visionClient    *http.Client
	logger          *slog.Logger
}

func NewClient(logger *slog.Logger, opts Options) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.VisionTimeout <= 0 {
		opts.VisionTimeout = DefaultVisionTimeout
	}
	if opts.Params.MaxTokens <= 0 {
		opts.Params = DefaultParams
	}
	if opts.VisionMaxTokens <= 0 {
		opts.VisionMaxTokens = DefaultVisionMaxTokens
	}
	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		params:          opts.Params,
		visionMaxTokens: opts.VisionMaxTokens,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		visionClient:    &http.Client{Timeout: opts.VisionTimeout},
		logger:          logger.With(slog.String("component", "chat")),
	}
}

// Complete sends the trimmed conversation history and returns the assistant
// reply text. Every failure mode comes back as *BackendError.
func (c *Client) Complete(ctx context.Context, model string, msgs []Message) (string, error) {
	payload := completionRequest{
		Model:       model,
		MaxTokens:   c.params.MaxTokens,
		Temperature: c.params.Temperature,
		TopP:        c.params.TopP,
	}
	payload.Messages = make([]any, 0, len(msgs))
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, m)
	}
	return c.post(ctx, c.httpClient, payload)
}

// CompleteVision sends a single user turn carrying a prompt and an image
// data URL. History is not attached; vision requests stand alone.
func (c *Client) CompleteVision(ctx context.Context, model, prompt, imageURL string) (string, error) {
	msg := partsMessage{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		},
	}
	payload := completionRequest{
		Model:       model,
		Messages:    []any{msg},
		MaxTokens:   c.visionMaxTokens,
		Temperature: c.params.Temperature,
		TopP:        c.params.TopP,
	}
	return c.post(ctx, c.visionClient, payload)
}

func (c *Client) post(ctx context.Context, httpClient *http.Client, payload completionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	url := c.baseURL + "/chat/completions"
	c.logger.Info("backend request", slog.String("url", url), slog.String("model", payload.Model), slog.Int("messages", len(payload.Messages)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &BackendError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("backend error", slog.String("url", url), slog.Int("status", resp.StatusCode), slog.String("body_prefix", truncate(string(respBody), 300)))
		return "", &BackendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &BackendError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &BackendError{Err: fmt.Errorf("response has no choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
