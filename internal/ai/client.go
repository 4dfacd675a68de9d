package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haasonsaas/syndicate/internal/observability"
)

// Client issues generation calls against whichever provider the selector
// picks for a workspace.
type Client struct {
	selector *Selector
	http     *http.Client
	metrics  *observability.Metrics
	logger   *slog.Logger

	anthropicBaseURL string
	anthropicModel   string
	geminiBaseURL    string
	geminiModel      string
	openaiBaseURL    string
	openaiModel      string
}

// Config holds configuration for the AI client.
type Config struct {
	// Timeout is the HTTP client timeout (default: 60s).
	Timeout time.Duration

	// Logger is an optional logger for call diagnostics.
	Logger *slog.Logger

	// Metrics is optional; without it provider calls are not counted.
	Metrics *observability.Metrics

	// BaseURL overrides per provider (used in tests).
	AnthropicBaseURL string
	GeminiBaseURL    string
	OpenAIBaseURL    string

	// Model overrides per provider.
	AnthropicModel string
	GeminiModel    string
	OpenAIModel    string
}

// NewClient creates an AI client over the given selector.
func NewClient(selector *Selector, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		selector:         selector,
		http:             &http.Client{Timeout: timeout},
		metrics:          cfg.Metrics,
		logger:           logger.With("component", "ai"),
		anthropicBaseURL: cfg.AnthropicBaseURL,
		anthropicModel:   cfg.AnthropicModel,
		geminiBaseURL:    cfg.GeminiBaseURL,
		geminiModel:      cfg.GeminiModel,
		openaiBaseURL:    cfg.OpenAIBaseURL,
		openaiModel:      cfg.OpenAIModel,
	}
	if c.anthropicBaseURL == "" {
		c.anthropicBaseURL = defaultAnthropicBaseURL
	}
	if c.anthropicModel == "" {
		c.anthropicModel = defaultAnthropicModel
	}
	if c.geminiBaseURL == "" {
		c.geminiBaseURL = defaultGeminiBaseURL
	}
	if c.geminiModel == "" {
		c.geminiModel = defaultGeminiModel
	}
	if c.openaiBaseURL == "" {
		c.openaiBaseURL = defaultOpenAIBaseURL
	}
	if c.openaiModel == "" {
		c.openaiModel = defaultOpenAIModel
	}
	return c
}

// Generate selects a provider for the workspace and runs the request against
// it. It reports credentials.ErrNotConfigured when no provider is selectable.
func (c *Client) Generate(ctx context.Context, workspaceID string, req GenerateRequest) (string, error) {
	providerID, cred, err := c.selector.Select(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	c.logger.Debug("provider selected", "provider", providerID, "workspace_id", workspaceID)
	return c.CallProvider(ctx, providerID, cred.Value, req)
}

// CallProvider shapes the request per the provider's wire format, issues the
// call, and extracts the generated text from that provider's response
// envelope.
func (c *Client) CallProvider(ctx context.Context, providerID ProviderID, key string, req GenerateRequest) (string, error) {
	start := time.Now()
	var (
		text string
		err  error
	)
	switch providerID {
	case ProviderAnthropic:
		text, err = c.callAnthropic(ctx, key, req)
	case ProviderGemini:
		text, err = c.callGemini(ctx, key, req)
	case ProviderOpenAI:
		text, err = c.callOpenAI(ctx, key, req)
	default:
		return "", fmt.Errorf("ai: unknown provider %q", providerID)
	}
	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.AIRequestCounter.WithLabelValues(string(providerID), status).Inc()
		c.metrics.AIRequestDuration.WithLabelValues(string(providerID)).Observe(time.Since(start).Seconds())
	}
	return text, err
}

// callAnthropic authenticates with the x-api-key header. Response text lives
// at content[0].text.
func (c *Client) callAnthropic(ctx context.Context, key string, req GenerateRequest) (string, error) {
	body := map[string]any{
		"model":      c.anthropicModel,
		"max_tokens": req.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
	}
	data, err := c.post(ctx, ProviderAnthropic, c.anthropicBaseURL+"/v1/messages", headers, body)
	if err != nil {
		return "", err
	}
	return extractAnthropic(data), nil
}

// callGemini carries the key as a query parameter. Response text lives at
// candidates[0].content.parts[0].text.
func (c *Client) callGemini(ctx context.Context, key string, req GenerateRequest) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": req.MaxTokens,
			"temperature":     req.Temperature,
		},
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.geminiBaseURL, c.geminiModel, url.QueryEscape(key))
	data, err := c.post(ctx, ProviderGemini, endpoint, nil, body)
	if err != nil {
		return "", err
	}
	return extractGemini(data), nil
}

// callOpenAI authenticates with a Bearer token. Response text lives at
// choices[0].message.content.
func (c *Client) callOpenAI(ctx context.Context, key string, req GenerateRequest) (string, error) {
	body := map[string]any{
		"model":      c.openaiModel,
		"max_tokens": req.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + key,
	}
	data, err := c.post(ctx, ProviderOpenAI, c.openaiBaseURL+"/v1/chat/completions", headers, body)
	if err != nil {
		return "", err
	}
	return extractOpenAI(data), nil
}

// post issues exactly one generation request. A timed-out request may
// already have been processed and billed, so transport failures surface as
// transient errors for the caller to judge; they are never re-issued here.
func (c *Client) post(ctx context.Context, providerID ProviderID, endpoint string, headers map[string]string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai: %s request: %w", providerID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("ai: read %s response: %w", providerID, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			Provider: providerID,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

// Extractors default to the empty string when nested fields are absent;
// providers vary in how an empty generation is represented and a missing
// field is not an error here.

func extractAnthropic(data []byte) string {
	var payload struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if len(payload.Content) == 0 {
		return ""
	}
	return payload.Content[0].Text
}

func extractGemini(data []byte) string {
	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return payload.Candidates[0].Content.Parts[0].Text
}

func extractOpenAI(data []byte) string {
	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if len(payload.Choices) == 0 {
		return ""
	}
	return payload.Choices[0].Message.Content
}
