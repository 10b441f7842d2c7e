package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"skywise/internal/types"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com"

// defaultGeminiModel matches the model the advisory narrative was tuned on.
const defaultGeminiModel = "gemini-1.5-flash"

// GeminiConfig holds the configuration for a GeminiClient.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // defaults to geminiAPIBase
	Model   string // defaults to defaultGeminiModel
	Logger  *slog.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// GeminiClient implements NarrativeGenerator against the Gemini
// generateContent REST endpoint.
type GeminiClient struct {
	base     *BaseClient
	apiKey   string
	model    string
	endpoint string
	logger   *slog.Logger
}

// NewGeminiClient creates a GeminiClient with its own breaker. Generation
// is slow, so a single retry is allowed.
func NewGeminiClient(httpClient *http.Client, cfg GeminiConfig, opts ...BaseClientOption) *GeminiClient {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = 1
	base := NewBaseClient(httpClient, "gemini", policy, "Skywise/1.0", opts...)
	return NewGeminiClientWithBase(base, cfg)
}

// NewGeminiClientWithBase creates a GeminiClient around a pre-configured
// BaseClient.
func NewGeminiClientWithBase(base *BaseClient, cfg GeminiConfig) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiAPIBase
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiClient{
		base:     base,
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(baseURL, "/"), url.PathEscape(model)),
		logger:   logger,
	}
}

// Base exposes the underlying BaseClient for health reporting.
func (c *GeminiClient) Base() *BaseClient {
	return c.base
}

// Generate sends prompt as a single user turn and returns the text parts of
// the first candidate joined together.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize narrative request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create narrative request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.base.Do(req)
	if err != nil {
		return "", wrapDoError("Gemini", "Generate", types.ErrCodeUpstreamNarrative, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyStr := readErrorBody(resp)
		c.logger.WarnContext(ctx, "Gemini API error",
			"model", c.model,
			"status_code", resp.StatusCode,
			"response_body", bodyStr,
		)
		code := types.ErrCodeUpstreamNarrative
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = types.ErrCodeUpstreamAuthRejected
		}
		return "", types.NewAppError(
			code,
			fmt.Sprintf("Gemini returned %d", resp.StatusCode),
			fmt.Errorf("Gemini generateContent returned %d: %s", resp.StatusCode, bodyStr),
		)
	}

	var body geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamNarrative, "failed to decode narrative response", err)
	}

	if len(body.Candidates) == 0 {
		msg := "Gemini returned no candidates"
		if body.PromptFeedback != nil && body.PromptFeedback.BlockReason != "" {
			msg += " (blocked: " + body.PromptFeedback.BlockReason + ")"
		}
		return "", types.NewAppError(types.ErrCodeUpstreamNarrative, msg, nil)
	}

	var sb strings.Builder
	for _, part := range body.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", types.NewAppError(types.ErrCodeUpstreamNarrative, "Gemini returned an empty candidate", nil)
	}

	c.logger.DebugContext(ctx, "narrative generated",
		"model", c.model,
		"finish_reason", body.Candidates[0].FinishReason,
		"chars", len(text),
	)
	return text, nil
}
