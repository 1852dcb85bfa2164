package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

// ErrUnparsableResponse indicates the model replied with text that is not the
// requested JSON shape. The raw text accompanies the error so callers can
// surface it instead of failing the request.
var ErrUnparsableResponse = errors.New("ai response parsing failed")

// Config controls the Gemini client. APIKey is required; the rest default.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the Gemini generateContent REST API to analyze meeting notes.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
}

// AnalyzeSentiment asks the model to summarize the notes as JSON. When the
// reply is not parseable the raw text is returned alongside
// ErrUnparsableResponse.
func (c *Client) AnalyzeSentiment(ctx context.Context, notes string) (*SentimentReport, string, error) {
	prompt := fmt.Sprintf(`Analyze the following meeting notes:

%s

Return ONLY valid JSON with:
sentiment: Positive/Neutral/Negative
risk_level: High/Medium/Low
summary: 2 sentence summary`, notes)

	text, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, "", err
	}

	var report SentimentReport
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &report); err != nil {
		return nil, text, ErrUnparsableResponse
	}
	return &report, text, nil
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request (gemini): %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request (gemini): %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content (gemini): %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body (gemini): %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed generateContentResponse
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != nil {
			return "", fmt.Errorf("gemini error: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("error status (gemini): %d", resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response (gemini): %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response (gemini)")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// stripCodeFence unwraps ```json ... ``` fences models like to emit even when
// told not to.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
