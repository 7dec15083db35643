package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"post_radar/internal/domain"
)

// Categories is the closed set of claim categories the classifier may assign.
var Categories = []string{
	"Fraude Eleitoral",
	"Ataque a Instituições",
	"Crítica a Políticos",
	"Economia",
	"Segurança Pública",
	"Política Geral",
	"Outros",
}

// Config holds classifier client configuration.
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client judges misinformation risk for a post's text through the Gemini
// generateContent API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	model          string
	apiKey         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		apiKey:         cfg.APIKey,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "classifier"),
	}
}

// Analyze returns the model's risk judgment for the text. Transport failures
// are retried with backoff; an unparsable model reply is returned as an error
// without retrying, the caller excludes the post.
func (c *Client) Analyze(ctx context.Context, text string) (*domain.RiskAnalysis, error) {
	raw, err := c.generate(ctx, buildPrompt(text))
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	return &domain.RiskAnalysis{
		Verifiable: payload.Verifiable,
		MainClaim:  payload.MainClaim,
		Category:   payload.Category,
		RiskScore:  payload.RiskScore,
		Rationale:  payload.Rationale,
	}, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var raw string
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		raw, err = c.doRequest(ctx, prompt)
		if err == nil {
			return raw, nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Considering the Brazilian political landscape, assess the risk that the post below spreads misinformation:
---
%s
---

Reply ONLY with JSON in exactly this structure:
{
  "verifiable": boolean,
  "main_claim": "string",
  "category": "string",
  "risk_score": integer,
  "rationale": "string"
}

Fill the fields as follows:
- "verifiable": true only when the post makes a specific factual claim.
- "main_claim": the central claim, concise. Empty when not verifiable.
- "category": one of: %s.
- "risk_score": 1 (low risk) through 10 (very high risk).
- "rationale": brief explanation of the assessment and score.`, text, strings.Join(Categories, ", "))
}

// stripFences removes a ```json ... ``` wrapper the model sometimes adds.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
