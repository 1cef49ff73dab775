package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/config"
)

const systemPrompt = "You are an accurate cleanliness assessment assistant."

const userPromptTemplate = `You are a cleanliness evaluator. Based on the following facility issue description,
give a cleanliness or urgency score between 0.0 (very clean or minor issue)
and 1.0 (extremely dirty or urgent). Consider both hygiene and urgency level.
Respond ONLY with a JSON object like: {"score": <number>}

Description: %q`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenRouterScorer calls an OpenAI-compatible chat completion endpoint.
type OpenRouterScorer struct {
	httpClient  *resty.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewOpenRouterScorer returns nil when no API key is configured, which callers
// treat as "no scorer".
func NewOpenRouterScorer(cfg config.ScorerConfig, logger *zap.Logger) *OpenRouterScorer {
	if !cfg.Enabled() {
		return nil
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OpenRouterScorer{
		httpClient:  client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Score asks the model for a 0..1 urgency value and returns it as a percentage.
func (s *OpenRouterScorer) Score(ctx context.Context, description string) (float64, error) {
	request := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, description)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	var response chatResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/chat/completions")
	if err != nil {
		return 0, fmt.Errorf("call scorer: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if response.Error != nil && response.Error.Message != "" {
			msg = response.Error.Message
		}
		s.logger.Warn("scorer returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return 0, fmt.Errorf("scorer error: %s (status: %d)", msg, resp.StatusCode())
	}
	if len(response.Choices) == 0 {
		return 0, errors.New("scorer returned no choices")
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	raw, ok := ParseScore(content)
	if !ok {
		s.logger.Warn("scorer response had no score", zap.String("content", content))
		return 0, ErrNoScore
	}
	return Normalize(raw), nil
}
