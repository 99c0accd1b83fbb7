package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"mailsync/internal/domain"
)

const (
	DefaultModel = "gpt-4o-mini"

	// unknownCategoryConfidence caps the confidence of answers outside the
	// category enum after they are folded into OTHER.
	unknownCategoryConfidence = 0.2
)

var ErrEmptyResponse = errors.New("classifier returned no choices")

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxBodyChars int
	Timeout      time.Duration
}

type Classifier struct {
	client       *openai.Client
	model        string
	maxBodyChars int
	logger       *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxBody := cfg.MaxBodyChars
	if maxBody <= 0 {
		maxBody = 4000
	}

	return &Classifier{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        model,
		maxBodyChars: maxBody,
		logger:       logger,
	}
}

func (c *Classifier) Classify(ctx context.Context, email *domain.CandidateEmail) (domain.Classification, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: c.buildPrompt(email),
			},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.Classification{}, ErrEmptyResponse
	}

	result, err := ParseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("unparseable classifier response",
			"email_id", email.ID,
			"error", err,
		)
		return domain.Classification{}, err
	}

	return result, nil
}

type classificationResponse struct {
	Category   *string  `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// ParseClassification reads the model answer. Unknown categories are folded
// into OTHER with a low confidence instead of failing the email.
func ParseClassification(content string) (domain.Classification, error) {
	var resp classificationResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &resp); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification: %w", err)
	}
	if resp.Category == nil {
		return domain.Classification{}, errors.New("parse classification: missing category")
	}

	confidence := 0.5
	if resp.Confidence != nil {
		confidence = clamp(*resp.Confidence)
	}

	category, ok := domain.ParseCategory(*resp.Category)
	if !ok {
		capped := unknownCategoryConfidence
		if resp.Confidence != nil {
			capped = min(confidence, unknownCategoryConfidence)
		}
		return domain.Classification{Category: domain.CategoryOther, Confidence: capped}, nil
	}

	return domain.Classification{Category: category, Confidence: confidence}, nil
}

// cleanJSONResponse strips markdown fences and chatter around the JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		return content
	}

	return strings.TrimSpace(content[startIdx : endIdx+1])
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
