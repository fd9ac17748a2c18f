// Package ai writes short business summaries of the shop's sales through an
// Azure OpenAI deployment.
package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"metitejidos.com.ar/storefront/pkg/global"
)

type Client struct {
	api    openai.Client
	model  string
	unit   currency.Unit
	logger *zap.Logger
}

// NewClient returns nil when the endpoint or key is missing. A nil *Client
// is valid and reports Enabled() == false.
func NewClient(cfg global.AIConfig, unit currency.Unit, logger *zap.Logger, opts ...option.RequestOption) *Client {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		logger.Info("AI insights disabled, Azure OpenAI credentials not provided")
		return nil
	}

	opts = append([]option.RequestOption{
		option.WithBaseURL(cfg.Endpoint),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
		option.WithRequestTimeout(30 * time.Second),
	}, opts...)

	logger.Info("AI insights enabled", zap.String("deployment", cfg.Deployment))
	return &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Deployment,
		unit:   unit,
		logger: logger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil
}

func (c *Client) complete(ctx context.Context, systemMessage, userMessage string) (string, error) {
	if !c.Enabled() {
		return "", &AIError{Message: "AI service is not enabled"}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemMessage),
			openai.UserMessage(userMessage),
		},
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		c.logger.Warn("AI completion failed", zap.Error(err))
		return "", &AIError{Message: "failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}
	return resp.Choices[0].Message.Content, nil
}

type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
