package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/retry"
)

// Config holds configuration for creating a provider client.
type Config struct {
	Endpoint  string // Base URL; optional, provider default when empty
	Model     string // Model name, e.g. "gpt-4o"
	APIKey    string
	MaxTokens int           // Response token cap; defaults to 4000
	Retry     *retry.Config // nil uses retry.DefaultConfig
}

func (c *Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4000
}

// OpenAIClient talks to OpenAI-compatible chat completion endpoints in
// JSON-object response mode.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	retryCfg  *retry.Config
	logger    *zap.Logger
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.maxTokens(),
		retryCfg:  cfg.Retry,
		logger:    logger.Named("llm.openai"),
	}, nil
}

// CompleteJSON implements Client.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string, system string, temperature float64) (*Completion, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	var resp openai.ChatCompletionResponse
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		r, callErr := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: float32(temperature),
			MaxTokens:   c.maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if callErr != nil {
			return ClassifyError(callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(ErrorTypeMalformed, "no choices in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			"input_tokens":  resp.Usage.PromptTokens,
			"output_tokens": resp.Usage.CompletionTokens,
			"total_tokens":  resp.Usage.TotalTokens,
		},
	}, nil
}

// Provider implements Client.
func (c *OpenAIClient) Provider() string { return "openai" }

// Model implements Client.
func (c *OpenAIClient) Model() string { return c.model }

var _ Client = (*OpenAIClient)(nil)
