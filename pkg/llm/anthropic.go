package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/retry"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	retryCfg  *retry.Config
	logger    *zap.Logger
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.maxTokens(),
		retryCfg:  cfg.Retry,
		logger:    logger.Named("llm.anthropic"),
	}, nil
}

// CompleteJSON implements Client. Anthropic has no JSON response mode, so
// the system message carries the JSON-only instruction and the output goes
// through the repair chain like any other response.
func (c *AnthropicClient) CompleteJSON(ctx context.Context, prompt string, system string, temperature float64) (*Completion, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()
	temp := float32(temperature)

	var resp anthropic.MessagesResponse
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		r, callErr := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model: anthropic.Model(c.model),
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(prompt),
			},
			System:      system,
			MaxTokens:   c.maxTokens,
			Temperature: &temp,
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

	if len(resp.Content) == 0 {
		return nil, NewError(ErrorTypeMalformed, "no content in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &Completion{
		Content: resp.Content[0].GetText(),
		Usage: Usage{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"total_tokens":  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// Provider implements Client.
func (c *AnthropicClient) Provider() string { return "anthropic" }

// Model implements Client.
func (c *AnthropicClient) Model() string { return c.model }

var _ Client = (*AnthropicClient)(nil)
