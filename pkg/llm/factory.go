package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/retry"
)

// ProviderConfig selects and configures one LLM provider. Selection happens
// once at wiring time; the pipeline only ever sees the Client interface, so
// provider branching never leaks into pipeline code.
type ProviderConfig struct {
	Provider  string // "openai" or "anthropic"
	Endpoint  string
	Model     string
	APIKey    string
	MaxTokens int
	Retry     *retry.Config
}

// Factory creates LLM clients. Use this interface for dependency injection
// and testing.
type Factory interface {
	NewClient() (Client, error)
}

// ProviderFactory creates clients from a static provider configuration.
type ProviderFactory struct {
	cfg    ProviderConfig
	logger *zap.Logger
}

// NewProviderFactory creates a factory for the configured provider.
func NewProviderFactory(cfg ProviderConfig, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{cfg: cfg, logger: logger}
}

// NewClient implements Factory.
func (f *ProviderFactory) NewClient() (Client, error) {
	clientCfg := &Config{
		Endpoint:  f.cfg.Endpoint,
		Model:     f.cfg.Model,
		APIKey:    f.cfg.APIKey,
		MaxTokens: f.cfg.MaxTokens,
		Retry:     f.cfg.Retry,
	}

	switch f.cfg.Provider {
	case "openai":
		return NewOpenAIClient(clientCfg, f.logger)
	case "anthropic":
		return NewAnthropicClient(clientCfg, f.logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", f.cfg.Provider)
	}
}

var _ Factory = (*ProviderFactory)(nil)
