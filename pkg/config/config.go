package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for canon-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Pipeline tuning knobs
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"canon"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"canon_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL renders the connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"anthropic"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:""`
	// Endpoint overrides the provider's default base URL (proxies, gateways).
	Endpoint  string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	MaxTokens int    `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4000"`
	APIKey    string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// PipelineConfig tunes the unification pipeline.
type PipelineConfig struct {
	// ConfidenceThreshold filters classifier output. Relationships below it
	// are discarded.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"PIPELINE_CONFIDENCE_THRESHOLD" env-default:"0.6"`
	// CandidateMinScore is the deterministic candidate score floor.
	CandidateMinScore float64 `yaml:"candidate_min_score" env:"PIPELINE_CANDIDATE_MIN_SCORE" env-default:"0.7"`
	// MaxCandidatesPerPair bounds candidates kept per entity pair.
	MaxCandidatesPerPair int `yaml:"max_candidates_per_pair" env:"PIPELINE_MAX_CANDIDATES_PER_PAIR" env-default:"5"`
	// MaxCandidatesGlobal bounds candidates kept per build.
	MaxCandidatesGlobal int `yaml:"max_candidates_global" env:"PIPELINE_MAX_CANDIDATES_GLOBAL" env-default:"300"`
}

// Load reads configuration from config.yaml (when present) and the
// environment. A missing config.yaml is fine; env defaults cover everything
// except secrets.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold %v out of range [0,1]", c.Pipeline.ConfidenceThreshold)
	}
	if c.Pipeline.CandidateMinScore < 0 || c.Pipeline.CandidateMinScore > 1 {
		return fmt.Errorf("candidate_min_score %v out of range [0,1]", c.Pipeline.CandidateMinScore)
	}
	return nil
}
