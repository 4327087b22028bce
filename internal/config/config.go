package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Generate  GenerateConfig  `yaml:"generate" mapstructure:"generate"`
	Knowledge KnowledgeConfig `yaml:"knowledge" mapstructure:"knowledge"`
	Jobs      JobsConfig      `yaml:"jobs" mapstructure:"jobs"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the durable storage backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EnrichConfig holds enrichment API (Proxycurl) settings.
type EnrichConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GenerateConfig configures outreach content generation.
type GenerateConfig struct {
	Senders         []string `yaml:"senders" mapstructure:"senders"`
	ContextSnippets int      `yaml:"context_snippets" mapstructure:"context_snippets"`
}

// KnowledgeConfig configures the knowledge retrieval engine.
type KnowledgeConfig struct {
	UploadDir    string  `yaml:"upload_dir" mapstructure:"upload_dir"`
	ChunkSize    int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinRelevance float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
}

// JobsConfig configures job retention and eviction.
type JobsConfig struct {
	RetentionMins int `yaml:"retention_mins" mapstructure:"retention_mins"`
	SweepSecs     int `yaml:"sweep_secs" mapstructure:"sweep_secs"`
}

// BatchConfig configures batch submission.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("enrich.base_url", "https://nubela.co/proxycurl/api")
	v.SetDefault("enrich.timeout_secs", 30)
	v.SetDefault("enrich.rate_per_sec", 2)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("generate.senders", []string{"Account Executive", "Solutions Consultant", "Customer Success Lead", "Product Specialist"})
	v.SetDefault("generate.context_snippets", 3)
	v.SetDefault("knowledge.upload_dir", "uploads/knowledge")
	v.SetDefault("knowledge.chunk_size", 800)
	v.SetDefault("knowledge.min_relevance", 0.01)
	v.SetDefault("jobs.retention_mins", 60)
	v.SetDefault("jobs.sweep_secs", 60)
	v.SetDefault("batch.max_concurrent", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the configuration for a given run mode.
// Modes: "analysis" (needs enrichment + generation credentials), "serve"
// (analysis plus a listening port), "knowledge" (engine-only commands).
func (c *Config) Validate(mode string) error {
	var missing []string

	checkAnalysis := func() {
		if c.Enrich.Key == "" {
			missing = append(missing, "enrich.key is required (OUTREACH_ENRICH_KEY)")
		}
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required (OUTREACH_ANTHROPIC_KEY)")
		}
		if c.Jobs.RetentionMins <= 0 {
			missing = append(missing, "jobs.retention_mins must be > 0")
		}
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
			missing = append(missing, "batch.max_concurrent must be between 1 and 50")
		}
	}

	switch mode {
	case "analysis":
		checkAnalysis()
	case "serve":
		checkAnalysis()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "knowledge":
		if c.Knowledge.ChunkSize <= 0 {
			missing = append(missing, "knowledge.chunk_size must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}
