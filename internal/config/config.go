package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Advisory   AdvisoryConfig   `yaml:"advisory" mapstructure:"advisory"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// AnthropicConfig holds Anthropic API settings for the advisory opinion.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	Model          string `yaml:"model" mapstructure:"model"`
	MaxTokens      int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxPromptChars int    `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
	PromptCacheTTL string `yaml:"prompt_cache_ttl" mapstructure:"prompt_cache_ttl"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AdvisoryConfig toggles and paces the advisory opinion.
type AdvisoryConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// OCRConfig configures document text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// ValidationConfig configures scoring thresholds and rule windows.
type ValidationConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	FlagThreshold   float64 `yaml:"flag_threshold" mapstructure:"flag_threshold"`
	// Strict raises the accept threshold to the legacy 0.8.
	Strict          bool `yaml:"strict" mapstructure:"strict"`
	AssessmentYears int  `yaml:"assessment_years" mapstructure:"assessment_years"`
	// AssessmentEndYear of 0 means the current year.
	AssessmentEndYear int    `yaml:"assessment_end_year" mapstructure:"assessment_end_year"`
	CriteriaFile      string `yaml:"criteria_file" mapstructure:"criteria_file"`
	Concurrency       int    `yaml:"concurrency" mapstructure:"concurrency"`
	CandidateLimit    int    `yaml:"candidate_limit" mapstructure:"candidate_limit"`
	PersistResults    bool   `yaml:"persist_results" mapstructure:"persist_results"`
}

// EndYear resolves the last year of the assessment period.
func (v ValidationConfig) EndYear(now time.Time) int {
	if v.AssessmentEndYear > 0 {
		return v.AssessmentEndYear
	}
	return now.Year()
}

// RedisConfig configures the shared advisory response cache. An empty URL
// selects the in-process cache.
type RedisConfig struct {
	URL              string `yaml:"url" mapstructure:"url"`
	PoolSize         int    `yaml:"pool_size" mapstructure:"pool_size"`
	DialTimeoutSecs  int    `yaml:"dial_timeout_secs" mapstructure:"dial_timeout_secs"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// ResilienceConfig configures retries and circuit breakers for upstream APIs.
type ResilienceConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// MetricsConfig configures Prometheus output. CLI runs write a
// node-exporter textfile when TextfilePath is set.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml in the working directory and
// NAAC_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NAAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.max_prompt_chars", 4000)
	v.SetDefault("anthropic.prompt_cache_ttl", "5m")
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("advisory.enabled", false)
	v.SetDefault("advisory.requests_per_second", 2.0)
	v.SetDefault("advisory.burst", 2)
	v.SetDefault("advisory.cache_ttl_hours", 24)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("validation.accept_threshold", 0.6)
	v.SetDefault("validation.flag_threshold", 0.4)
	v.SetDefault("validation.strict", false)
	v.SetDefault("validation.assessment_years", 5)
	v.SetDefault("validation.assessment_end_year", 0)
	v.SetDefault("validation.concurrency", 4)
	v.SetDefault("validation.candidate_limit", 10)
	v.SetDefault("validation.persist_results", false)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout_secs", 5)
	v.SetDefault("redis.read_timeout_secs", 3)
	v.SetDefault("redis.write_timeout_secs", 3)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 10000)
	v.SetDefault("resilience.multiplier", 2.0)
	v.SetDefault("resilience.jitter_fraction", 0.25)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validation modes.
const (
	// ModeValidate needs no external services.
	ModeValidate = "validate"
	// ModeStore needs a record database.
	ModeStore = "store"
)

// Validate checks the configuration for the given mode and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	v := c.Validation
	if v.FlagThreshold < 0 || v.AcceptThreshold > 1 || v.FlagThreshold > v.AcceptThreshold {
		errs = append(errs, fmt.Sprintf("validation thresholds must satisfy 0 <= flag_threshold (%v) <= accept_threshold (%v) <= 1", v.FlagThreshold, v.AcceptThreshold))
	}
	if v.AssessmentYears <= 0 {
		errs = append(errs, "validation.assessment_years must be positive")
	}
	if v.Concurrency <= 0 {
		errs = append(errs, "validation.concurrency must be positive")
	}
	if v.CandidateLimit <= 0 {
		errs = append(errs, "validation.candidate_limit must be positive")
	}

	switch c.OCR.Provider {
	case "", "local":
	case "mistral":
		if c.OCR.MistralKey == "" {
			errs = append(errs, "ocr.mistral_key is required for the mistral provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("ocr.provider %q is not one of local, mistral", c.OCR.Provider))
	}

	if c.Advisory.Enabled && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required when advisory.enabled is set")
	}

	switch mode {
	case ModeValidate:
	case ModeStore:
		switch c.Store.Driver {
		case "postgres", "sqlite":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not one of postgres, sqlite", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
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
