package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Runner   RunnerConfig   `yaml:"runner" mapstructure:"runner"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the per-project persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // file | sqlite | postgres
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProviderConfig holds the keyword-data provider credentials and limits.
type ProviderConfig struct {
	Login        string `yaml:"login" mapstructure:"login"`
	Password     string `yaml:"password" mapstructure:"password"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	LocationCode int    `yaml:"location_code" mapstructure:"location_code"`
	LanguageCode string `yaml:"language_code" mapstructure:"language_code"`
	MaxBatchSize int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`

	// Sliding-window quota for the provider account.
	MaxPerWindow int `yaml:"max_per_window" mapstructure:"max_per_window"`
	WindowMs     int `yaml:"window_ms" mapstructure:"window_ms"`

	// Retry behavior for provider-reported throttling.
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	JitterMs    int `yaml:"jitter_ms" mapstructure:"jitter_ms"`

	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// RunnerConfig configures stage execution.
type RunnerConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// HardTimeoutSecs is the platform's execution cap. The runner stops
	// claiming new work OverheadSecs before it.
	HardTimeoutSecs int `yaml:"hard_timeout_secs" mapstructure:"hard_timeout_secs"`
	OverheadSecs    int `yaml:"overhead_secs" mapstructure:"overhead_secs"`
}

// ScorerConfig configures percentile normalization and tiering.
type ScorerConfig struct {
	// TierMode selects tier thresholds: "fixed" or "percentile".
	TierMode string `yaml:"tier_mode" mapstructure:"tier_mode"`

	VolumeWeight     float64 `yaml:"volume_weight" mapstructure:"volume_weight"`
	CostWeight       float64 `yaml:"cost_weight" mapstructure:"cost_weight"`
	DifficultyWeight float64 `yaml:"difficulty_weight" mapstructure:"difficulty_weight"`

	// Component-score thresholds for the boolean suitability flags.
	PaidVolumeMin     float64 `yaml:"paid_volume_min" mapstructure:"paid_volume_min"`
	PaidCostMin       float64 `yaml:"paid_cost_min" mapstructure:"paid_cost_min"`
	PaidDifficultyMin float64 `yaml:"paid_difficulty_min" mapstructure:"paid_difficulty_min"`
	SEOVolumeMin      float64 `yaml:"seo_volume_min" mapstructure:"seo_volume_min"`
	SEOCostMin        float64 `yaml:"seo_cost_min" mapstructure:"seo_cost_min"`
	SEODifficultyMin  float64 `yaml:"seo_difficulty_min" mapstructure:"seo_difficulty_min"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RequestTimeout returns the per-request provider timeout.
func (p ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSecs) * time.Second
}

// Window returns the sliding-window duration.
func (p ProviderConfig) Window() time.Duration {
	return time.Duration(p.WindowMs) * time.Millisecond
}

// BaseDelay returns the base retry delay.
func (p ProviderConfig) BaseDelay() time.Duration {
	return time.Duration(p.BaseDelayMs) * time.Millisecond
}

// Jitter returns the maximum retry jitter.
func (p ProviderConfig) Jitter() time.Duration {
	return time.Duration(p.JitterMs) * time.Millisecond
}

// HardTimeout returns the platform execution cap.
func (r RunnerConfig) HardTimeout() time.Duration {
	return time.Duration(r.HardTimeoutSecs) * time.Second
}

// Overhead returns the safety margin subtracted from the hard timeout.
func (r RunnerConfig) Overhead() time.Duration {
	return time.Duration(r.OverheadSecs) * time.Second
}

// Load reads configuration from config.yaml (optional) and KWR_* env vars.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KWR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.database_url", "")
	v.SetDefault("provider.login", "")
	v.SetDefault("provider.password", "")
	v.SetDefault("provider.base_url", "https://api.dataforseo.com")
	v.SetDefault("provider.location_code", 2840)
	v.SetDefault("provider.language_code", "en")
	v.SetDefault("provider.max_batch_size", 100)
	v.SetDefault("provider.max_per_window", 12)
	v.SetDefault("provider.window_ms", 60000)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.base_delay_ms", 2000)
	v.SetDefault("provider.jitter_ms", 500)
	v.SetDefault("provider.request_timeout_secs", 60)
	v.SetDefault("runner.concurrency", 4)
	v.SetDefault("runner.hard_timeout_secs", 300)
	v.SetDefault("runner.overhead_secs", 60)
	v.SetDefault("scorer.tier_mode", "fixed")
	v.SetDefault("scorer.volume_weight", 0.5)
	v.SetDefault("scorer.cost_weight", 0.3)
	v.SetDefault("scorer.difficulty_weight", 0.2)
	v.SetDefault("scorer.paid_volume_min", 0.6)
	v.SetDefault("scorer.paid_cost_min", 0.5)
	v.SetDefault("scorer.paid_difficulty_min", 0.5)
	v.SetDefault("scorer.seo_volume_min", 0.3)
	v.SetDefault("scorer.seo_cost_min", 0.2)
	v.SetDefault("scorer.seo_difficulty_min", 0.3)
	v.SetDefault("server.port", 8080)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "file", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url required for postgres driver")
	}
	switch c.Scorer.TierMode {
	case "fixed", "percentile":
	default:
		return eris.Errorf("config: unknown tier mode %q", c.Scorer.TierMode)
	}
	if c.Runner.OverheadSecs >= c.Runner.HardTimeoutSecs {
		return eris.New("config: runner.overhead_secs must be below runner.hard_timeout_secs")
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
