// Package config loads the EvalUp configuration from config.yaml and EVALUP_*
// environment variables, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"evalup/pkg/core/diagnostic"
	"evalup/pkg/core/ingest"
	"evalup/pkg/core/valuation"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pappers    PappersConfig    `yaml:"pappers" mapstructure:"pappers"`
	Reference  ReferenceConfig  `yaml:"reference" mapstructure:"reference"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`
	Diagnostic DiagnosticConfig `yaml:"diagnostic" mapstructure:"diagnostic"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// RequestTimeout returns the per-request deadline.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures persistence. An empty DatabaseURL disables it.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheTTLHrs int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// PappersConfig holds the registry API settings.
type PappersConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ReferenceConfig points at an optional override file for the reference tables.
type ReferenceConfig struct {
	OverridesPath string `yaml:"overrides_path" mapstructure:"overrides_path"`
}

// ValuationConfig tunes the DCF projection.
type ValuationConfig struct {
	ProjectionYears int     `yaml:"projection_years" mapstructure:"projection_years"`
	CashConversion  float64 `yaml:"cash_conversion" mapstructure:"cash_conversion"`
}

// Options converts to the valuation package options.
func (v ValuationConfig) Options() valuation.Options {
	return valuation.Options{ProjectionYears: v.ProjectionYears, CashConversion: v.CashConversion}
}

// DiagnosticConfig tunes the diagnostic output.
type DiagnosticConfig struct {
	MaxHighlights int `yaml:"max_highlights" mapstructure:"max_highlights"`
}

// Options converts to the diagnostic package options.
func (d DiagnosticConfig) Options() diagnostic.Options {
	return diagnostic.Options{MaxHighlights: d.MaxHighlights}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVALUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.cache_dir", "")
	v.SetDefault("store.cache_ttl_hours", 168)
	v.SetDefault("pappers.base_url", ingest.DefaultPappersBaseURL)
	v.SetDefault("pappers.api_key", "")
	v.SetDefault("pappers.timeout_secs", 10)
	v.SetDefault("reference.overrides_path", "")
	v.SetDefault("valuation.projection_years", valuation.DefaultProjectionYears)
	v.SetDefault("valuation.cash_conversion", valuation.DefaultCashConversion)
	v.SetDefault("diagnostic.max_highlights", diagnostic.DefaultMaxHighlights)

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

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Valuation.CashConversion < 0 || c.Valuation.CashConversion > 1 {
		return eris.Errorf("config: valuation.cash_conversion must be in [0, 1], got %g", c.Valuation.CashConversion)
	}
	if c.Valuation.ProjectionYears < 0 || c.Valuation.ProjectionYears > 15 {
		return eris.Errorf("config: valuation.projection_years must be in [0, 15], got %d", c.Valuation.ProjectionYears)
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
