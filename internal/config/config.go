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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Decision  DecisionConfig  `yaml:"decision" mapstructure:"decision"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OracleConfig tunes the extraction calls.
type OracleConfig struct {
	MaxTokens          int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestTimeoutSecs int   `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	RequestsPerMin     int   `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// DecisionConfig tunes the confidence scoring weights.
type DecisionConfig struct {
	WarningWeight    float64 `yaml:"warning_weight" mapstructure:"warning_weight"`
	CriticalWeight   float64 `yaml:"critical_weight" mapstructure:"critical_weight"`
	UnresolvedWeight float64 `yaml:"unresolved_weight" mapstructure:"unresolved_weight"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("KARTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "karta.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	// Viper only surfaces env vars through Unmarshal for known keys, so
	// the secret needs an explicit empty default.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("oracle.max_tokens", 4096)
	v.SetDefault("oracle.request_timeout_secs", 60)
	v.SetDefault("oracle.requests_per_min", 30)
	v.SetDefault("decision.warning_weight", 0.1)
	v.SetDefault("decision.critical_weight", 0.6)
	v.SetDefault("decision.unresolved_weight", 0.15)

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
