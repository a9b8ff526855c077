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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Merge     MergeConfig     `yaml:"merge" mapstructure:"merge"`
	Answer    AnswerConfig    `yaml:"answer" mapstructure:"answer"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	QC        QCConfig        `yaml:"qc" mapstructure:"qc"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the reasoning and
// detection clients.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	ReasoningModel string  `yaml:"reasoning_model" mapstructure:"reasoning_model"`
	VisionModel    string  `yaml:"vision_model" mapstructure:"vision_model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// MergeConfig configures the field merge engine.
type MergeConfig struct {
	// OverlapThreshold is the minimum share of the smaller box's area that
	// the intersection must cover for two fields to count as the same field.
	OverlapThreshold float64 `yaml:"overlap_threshold" mapstructure:"overlap_threshold"`
	// CoordTolerance is the per-edge tolerance (percentage points) below
	// which two boxes are considered materially identical.
	CoordTolerance float64 `yaml:"coord_tolerance" mapstructure:"coord_tolerance"`
	// PageConcurrency bounds how many pages are detected in parallel.
	PageConcurrency int `yaml:"page_concurrency" mapstructure:"page_concurrency"`
}

// AnswerConfig configures the answer distribution engine.
type AnswerConfig struct {
	ReasonerTimeout time.Duration `yaml:"reasoner_timeout" mapstructure:"reasoner_timeout"`
}

// ReconcileConfig configures the cross-question reconciliation worker.
type ReconcileConfig struct {
	Workers   int           `yaml:"workers" mapstructure:"workers"`
	QueueSize int           `yaml:"queue_size" mapstructure:"queue_size"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// QCConfig configures the merge trigger policy.
type QCConfig struct {
	MinAvgConfidence float64 `yaml:"min_avg_confidence" mapstructure:"min_avg_confidence"`
	MaxCheckboxRatio float64 `yaml:"max_checkbox_ratio" mapstructure:"max_checkbox_ratio"`
	MaxFieldCount    int     `yaml:"max_field_count" mapstructure:"max_field_count"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("FORMFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "formfill.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.reasoning_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.vision_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.requests_per_sec", 5.0)
	v.SetDefault("merge.overlap_threshold", 0.5)
	v.SetDefault("merge.coord_tolerance", 3.0)
	v.SetDefault("merge.page_concurrency", 4)
	v.SetDefault("answer.reasoner_timeout", "10s")
	v.SetDefault("reconcile.workers", 2)
	v.SetDefault("reconcile.queue_size", 64)
	v.SetDefault("reconcile.timeout", "30s")
	v.SetDefault("qc.min_avg_confidence", 0.8)
	v.SetDefault("qc.max_checkbox_ratio", 0.4)
	v.SetDefault("qc.max_field_count", 60)

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
