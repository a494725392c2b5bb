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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding" mapstructure:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LLMConfig configures the Claude-based theme extractor.
type LLMConfig struct {
	Key                string  `yaml:"key" mapstructure:"key"`
	Model              string  `yaml:"model" mapstructure:"model"`
	MarketCapThreshold float64 `yaml:"market_cap_threshold" mapstructure:"market_cap_threshold"`
	Enabled            bool    `yaml:"enabled" mapstructure:"enabled"`
}

// EmbeddingConfig configures the semantic pre-filter.
type EmbeddingConfig struct {
	BaseURL             string  `yaml:"base_url" mapstructure:"base_url"`
	Key                 string  `yaml:"key" mapstructure:"key"`
	Model               string  `yaml:"model" mapstructure:"model"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ChunkSizeWords      int     `yaml:"chunk_size_words" mapstructure:"chunk_size_words"`
	CacheDir            string  `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// ExtractionConfig configures the ensemble.
type ExtractionConfig struct {
	MaxThemes int `yaml:"max_themes" mapstructure:"max_themes"`
}

// ProvidersConfig holds data-provider credentials and identity settings.
type ProvidersConfig struct {
	EdgarUserAgent   string `yaml:"edgar_user_agent" mapstructure:"edgar_user_agent"`
	PatentsViewKey   string `yaml:"patentsview_key" mapstructure:"patentsview_key"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	SocialWindowDays int    `yaml:"social_window_days" mapstructure:"social_window_days"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentTickers int `yaml:"max_concurrent_tickers" mapstructure:"max_concurrent_tickers"`
}

// ServerConfig configures the query API server.
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
	v.SetEnvPrefix("STOCKTHEMES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "stock_themes.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.market_cap_threshold", 1e9)
	v.SetDefault("llm.enabled", true)
	v.SetDefault("embedding.base_url", "http://localhost:8081")
	v.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	v.SetDefault("embedding.similarity_threshold", 0.6)
	v.SetDefault("embedding.chunk_size_words", 200)
	v.SetDefault("embedding.cache_dir", ".cache/stock-themes")
	v.SetDefault("extraction.max_themes", 10)
	v.SetDefault("batch.max_concurrent_tickers", 1)
	v.SetDefault("providers.edgar_user_agent", "stock-themes research@sellsadvisors.com")
	v.SetDefault("providers.cache_ttl_hours", 24)
	v.SetDefault("providers.social_window_days", 30)

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
