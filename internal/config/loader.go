package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml from ./configs or the working directory, then
// applies TAXO_* environment overrides (TAXO_SERVER_ADDR, ...). A .env file
// in the working directory is loaded first when present. A missing config
// file is not an error.
func Load() (*Config, error) {
	return load("")
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TAXO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 600000)
	v.SetDefault("server.shutdown_timeout", 10000)
	v.SetDefault("server.crawl_timeout", 600000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.timeout", 10000)

	v.SetDefault("bootstrap.path", "data/crawled_data.json")

	v.SetDefault("crawler.timeout", 15000)
	v.SetDefault("crawler.dial_timeout", 5000)
	v.SetDefault("crawler.size_cap", 5*1024*1024)
	v.SetDefault("crawler.retries", 2)
	v.SetDefault("crawler.backoff", 1000)
	v.SetDefault("crawler.user_agent", "")
	v.SetDefault("crawler.concurrency", 10)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "")
}

// overrideEmptyConfig falls back to the conventional unprefixed variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Logging.Format)
	}
	if cfg.Crawler.Retries < 0 {
		return fmt.Errorf("crawler.retries must not be negative")
	}
	if cfg.Crawler.SizeCap <= 0 {
		return fmt.Errorf("crawler.size_cap must be positive")
	}
	if cfg.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be positive")
	}
	if cfg.Server.CrawlTimeout <= 0 || cfg.Crawler.Timeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
