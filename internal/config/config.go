package config

import "time"

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	CrawlTimeout    int    `mapstructure:"crawl_timeout"`    // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig names where the taxonomy catalog comes from. URL wins over
// Path when both are set.
type CatalogConfig struct {
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type BootstrapConfig struct {
	Path string `mapstructure:"path"`
}

type CrawlerConfig struct {
	Timeout     int    `mapstructure:"timeout"`      // milliseconds
	DialTimeout int    `mapstructure:"dial_timeout"` // milliseconds
	SizeCap     int64  `mapstructure:"size_cap"`     // bytes
	Retries     int    `mapstructure:"retries"`
	Backoff     int    `mapstructure:"backoff"` // milliseconds
	UserAgent   string `mapstructure:"user_agent"`
	Concurrency int    `mapstructure:"concurrency"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
