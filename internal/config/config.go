// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Input   InputConfig   `mapstructure:"input"`
	Output  OutputConfig  `mapstructure:"output"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlConfig governs the frontier, worker pool, and extraction templates.
type CrawlConfig struct {
	SeedURLs         []string `mapstructure:"seed_urls"`
	ResultTemplate   string   `mapstructure:"result_template"`
	ContinueTemplate string   `mapstructure:"continue_template"`
	Concurrency      int      `mapstructure:"concurrency"`
	RateLimit        float64  `mapstructure:"rate_limit"`
	QueueThreshold   int      `mapstructure:"queue_threshold"`
	RemoveDuplicates bool     `mapstructure:"remove_duplicates"`
	MaxDepth         int      `mapstructure:"max_depth"`
}

// HTTPConfig controls outgoing request behavior. Viper lowercases map keys
// on unmarshal, so Headers keys arrive lowercased; the wiring layer
// canonicalizes them through http.Header.Set.
type HTTPConfig struct {
	Headers        map[string]string `mapstructure:"headers"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	UserAgent      string            `mapstructure:"user_agent"`
}

// AuthConfig toggles Google Application Default Credentials.
type AuthConfig struct {
	UseGoogleToken bool     `mapstructure:"use_google_token"`
	Scopes         []string `mapstructure:"scopes"`
}

// InputConfig points at the optional JSONL URL stream ("-" reads stdin).
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig points at the record stream ("-" writes stdout).
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// PubSubConfig holds metadata for the optional per-record egress topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the observability listener ("" disables it).
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.concurrency", 1)
	v.SetDefault("crawl.rate_limit", 10.0)
	v.SetDefault("crawl.queue_threshold", 100)
	v.SetDefault("crawl.remove_duplicates", false)
	v.SetDefault("crawl.max_depth", 0)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "json-harvest/1.0")
	v.SetDefault("output.path", "-")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and option compatibility. A failure here
// is fatal at startup; nothing runs on a partially valid configuration.
func (c Config) Validate() error {
	if c.Crawl.ResultTemplate == "" {
		return fmt.Errorf("crawl.result_template is required")
	}
	if len(c.Crawl.SeedURLs) == 0 && c.Input.Path == "" {
		return fmt.Errorf("either crawl.seed_urls or input.path must be provided")
	}
	if len(c.Auth.Scopes) > 0 && !c.Auth.UseGoogleToken {
		return fmt.Errorf("auth.scopes can only be used when auth.use_google_token is true")
	}
	if c.Auth.UseGoogleToken {
		for key := range c.HTTP.Headers {
			if strings.EqualFold(key, "Authorization") {
				return fmt.Errorf("cannot use auth.use_google_token with a custom Authorization header")
			}
		}
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.Crawl.RateLimit < 0 {
		return fmt.Errorf("crawl.rate_limit must be >= 0")
	}
	if c.Crawl.QueueThreshold <= 0 {
		return fmt.Errorf("crawl.queue_threshold must be > 0")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set together")
	}
	return nil
}

// HTTPTimeout converts the timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
