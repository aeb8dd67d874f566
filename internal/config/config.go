package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           string `env:"PORT" envDefault:"8084"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`
	KafkaBrokers   string `env:"KAFKA_BROKERS"`
	NatsURL        string `env:"NATS_URL"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`

	Agent AgentConfig

	LocalStore     string `env:"LOCAL_STORE" envDefault:"sqlite"`
	LocalStorePath string `env:"LOCAL_STORE_PATH" envDefault:"dispute-cache.db"`
	LocalStoreKey  string `env:"LOCAL_STORE_KEY" envDefault:"arc_drx_claims"`

	DemoCustomerIDs   []int64       `env:"DEMO_CUSTOMER_IDS" envDefault:"501" envSeparator:","`
	WatchPollInterval time.Duration `env:"WATCH_POLL_INTERVAL" envDefault:"3s"`
	ClaimLockTTL      time.Duration `env:"CLAIM_LOCK_TTL" envDefault:"30s"`
}

type AgentConfig struct {
	URL        string        `env:"AGENT_URL" envDefault:"https://api.mistral.ai/v1/agents/completions"`
	APIKey     string        `env:"AGENT_API_KEY"`
	AgentID    string        `env:"AGENT_ID"`
	Timeout    time.Duration `env:"AGENT_TIMEOUT" envDefault:"15s"`
	MaxRetries int           `env:"AGENT_MAX_RETRIES" envDefault:"3"`
	Backoff    time.Duration `env:"AGENT_BACKOFF" envDefault:"2s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.LocalStore {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("LOCAL_STORE=redis requires REDIS_URL")
		}
	case "sqlite":
	default:
		return nil, fmt.Errorf("unknown LOCAL_STORE %q", cfg.LocalStore)
	}
	if cfg.Agent.MaxRetries < 0 {
		return nil, fmt.Errorf("AGENT_MAX_RETRIES must not be negative")
	}
	return &cfg, nil
}

// IsDemoCustomer reports whether id is flagged as a demo/seed account.
func (c *Config) IsDemoCustomer(id int64) bool {
	for _, demo := range c.DemoCustomerIDs {
		if demo == id {
			return true
		}
	}
	return false
}
