package dispatchnotifications

import "time"

type Config struct {
	Timeout       time.Duration
	EmailProvider string
	AgentCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		EmailProvider: "ses",
		AgentCacheTTL: 15 * time.Minute,
	}
}
