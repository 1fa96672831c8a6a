package normalizecriteria

import "time"

// Pure in-memory normalization, so only the job timeout is configurable.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
