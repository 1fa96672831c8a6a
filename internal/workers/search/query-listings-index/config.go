package querylistingsindex

import "time"

type Config struct {
	Timeout    time.Duration
	Index      string
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		Index:      "listings",
		MaxResults: 200,
	}
}
