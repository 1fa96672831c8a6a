package sendemail

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	// SMS goes out only for jobs at or above this priority.
	SMSPriority string
	Timeout     time.Duration
	// How long one consumer poll blocks on an empty queue.
	PollInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSPriority:  "high",
		Timeout:      30 * time.Second,
		PollInterval: 5 * time.Second,
	}
}
