package rundigest

import "time"

type Config struct {
	Timeout       time.Duration
	EmailProvider string
	// Fallback windows when a sheet has never run.
	DailyWindow  time.Duration
	WeeklyWindow time.Duration
	MaxListings  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Minute,
		EmailProvider: "ses",
		DailyWindow:   24 * time.Hour,
		WeeklyWindow:  7 * 24 * time.Hour,
		MaxListings:   50,
	}
}
