package config

import "time"

// Limits bounds the calls made against the GitHub API.
type Limits struct {
	Timeout    time.Duration   `yaml:"timeout" validate:"required,min=1s,max=5m"`
	MaxRetries int             `yaml:"max_retries" validate:"min=0,max=10"`
	Backoff    time.Duration   `yaml:"backoff" validate:"min=0,max=1m"`
	RateLimit  RateLimitConfig `yaml:"rate_limit" validate:"required"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"required,min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

func DefaultLimits() Limits {
	return Limits{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Backoff:    time.Second,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
	}
}
