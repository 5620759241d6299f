package config

// Rate limiting applies only to the login endpoint: repeated failed
// guesses against the unsalted credential store are the one abuse
// vector this service cares about. The limiter is a fixed window
// counter per client IP kept in Redis.

import "time"

// RateLimitConfig controls the login rate limiter.
type RateLimitConfig struct {
	Enabled bool          // disable to let every request through
	Limit   int           // attempts allowed per window
	Window  time.Duration // window length
	Prefix  string        // redis key prefix
}

// LoadRateLimit builds the limiter configuration from environment
// variables. Defaults allow 10 login attempts per minute per IP.
// Set LOGIN_RATE_LIMIT_ENABLED=false to disable.
func LoadRateLimit() RateLimitConfig {
	enabled := true
	if v := getenvDefault("LOGIN_RATE_LIMIT_ENABLED", "true"); v == "false" || v == "0" {
		enabled = false
	}
	return RateLimitConfig{
		Enabled: enabled,
		Limit:   getenvInt("LOGIN_RATE_LIMIT", 10),
		Window:  time.Duration(getenvInt("LOGIN_RATE_WINDOW_SEC", 60)) * time.Second,
		Prefix:  getenvDefault("LOGIN_RATE_PREFIX", "ratelimit:login"),
	}
}
