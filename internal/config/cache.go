package config

// Response caching is applied to the read-only report endpoints.
// Reports aggregate over the whole visit ledger, so a short TTL keeps
// repeated dashboard refreshes cheap without letting stale numbers
// linger.

import "time"

// CacheConfig controls the report response cache middleware.
type CacheConfig struct {
	Enabled bool          // disable to always hit the database
	TTL     time.Duration // how long a cached response stays valid
	Prefix  string        // redis key prefix
}

// LoadCache builds the cache configuration from environment
// variables. Defaults cache report responses for 30 seconds.
// Set REPORT_CACHE_ENABLED=false to disable.
func LoadCache() CacheConfig {
	enabled := true
	if v := getenvDefault("REPORT_CACHE_ENABLED", "true"); v == "false" || v == "0" {
		enabled = false
	}
	return CacheConfig{
		Enabled: enabled,
		TTL:     time.Duration(getenvInt("REPORT_CACHE_TTL_SEC", 30)) * time.Second,
		Prefix:  getenvDefault("REPORT_CACHE_PREFIX", "cache:report"),
	}
}
