package redis

import "strings"

// Config holds Redis connection settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// KeyPrefix namespaces every key, so several servers can share one Redis
	KeyPrefix string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		KeyPrefix:    "prisons",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Key joins parts under the configured prefix with ':'
func (c Config) Key(parts ...string) string {
	if c.KeyPrefix != "" {
		parts = append([]string{c.KeyPrefix}, parts...)
	}
	return strings.Join(parts, ":")
}
