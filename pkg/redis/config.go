package redis

import "time"

// Config holds the Redis client settings. Redis is optional for the billing
// service: an empty URL disables the Redis-backed OAuth state store.
type Config struct {
	URL            string        `env:"REDIS_URL"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
	PingAttempts   int           `env:"REDIS_PING_ATTEMPTS" envDefault:"3"`
	PingInterval   time.Duration `env:"REDIS_PING_INTERVAL" envDefault:"1s"`
}

// Enabled reports whether a Redis URL was configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}
