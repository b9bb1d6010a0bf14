// Package redis connects to Redis with github.com/redis/go-redis/v9.
//
// The billing service keeps short-lived OAuth state tokens in Redis. Connect
// parses REDIS_URL and waits for the server to answer PING; Healthcheck plugs
// into the readiness endpoint.
package redis
