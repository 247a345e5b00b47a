package startup

import (
	"context"
	"time"

	sessionredis "github.com/workchat/internal/session/redis"
)

// ConnectRedisWithRetry подключается к Redis с повторами.
func ConnectRedisWithRetry(redisURL string, maxWait time.Duration) *sessionredis.Client {
	var client *sessionredis.Client
	retryUntil("redis connect", maxWait, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := sessionredis.New(ctx, redisURL)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	return client
}
