package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewClient connects and pings so misconfiguration fails at startup.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
