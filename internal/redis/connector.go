package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linklab/linkdex/internal/logger"
)

// ConnectOptions defines Redis connection behavior. The cache is optional,
// so unlike the primary store there is no long retry loop here: one ping with
// a timeout decides whether the cache is available at startup.
type ConnectOptions struct {
	Addr         string        // Redis address (ex: "localhost:6379")
	User         string        // Optional username
	Password     string        // Optional password
	RedisDB      int           // Redis DB number
	DialTimeout  time.Duration // Redis dial timeout
	ReadTimeout  time.Duration // Redis read timeout
	WriteTimeout time.Duration // Redis write timeout
	PoolSize     int           // Redis connection pool size
	PingTimeout  time.Duration // timeout for the startup ping
}

// New creates and pings a Redis client. Callers treat a nil client as
// "cache disabled" and must keep working without it.
func New(opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("connected to redis",
		logger.String("addr", opts.Addr))
	return client, nil
}
