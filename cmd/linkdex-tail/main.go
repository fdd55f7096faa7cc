// linkdex-tail follows the live-update channel of a linkdex server and logs
// every change it receives. Useful for watching a directory from a terminal
// and as a smoke test for the channel itself.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
	"github.com/linklab/linkdex/internal/ws"
)

func main() {
	var (
		url         = flag.String("url", "ws://localhost:8080/api/ws", "live-update endpoint")
		versionFile = flag.String("version-file", ".linkdex-tail.version", "file persisting the last seen version token")
		retryDelay  = flag.Duration("retry-delay", envDuration("LINKDEX_WS_RETRY_DELAY", 3*time.Second), "delay between reconnect attempts")
		maxRetries  = flag.Int("max-retries", envInt("LINKDEX_WS_MAX_RETRIES", 10), "max consecutive reconnect attempts")
		logLevel    = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Parse()

	loggerClient := logger.New(*logLevel, true)

	sub := ws.NewSubscriber(ws.SubscriberOptions{
		URL:         *url,
		VersionFile: *versionFile,
		RetryDelay:  *retryDelay,
		MaxRetries:  *maxRetries,
		Logger:      loggerClient,
		OnState: func(s ws.State) {
			loggerClient.Info("connection state changed",
				logger.String("state", string(s)))
		},
		OnUpdate: func(changed []*domain.Link, version string) {
			for _, item := range changed {
				loggerClient.Info("link changed",
					logger.String("id", item.ID),
					logger.String("title", item.Title),
					logger.String("category", item.Category),
					logger.String("url", item.URL))
			}
			loggerClient.Info("collection updated",
				logger.Int("changed", len(changed)),
				logger.String("version", version))
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sub.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("❌ linkdex-tail stopped: %v", err)
	}
}

// Flag defaults can come from the environment so the follower is configurable
// the same way the server is.
func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
