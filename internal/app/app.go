package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linklab/linkdex/internal/config"
	"github.com/linklab/linkdex/internal/httpserver"
	"github.com/linklab/linkdex/internal/httpserver/deps"
	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
	"github.com/linklab/linkdex/internal/redis"
	"github.com/linklab/linkdex/internal/scheduler"
	"github.com/linklab/linkdex/internal/store/file"
	redisstore "github.com/linklab/linkdex/internal/store/redis"
	"github.com/linklab/linkdex/internal/version"
	"github.com/linklab/linkdex/internal/ws"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	mirror      *index.Mirror
	hub         *ws.Hub
	reloader    *scheduler.CatalogReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Shard store and repository over the content directory.
	store := file.NewStore(cfg.ContentDir, loggerClient)
	repo := file.NewRepository(store, loggerClient)

	// Optional Redis cache - the service runs fine without it.
	var redisClient *goredis.Client
	var cache *redisstore.Cache
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, running without listing cache",
				logger.Error(err))
		} else {
			redisClient = client
			cache = redisstore.NewCache(client, cfg.CacheTTL)
		}
	} else {
		loggerClient.Info("redis not configured, listing cache disabled")
	}

	// Collection mirror + live-update hub. The mirror is owned here and
	// handed to the hub and the scheduler; neither creates its own.
	mirror := index.NewMirror()
	hub := ws.NewHub(mirror, cfg.WSHistoryLimit, loggerClient)

	// Manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewCatalogReloader(
		cfg.CategoriesFile,
		repo,
		store,
		mirror,
		cache,
		hub,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		Repo:          repo,
		Store:         store,
		Mirror:        mirror,
		Hub:           hub,
		Cache:         cache,
		RedisClient:   redisClient,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     cfg.RateBurst,
		RatePerMin:    cfg.RatePerMin,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		mirror:      mirror,
		hub:         hub,
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Linkdex v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Linkdex %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start catalog reloader (loads the collection and starts periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval),
		logger.Int("links", a.mirror.Count()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Linkdex stopped cleanly")
	return nil
}
