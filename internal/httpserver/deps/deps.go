package deps

import (
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
	"github.com/linklab/linkdex/internal/store/file"
	redisstore "github.com/linklab/linkdex/internal/store/redis"
	"github.com/linklab/linkdex/internal/ws"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Repo   *file.Repository  // sharded link repository
	Store  *file.Store       // shard file store (category discovery)
	Mirror *index.Mirror     // in-memory collection mirror
	Hub    *ws.Hub           // live-update broadcaster
	Cache  *redisstore.Cache // optional Redis cache (nil = disabled)

	RedisClient *goredis.Client // nil when the cache is disabled

	AllowedHosts  []string      // Host headers allowed on mutating/admin routes
	AllowedCIDRS  []string      // IPs allowed on mutating/admin routes
	TrustProxy    bool          // true if running behind a trusted reverse proxy
	RateBurst     int           // rate-limit burst for mutating routes
	RatePerMin    int           // rate-limit refill per IP per minute
	ReloadTrigger chan struct{} // channel to trigger a manual catalog reload
}
