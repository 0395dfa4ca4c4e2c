package deps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/registry"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

type Deps struct {
	Logger      logger.Logger
	StartTime   time.Time
	Version     string
	Commit      string
	BuildDate   string
	GoVersion   string
	TimeNow     func() time.Time    // for testing, defaults to time.Now
	AdminCIDRS  []string            // IPs allowed to reach administration and infra endpoints
	TrustProxy  bool                // true if running behind a trusted reverse proxy
	BaseURL     string              // externally visible root; derived from the request when empty
	Registry    *registry.Registry  // plugin registry
	State       *session.State      // state shared by every mock
	RedisClient *redis.Client       // nil when messages are kept in memory
	Gatherer    prometheus.Gatherer // source of /metrics
}

// Now returns the current time, honouring TimeNow.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
