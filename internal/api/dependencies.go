package api

import (
	"context"
	"time"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/db/repositories"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"
	"infinite-experiment/hangar/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Pilots        *repositories.PilotRepository
	Flights       *repositories.FlightRepository
	Aircraft      *repositories.AircraftRepository
	SafetyReports *repositories.SafetyReportRepository
	RouteTargets  *repositories.RouteTargetRepository
}

type Services struct {
	Cache         common.CacheInterface
	Alerts        *common.RedisQueueService
	Admin         *services.AdminService
	Pilots        *services.PilotService
	Flights       *services.FlightService
	Aircraft      *services.AircraftService
	SafetyReports *services.SafetyReportService
	RouteTargets  *services.RouteTargetService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services

	Auth    *auth.Authenticator
	Hub     *changefeed.Hub
	Metrics *metrics.MetricsRegistry

	// SQL and Redis are kept for the health check. Redis may be nil.
	SQL   *sqlx.DB
	Redis *redis.Client

	TrustProxyHeaders bool
}

// Options are the already-opened resources the dependencies are built on.
type Options struct {
	ORM   *gorm.DB
	SQL   *sqlx.DB
	Redis *redis.Client

	Auth    *auth.Authenticator
	Hub     *changefeed.Hub
	Metrics *metrics.MetricsRegistry

	// Publisher receives service-side row changes. Leave nil when the
	// database triggers feed the hub.
	Publisher services.ChangePublisher

	AdminCacheTTL     time.Duration
	TrustProxyHeaders bool
}

func InitDependencies(ctx context.Context, opts Options) (*Dependencies, error) {
	repos := &Repositories{
		Pilots:        repositories.NewPilotRepository(opts.ORM),
		Flights:       repositories.NewFlightRepository(opts.ORM),
		Aircraft:      repositories.NewAircraftRepository(opts.SQL),
		SafetyReports: repositories.NewSafetyReportRepository(opts.ORM),
		RouteTargets:  repositories.NewRouteTargetRepository(opts.ORM),
	}

	var cache common.CacheInterface = common.NewMemoryCache(5*time.Minute, 10*time.Minute)
	var alerts common.AlertQueue
	var queue *common.RedisQueueService

	if opts.Redis != nil {
		redisCache, err := common.NewRedisCache(ctx, opts.Redis, "hangar:")
		if err != nil {
			logging.Warn("Redis unavailable, falling back to in-memory cache", "error", err)
		} else {
			cache = redisCache

			queue = common.NewRedisQueueService(opts.Redis, constants.SafetyAlertStream, constants.SafetyAlertGroup)
			if err := queue.CreateConsumerGroup(ctx); err != nil {
				return nil, err
			}
			alerts = queue
		}
	}

	ttl := opts.AdminCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	admin := services.NewAdminService(repos.Pilots, cache, ttl, opts.Metrics)

	svcs := &Services{
		Cache:         cache,
		Alerts:        queue,
		Admin:         admin,
		Pilots:        services.NewPilotService(repos.Pilots, admin, opts.Publisher),
		Flights:       services.NewFlightService(repos.Flights, repos.Pilots, repos.Aircraft, opts.Publisher, opts.Metrics),
		Aircraft:      services.NewAircraftService(repos.Aircraft),
		SafetyReports: services.NewSafetyReportService(repos.SafetyReports, alerts, opts.Publisher),
		RouteTargets:  services.NewRouteTargetService(repos.RouteTargets, repos.Flights, opts.Publisher),
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		Auth:     opts.Auth,
		Hub:      opts.Hub,
		Metrics:  opts.Metrics,
		SQL:      opts.SQL,
		Redis:    opts.Redis,

		TrustProxyHeaders: opts.TrustProxyHeaders,
	}, nil
}
