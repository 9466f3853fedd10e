package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"horrorvault/internal/cache"
	"horrorvault/internal/catalog"
	"horrorvault/internal/config"
	"horrorvault/internal/database"
	"horrorvault/internal/handlers"
	"horrorvault/internal/logger"
	"horrorvault/internal/repository"
	"horrorvault/internal/services"
	"horrorvault/internal/throttle"
	"horrorvault/internal/watchlist"
)

type Container struct {
	Config       config.Config
	DB           *pgxpool.Pool
	Redis        *redis.Client
	Logger       *logrus.Logger
	Cache        *cache.QueryCache
	Catalog      *catalog.Client
	MovieService *services.MovieService
	Watchlist    *watchlist.Store
	Limiter      *handlers.RateLimiter
	Handler      *handlers.Handler
}

// New wires every component from cfg. Redis and Postgres are only dialed when
// the configuration asks for them.
func New(ctx context.Context, cfg config.Config) (*Container, error) {
	log := logger.Get()
	c := &Container{Config: cfg, Logger: log}

	if cfg.UsesRedis() {
		client, err := cache.NewRedis(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = client
	}

	if cfg.WatchlistBackend == config.BackendPostgres {
		pool, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = pool

		if err := repository.EnsureSchema(ctx, pool); err != nil {
			c.Close()
			return nil, err
		}
	}

	slots, err := c.slotRepository()
	if err != nil {
		c.Close()
		return nil, err
	}

	cacheOpts := []cache.Option{cache.WithRetryable(catalog.Retryable)}
	if cfg.CacheRedis && c.Redis != nil {
		cacheOpts = append(cacheOpts, cache.WithRedis(c.Redis))
	}
	c.Cache = cache.New(log, cacheOpts...)

	c.Catalog = catalog.NewClient(&catalog.ClientConfig{
		BaseURL:   cfg.TMDBBaseURL,
		APIKey:    cfg.TMDBAPIKey,
		Timeout:   cfg.TMDBTimeout,
		UserAgent: cfg.UserAgent,
		Throttler: throttle.New(cfg.TMDBRateLimit, cfg.TMDBRateWindow),
		Logger:    log,
	})
	if cfg.TMDBAPIKey == "" {
		log.Warn("TMDB_API_KEY is not set; catalog calls will be rejected upstream")
	}

	c.MovieService = services.NewMovieService(c.Catalog, c.Cache, log)
	c.Watchlist = watchlist.Open(ctx, slots, cfg.WatchlistSlot, log)
	c.Limiter = handlers.NewRateLimiter(cfg.InboundRPS, cfg.InboundBurst)
	c.Handler = handlers.New(handlers.Config{
		Movies:       c.MovieService,
		Watchlist:    c.Watchlist,
		ImageBaseURL: cfg.TMDBImageBaseURL,
		Limiter:      c.Limiter,
		Logger:       log,
	})

	return c, nil
}

// Run starts the background janitors and blocks until ctx is done.
func (c *Container) Run(ctx context.Context) {
	go c.Limiter.Run(ctx)
	c.Cache.Run(ctx)
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func (c *Container) slotRepository() (repository.SlotRepository, error) {
	switch c.Config.WatchlistBackend {
	case config.BackendFile:
		return repository.NewFileSlotRepository(c.Config.WatchlistPath), nil
	case config.BackendRedis:
		return repository.NewRedisSlotRepository(c.Redis), nil
	case config.BackendPostgres:
		return repository.NewPostgresSlotRepository(c.DB), nil
	default:
		return nil, fmt.Errorf("unknown watchlist backend %q", c.Config.WatchlistBackend)
	}
}
