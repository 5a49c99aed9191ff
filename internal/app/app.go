// Package app wires the store, topic source, metrics, and workout service
// from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/metrics"
	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topics"
	"github.com/abhisek/drillz/internal/workout"
)

// App holds the long-lived dependencies shared by CLI commands and the
// HTTP server.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *store.Store
	Workouts store.WorkoutRepo

	// Catalog lists topics straight from the store.
	Catalog *topics.RepoSource
	// Topics serves question sets, through Redis when configured.
	Topics   topics.Source
	Importer *topics.Importer

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	redis *redis.Client
}

// New opens the store and builds the dependency graph. The caller must
// Close the returned App.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", zap.String("path", dbPath))

	retry := store.WithRetry(st.WorkoutRepo(), cfg.RetryConfig())
	retry.OnRetry = func(attempt int, err error) {
		logger.Warn("retrying workout save", zap.Int("attempt", attempt), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Workouts: retry,
		Catalog:  topics.NewRepoSource(st.TopicRepo()),
		Registry: reg,
		Metrics:  metrics.New(reg),
	}
	a.Topics = a.Catalog

	if cfg.Redis.Addr == "" {
		a.Importer = topics.NewImporter(st.TopicRepo(), nil, logger)
		return a, nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		// The cache falls through on errors, so an unreachable Redis only
		// costs the cache.
		logger.Warn("redis unreachable, question sets will not be cached",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	cached := topics.NewCachedSource(a.Catalog, a.redis, cfg.Redis.TTL, logger)
	a.Topics = cached
	a.Importer = topics.NewImporter(st.TopicRepo(), cached, logger)
	return a, nil
}

// Service returns a workout service that resolves users with id.
func (a *App) Service(id workout.Identity) *workout.Service {
	return workout.NewService(workout.Options{
		Repo:     a.Workouts,
		Source:   a.Topics,
		Identity: id,
		Logger:   a.Logger,
		Observer: a.Metrics,
	})
}

// Close releases the Redis client and the store.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
