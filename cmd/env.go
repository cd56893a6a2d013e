package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/cache"
	"github.com/sells-group/iqm-atlas/internal/config"
	"github.com/sells-group/iqm-atlas/internal/dashboard"
	"github.com/sells-group/iqm-atlas/internal/fetcher"
	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
	"github.com/sells-group/iqm-atlas/internal/source"
)

// appEnv holds the service and the clients it owns.
type appEnv struct {
	Service *dashboard.Service
	redis   *redis.Client
}

// Close releases the Redis client, if any.
func (e *appEnv) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			zap.L().Debug("redis close", zap.Error(err))
		}
	}
}

// initService validates cfg for mode and wires fetcher, loader, caches and
// the dashboard service.
func initService(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Fetch.TimeoutSecs) * time.Second
	var f fetcher.Fetcher = fetcher.NewRouter(
		fetcher.HTTPOptions{
			UserAgent:    c.Fetch.UserAgent,
			Timeout:      timeout,
			MaxRetries:   c.Fetch.MaxRetries,
			RateLimiters: fetcher.HostLimiters(c.Fetch.RateLimitPerSec, c.Source.GeometryURL, c.Source.WorkbookURL),
		},
		fetcher.FTPOptions{Timeout: timeout},
	)

	env := &appEnv{}
	var invalidator dashboard.SourceInvalidator

	if c.Cache.RedisURL != "" {
		client, err := fetcher.NewRedisClient(c.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			zap.L().Warn("redis unreachable, source cache will fall through", zap.Error(err))
		}
		cancel()

		rc := fetcher.NewRedisCache(f, client, time.Duration(c.Cache.RedisTTLMinutes)*time.Minute)
		f = rc
		invalidator = rc
		env.redis = client
	}

	loader := source.NewLoader(f, loaderConfig(c))

	datasets := cache.NewMemory[*model.Dataset](0, time.Duration(c.Cache.TTLMinutes)*time.Minute)
	// Both sources load in parallel, each with up to MaxRetries attempts.
	datasets.SetComputeTimeout(timeout * time.Duration(c.Fetch.MaxRetries+1))

	env.Service = dashboard.New(dashboard.Options{
		Loader:       loader,
		Cache:        datasets,
		SourceCache:  invalidator,
		Columns:      pipeline.Columns{State: c.Columns.State, Name: c.Columns.Name, Code: c.Columns.Code},
		Indicators:   c.Indicators,
		TopIndicator: c.Top.Indicator,
		TopLimit:     c.Top.Limit,
	})

	zap.L().Debug("service initialized",
		zap.String("geometry", c.Source.GeometryURL),
		zap.String("workbook", c.Source.WorkbookURL),
		zap.Bool("redis", env.redis != nil),
	)
	return env, nil
}

func loaderConfig(c *config.Config) source.Config {
	return source.Config{
		GeometrySource: c.Source.GeometryURL,
		GeometryFormat: c.Source.GeometryFormat,
		GeometryFields: source.GeometryFields{
			Code:  c.Source.GeometryCodeField,
			Name:  c.Source.GeometryNameField,
			State: c.Source.GeometryStateField,
		},
		WorkbookSource: c.Source.WorkbookURL,
		Sheets: source.WorkbookSheets{
			Ranking:       c.Source.RankingSheet,
			Qualification: c.Source.QualificationSheet,
		},
		TempDir: c.Source.TempDir,
	}
}
