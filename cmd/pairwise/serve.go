package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/metrics"
	"github.com/rxtech-lab/pairwise-alpha/internal/server"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/cache"
)

func serveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address",
			Value: ":8080",
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Share fetched series through the Redis at this address instead of an in-process cache",
			Sources: cli.EnvVars("REDIS_ADDR"),
		},
		&cli.DurationFlag{
			Name:  "cache-ttl",
			Usage: "How long fetched series are reused",
			Value: 15 * time.Minute,
		},
		&cli.DurationFlag{
			Name:  "run-timeout",
			Usage: "Maximum duration of one analysis",
			Value: 2 * time.Minute,
		},
	}

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve analyses, charts and metrics over HTTP",
		Flags:  append(flags, sourceFlags()...),
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.NewMetrics(registry)

	seriesCache, closeCache, err := newSeriesCache(ctx, cmd, log)
	if err != nil {
		return err
	}

	defer closeCache()

	source, closeSource, err := newPriceSource(ctx, cmd, log, true,
		marketdata.WithCache(seriesCache),
		marketdata.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	defer closeSource()

	srv := server.NewServer(source,
		server.WithLogger(log),
		server.WithMetrics(m, registry),
		server.WithRunTimeout(cmd.Duration("run-timeout")),
	)

	return srv.ListenAndServe(ctx, cmd.String("addr"))
}

func newSeriesCache(ctx context.Context, cmd *cli.Command, log *logger.Logger) (cache.Cache, func(), error) {
	ttl := cmd.Duration("cache-ttl")

	addr := cmd.String("redis-addr")
	if addr == "" {
		return cache.NewMemoryCache(ttl), func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, TTL: ttl})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Using redis series cache", zap.String("addr", addr), zap.Duration("ttl", ttl))

	return redisCache, func() { _ = redisCache.Close() }, nil
}
