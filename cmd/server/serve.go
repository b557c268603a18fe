package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gsarma/courier/internal/api"
	"github.com/gsarma/courier/internal/config"
	"github.com/gsarma/courier/internal/contact"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/metrics"
	"github.com/gsarma/courier/internal/notify"
	"github.com/gsarma/courier/internal/ratelimit"
	"github.com/gsarma/courier/internal/store"
	"github.com/gsarma/courier/internal/subscription"
	"github.com/gsarma/courier/internal/worker"
)

const (
	modeAll    = "all"
	modeAPI    = "api"
	modeWorker = "worker"

	workerConcurrency = 5
	shutdownTimeout   = 15 * time.Second
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and/or the email job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch mode {
			case modeAll, modeAPI, modeWorker:
			default:
				return fmt.Errorf("unknown mode %q (want all, api or worker)", mode)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg, mode)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", modeAll, "all: API and worker; api: API only; worker: worker only")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, mode string) error {
	log := logger.Named("server")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	queries := store.New(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	mailer, err := newMailer(ctx, cfg, m)
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter
	if mode != modeWorker {
		var closeLimiter func() error
		if limiter, closeLimiter, err = newLimiter(cfg); err != nil {
			return err
		}
		defer func() {
			if err := closeLimiter(); err != nil {
				log.Warn("close rate limiter", zap.Error(err))
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)

	if mode != modeAPI {
		w := worker.New(queries, notify.NewExecutor(mailer.deliverer), workerConcurrency, worker.WithMetrics(m))
		g.Go(func() error {
			log.Info("worker started", zap.Int("concurrency", workerConcurrency))
			w.Start(ctx)
			log.Info("worker stopped")
			return nil
		})
	}

	if mode != modeWorker {
		var notifier notify.Notifier = notify.NewInline(mailer.deliverer, m)
		if cfg.Email.Dispatch == config.DispatchQueue {
			notifier = notify.NewQueue(queries, notify.DefaultMaxAttempts, m)
		}

		h := api.NewHandler(
			subscription.NewService(queries, notifier, subscription.WithMetrics(m)),
			contact.NewService(queries, notifier),
			pool,
			mailer.health,
		)

		if cfg.Env == config.EnvProduction {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Recovery())
		api.RegisterRoutes(router, h, api.RouteOptions{
			AdminAPIKey: cfg.AdminAPIKey,
			Limiter:     limiter,
			Logger:      logger.Named("http"),
			Metrics:     m,
			Gatherer:    registry,
		})

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// newLimiter returns the configured limiter and a func releasing its
// connections.
func newLimiter(cfg config.Config) (ratelimit.Limiter, func() error, error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window()), func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	return ratelimit.NewRedisLimiter(client, "courier:rl:", cfg.RateLimit.Max, cfg.RateLimit.Window()), client.Close, nil
}
