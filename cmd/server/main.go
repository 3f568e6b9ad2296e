// Command server runs the HealthFirst registration API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"healthfirst/internal/jwttoken"
	"healthfirst/internal/notify"
	"healthfirst/internal/platform/config"
	"healthfirst/internal/platform/httpserver"
	"healthfirst/internal/platform/logger"
	"healthfirst/internal/platform/metrics"
	redisplatform "healthfirst/internal/platform/redis"
	"healthfirst/internal/ratelimit"
	"healthfirst/internal/registration"
	"healthfirst/internal/security"
	transporthttp "healthfirst/internal/transport/http"
	"healthfirst/internal/verification"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)
	m := metrics.New()

	// Storage. Empty URLs select the in-process fallbacks, which is the
	// local development mode.
	var records registration.RecordStore
	var handlerOpts []transporthttp.HandlerOption
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		store := registration.NewPostgresRecordStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		records = store
		handlerOpts = append(handlerOpts, transporthttp.WithHealthCheck("postgres", pool.Ping))
		log.Info("using postgres record store")
	} else {
		records = registration.NewMemoryRecordStore()
		log.Warn("no postgres configured, records are in-process only")
	}

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		handlerOpts = append(handlerOpts, transporthttp.WithHealthCheck("redis", rdb.Health))
	}

	var counters ratelimit.CounterStore
	var tokens verification.TokenStore
	if rdb != nil {
		counters = ratelimit.NewRedisCounterStore(rdb.Client)
		tokens = verification.NewRedisTokenStore(rdb.Client)
		log.Info("using redis for rate limiting and verification tokens")
	} else {
		counters = ratelimit.NewMemoryCounterStore()
		tokens = verification.NewMemoryTokenStore()
		log.Warn("no redis configured, rate limits and tokens are in-process only")
	}

	limiterOpts := []ratelimit.Option{
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(m),
	}
	if cfg.RateLimitFailOpen {
		limiterOpts = append(limiterOpts, ratelimit.WithFailOpen())
	}
	limiter, err := ratelimit.New(counters, cfg.RateLimitMax, cfg.RateLimitWindow, limiterOpts...)
	if err != nil {
		return err
	}

	// Notifications. Kafka hands delivery to external workers; without
	// brokers an in-process worker drains a channel.
	var dispatcher notify.Dispatcher
	var worker *notify.Worker
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return fmt.Errorf("kafka dispatcher: %w", err)
		}
		defer kafka.Close()
		dispatcher = kafka
		log.Info("publishing notifications to kafka", "topic", cfg.KafkaTopic)
	} else {
		var mailer notify.Mailer
		if cfg.SMTPHost != "" {
			mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
		} else {
			mailer = notify.NewLogMailer(log)
			log.Warn("no SMTP configured, emails are logged instead of sent")
		}
		channel := notify.NewChannelDispatcher(cfg.QueueBuffer, log)
		renderer := notify.Renderer{
			VerifyBaseURL: cfg.VerifyBaseURL,
			AdminEmail:    cfg.AdminEmail,
		}
		worker = notify.NewWorker(channel.Jobs(), mailer, renderer,
			notify.WithWorkerLogger(log),
			notify.WithWorkerMetrics(m),
		)
		dispatcher = channel
	}

	verifier, err := verification.New(tokens, records, dispatcher,
		verification.WithTTL(cfg.TokenTTL),
		verification.WithLogger(log),
		verification.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	jwtSvc := jwttoken.New(cfg.JWTSigningKey, "healthfirst", cfg.JWTTTL)
	registrar, err := registration.New(records, limiter, verifier, dispatcher,
		security.NewHasher(cfg.BCryptCost),
		registration.WithLogger(log),
		registration.WithMetrics(m),
		registration.WithAttemptStore(registration.NewMemoryAttemptStore()),
		registration.WithJWT(jwtSvc),
	)
	if err != nil {
		return err
	}

	handler := transporthttp.NewHandler(registrar, verifier, log, handlerOpts...)
	srv := httpserver.New(cfg.Addr, handler.Routes())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
