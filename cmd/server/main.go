package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"altguard/internal/admin"
	jwttoken "altguard/internal/jwt_token"
	"altguard/internal/membership"
	"altguard/internal/platform/config"
	"altguard/internal/platform/httpserver"
	"altguard/internal/platform/kafka"
	"altguard/internal/platform/logger"
	platformmetrics "altguard/internal/platform/metrics"
	"altguard/internal/platform/postgres"
	"altguard/internal/platform/redis"
	"altguard/internal/platform/tracing"
	"altguard/internal/verification/coordinator"
	"altguard/internal/verification/correlator"
	"altguard/internal/verification/handler"
	"altguard/internal/verification/ledger"
	"altguard/internal/verification/metrics"
	"altguard/internal/verification/sweeper"
	"altguard/pkg/platform/audit/publisher"
	"altguard/pkg/platform/httputil"
	"altguard/pkg/platform/middleware/auth"
	"altguard/pkg/platform/middleware/metadata"
	"altguard/pkg/platform/middleware/ratelimit"
	"altguard/pkg/platform/middleware/request"
	"altguard/pkg/platform/middleware/requesttime"
	"altguard/pkg/platform/middleware/servicetoken"
	"altguard/pkg/platform/privacy"
)

const (
	shutdownTimeout = 10 * time.Second
	prunerInterval  = 5 * time.Minute
	auditBufferSize = 1024
)

// main wires dependencies and owns the process lifecycle. Business logic lives in
// the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("altguard exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	var db *sql.DB
	if cfg.Storage.Backend == config.StoragePostgres {
		db, err = postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	st := newStores(cfg, db, redisClient, log)

	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	reg := prometheus.DefaultRegisterer
	verifyMetrics := metrics.New(reg)
	httpMetrics := platformmetrics.New(reg)
	digester := privacy.NewDigester(cfg.Server.LogDigestKey)

	sink, closeSink, err := newSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	tokens := ledger.New(st.tokens,
		ledger.WithTTL(cfg.Verification.TokenTTL),
		ledger.WithLogger(log),
		ledger.WithMetrics(verifyMetrics),
		ledger.WithAuditPublisher(auditPublisher),
	)
	identities := correlator.New(st.identities,
		correlator.WithLogger(log),
		correlator.WithDigester(digester),
	)
	verifier := coordinator.New(tokens, identities, sink,
		coordinator.WithLogger(log),
		coordinator.WithMetrics(verifyMetrics),
		coordinator.WithAuditPublisher(auditPublisher),
		coordinator.WithDigester(digester),
		coordinator.WithDispatchTimeout(cfg.Verification.DispatchTimeout),
	)
	joins := membership.New(tokens, sink, cfg.Server.WebsiteURL,
		membership.WithLogger(log),
		membership.WithMetrics(verifyMetrics),
	)
	moderation := admin.New(st.identities, tokens, st.audit,
		admin.WithLogger(log),
		admin.WithAuditPublisher(auditPublisher),
	)

	limiter := ratelimit.New(cfg.Server.RatePerMinute, cfg.Server.RateBurst, log)
	router := newRouter(cfg, log, routes{
		verify:     handler.New(verifier, log, limiter.Middleware),
		membership: membership.NewHandler(joins, log),
		admin:      admin.NewHandler(moderation, log),
		httpMetric: httpMetrics,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting altguard", "addr", cfg.Server.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sweeper.New(tokens, cfg.Verification.SweepInterval, sweeper.WithLogger(log)).Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(prunerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.Prune(); n > 0 {
					log.Debug("pruned idle rate limiters", "count", n)
				}
			}
		}
	})
	if cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.MembersTopic)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer consumer.Close()
			return kafka.Consume(gctx, consumer, membership.NewKafkaHandler(joins, log), log)
		})
	}

	err = g.Wait()
	verifier.Wait()
	log.Info("altguard stopped")
	return err
}

type routes struct {
	verify     *handler.Handler
	membership *membership.Handler
	admin      *admin.Handler
	httpMetric *platformmetrics.Metrics
}

func newRouter(cfg config.Config, log *slog.Logger, rt routes) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(rt.httpMetric.LatencyMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", platformmetrics.Handler())

	rt.verify.Register(r)

	if cfg.Server.IntakeToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(servicetoken.Require(cfg.Server.IntakeToken, log))
			rt.membership.Register(r)
		})
	} else {
		log.Warn("MEMBERS_INTAKE_TOKEN is not set; /members/joined is unauthenticated")
		rt.membership.Register(r)
	}

	if cfg.Server.AdminJWTKey != "" {
		jwtService := jwttoken.NewJWTService(cfg.Server.AdminJWTKey, cfg.Server.AdminIssuer)
		rt.admin.Register(r, auth.RequireRole(jwtService, jwttoken.RoleModerator, log))
	} else {
		log.Warn("ADMIN_JWT_SIGNING_KEY is not set; admin routes are disabled")
	}
	return r
}
