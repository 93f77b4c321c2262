package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"approval-gateway/internal/audit"
	authzhandler "approval-gateway/internal/authorization/handler"
	authzmetrics "approval-gateway/internal/authorization/metrics"
	authzservice "approval-gateway/internal/authorization/service"
	authzstore "approval-gateway/internal/authorization/store"
	"approval-gateway/internal/chat"
	"approval-gateway/internal/jwtverify"
	"approval-gateway/internal/platform/config"
	"approval-gateway/internal/platform/database"
	"approval-gateway/internal/platform/httpserver"
	"approval-gateway/internal/platform/logger"
	"approval-gateway/internal/platform/tracing"
	"approval-gateway/internal/profile"
	httptransport "approval-gateway/internal/transport/http"
	"approval-gateway/internal/workers/reconcile"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing approval-gateway",
		"addr", cfg.Addr,
		"request_ttl", cfg.RequestTTL,
		"database_configured", cfg.DatabaseURL != "",
	)

	if cfg.JWTSigningKey == "" {
		log.Error("JWT_SIGNING_KEY is required")
		os.Exit(1)
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Stores fall back to memory when no database is configured.
	var (
		requestStore authzservice.Store
		sweepStore   reconcile.Store
		auditStore   audit.Store
		chatStore    chat.Store
	)
	if pool != nil {
		pg := authzstore.NewPostgres(pool.DB())
		requestStore = pg
		sweepStore = pg
		auditStore = audit.NewPostgres(pool.DB())
		chatStore = chat.NewPostgres(pool.DB())
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		mem := authzstore.New()
		requestStore = mem
		sweepStore = mem
		auditStore = audit.NewInMemoryStore()
		chatStore = chat.NewInMemoryStore()
	}

	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	tracer := tracing.NewOTel()

	// One collector set serves both the service and the sweeper; promauto
	// panics on a second registration of the same collectors.
	metrics := authzmetrics.New()

	authzService := authzservice.NewService(requestStore, auditor, log,
		authzservice.WithTTL(cfg.RequestTTL),
		authzservice.WithMetrics(metrics),
		authzservice.WithTracer(tracer),
	)

	chatService := chat.NewService(chatStore, authzService, log,
		chat.WithServiceTracer(tracer),
	)
	authzService.SetNotifier(chatService)

	profileClient := profile.NewClient(
		profile.WithTimeout(cfg.UserInfoTimeout),
		profile.WithClientTracer(tracer),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		TokenVerifier: jwtverify.New(cfg.JWTSigningKey),
		Authorization: authzhandler.New(authzService, profileClient, chatService, log),
		Chat:          chat.NewHandler(chatService, log),
	})

	sweeper, err := reconcile.New(sweepStore, log,
		reconcile.WithInterval(cfg.ReconcileInterval),
		reconcile.WithMetrics(metrics),
	)
	if err != nil {
		log.Error("reconciler init failed", "error", err)
		os.Exit(1)
	}

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
