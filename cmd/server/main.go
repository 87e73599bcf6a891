package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"lenderhub/internal/api"
	"lenderhub/internal/api/handlers"
	"lenderhub/internal/api/middleware"
	"lenderhub/internal/engine/apikeys"
	"lenderhub/internal/engine/triggers"
	"lenderhub/internal/engine/webhooks"
	"lenderhub/internal/pkg/logger"
	"lenderhub/internal/platform/audit"
	"lenderhub/internal/platform/auth"
	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.Logging)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config) error {
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, database.DirectionUp); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	limiter, err := middleware.NewLimiter(cfg.RateLimit, cfg.Redis)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	defer limiter.Close()

	// Repositories
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	triggerRepo := repositories.NewTriggerRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Services
	recorder := audit.NewRecorder(auditRepo, audit.WithTimeout(cfg.Audit.WriteTimeout))
	tokenSvc := auth.NewTokenService(cfg.JWT)
	dispatcher := webhooks.NewDispatcher(cfg.Webhooks)

	apiKeySvc := apikeys.NewService(apiKeyRepo, recorder)
	webhookSvc := webhooks.NewService(webhookRepo, recorder, dispatcher, cfg.Webhooks.FailureThreshold)
	triggerSvc := triggers.NewService(triggerRepo, recorder)

	checks := map[string]handlers.Check{"database": db.PingContext}
	if rl, ok := limiter.(*middleware.RedisLimiter); ok {
		checks["redis"] = rl.Ping
	}

	deps := &api.Dependencies{
		APIKeyHandler:  handlers.NewAPIKeyHandler(apiKeySvc),
		WebhookHandler: handlers.NewWebhookHandler(webhookSvc),
		TriggerHandler: handlers.NewTriggerHandler(triggerSvc),
		AuditHandler:   handlers.NewAuditHandler(auditRepo),
		HealthHandler:  handlers.NewHealthHandler(checks),
		AuthMiddleware: middleware.NewAuthMiddleware(tokenSvc),
		RateLimiter:    middleware.NewRateLimiter(limiter, cfg.RateLimit),
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      middleware.AccessLog(log.Logger)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("database", cfg.Database.Driver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
