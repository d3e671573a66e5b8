package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/stateless-auth/internal/api/http"
	"github.com/spec-kit/stateless-auth/internal/api/http/handlers"
	"github.com/spec-kit/stateless-auth/internal/auth"
	"github.com/spec-kit/stateless-auth/internal/config"
	"github.com/spec-kit/stateless-auth/internal/events"
	"github.com/spec-kit/stateless-auth/internal/observability"
	"github.com/spec-kit/stateless-auth/internal/otp"
	"github.com/spec-kit/stateless-auth/internal/persistence"
	"github.com/spec-kit/stateless-auth/internal/realtime"
	"github.com/spec-kit/stateless-auth/internal/repository"
	"github.com/spec-kit/stateless-auth/internal/service"
	"github.com/spec-kit/stateless-auth/internal/social"
	"github.com/spec-kit/stateless-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewResetCodeRepository(pool)

	attemptStore := persistence.NewAttemptStore(redis)
	gate := auth.NewGate(attemptStore, cfg.Auth.AttemptLimit, cfg.Auth.LockoutDuration(), logger)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL(), userRepo, auth.TokenOptions{})

	dispatcher := events.NewInMemoryDispatcher()
	otpClient := otp.NewAuthyClient(cfg.OTP, logger)
	verifiers := social.NewVerifiers(cfg.Social)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:      userRepo,
		ResetCodeRepo: resetRepo,
		Gate:          gate,
		Tokens:        tokens,
		OTPProvider:   otpClient,
		Verifiers:     verifiers,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	publisher := realtime.NewPublisher(redis.Client, cfg.Realtime.Channel, logger)
	authMiddleware := httptransport.NewAuthMiddleware(tokens)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.EnableCORS)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(authService)
	realtimeHandler := handlers.NewRealtimeHandler(publisher)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Realtime:       realtimeHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
