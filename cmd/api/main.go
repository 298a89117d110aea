package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/kheyma/kheyma-service/internal/api/http"
	"github.com/kheyma/kheyma-service/internal/api/http/handlers"
	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/config"
	"github.com/kheyma/kheyma-service/internal/events"
	"github.com/kheyma/kheyma-service/internal/observability"
	"github.com/kheyma/kheyma-service/internal/persistence"
	"github.com/kheyma/kheyma-service/internal/repository"
	"github.com/kheyma/kheyma-service/internal/service"
	"github.com/kheyma/kheyma-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var userRepo repository.UserRepository
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
	}

	var limiter auth.AttemptLimiter = auth.NoopAttemptLimiter{}
	if redis.Enabled() {
		limiter = auth.NewRedisAttemptLimiter(redis.Client, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginFailureWindow())
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("invalid AUTH_JWT_SECRET", zap.Error(err))
	}
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to init password hasher", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notifications := service.NewNotificationService(logger, cfg.Notification)
	notifier := worker.StartNotificationWorker(ctx, dispatcher, notifications.Handle, notifications.Events(), logger)

	authService := service.NewAuditedAuthService(
		service.NewAuthService(service.AuthDependencies{
			UserRepo: userRepo,
			Tokens:   tokens,
			Hasher:   hasher,
			Limiter:  limiter,
			Logger:   logger,
		}),
		logger, metrics, dispatcher,
	)
	authMiddleware := auth.NewAuthMiddleware(tokens, auth.NewIdentityResolver(userRepo), logger, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticator:  authMiddleware,
	})

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Auth:    handlers.NewAuthHandler(authService),
		Admin:   handlers.NewAdminHandler(authService),
		Metrics: metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	notifier.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
