package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/observability"
	apperrors "github.com/kheyma/kheyma-service/pkg/util/errorutil"
)

// MiddlewareConfig bundles dependencies of the global middleware chain.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Timeout        time.Duration
	AllowedOrigins []string
	Authenticator  *auth.AuthMiddleware
}

// Middlewares returns the global chain in execution order:
// request id, request log, error rendering, CORS, timeout, authentication.
// CORS preflight is answered before authentication runs.
func Middlewares(cfg MiddlewareConfig) []fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	chain := []fiber.Handler{
		requestid.New(),
		observability.RequestLogger(logger, cfg.Metrics),
		errorHandlingMiddleware(logger, cfg.Metrics),
		corsMiddleware(cfg.AllowedOrigins),
	}
	if cfg.Timeout > 0 {
		chain = append(chain, requestTimeoutMiddleware(cfg.Timeout))
	}
	if cfg.Authenticator != nil {
		chain = append(chain, cfg.Authenticator.Handle)
	}
	return chain
}

// RegisterMiddlewares attaches the global chain to app.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	for _, handler := range Middlewares(cfg) {
		app.Use(handler)
	}
}

// ErrorHandler renders errors that escape the middleware chain.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.Error(domainErr))
		}
		return c.Status(domainErr.HTTPStatus).JSON(domainErr.Body())
	}
}

func corsMiddleware(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders:    fiber.HeaderAuthorization,
		AllowCredentials: len(origins) > 0,
		MaxAge:           3600,
	})
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed",
						zap.String("method", c.Method()),
						zap.String("path", c.Path()),
						zap.Error(domainErr))
				}
				err = c.Status(domainErr.HTTPStatus).JSON(domainErr.Body())
			}
		}()
		return c.Next()
	}
}
