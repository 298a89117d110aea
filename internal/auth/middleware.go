package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/observability"
)

const bearerScheme = "Bearer"

// TokenVerifier verifies a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string, now time.Time) (string, error)
}

// IdentitySource resolves a token subject to its current identity.
type IdentitySource interface {
	Resolve(ctx context.Context, subjectID string) (*domain.Identity, error)
}

// AuthMiddleware establishes the AuthContext of every request. It never
// rejects a request; route gates decide what anonymous callers may do.
type AuthMiddleware struct {
	tokens     TokenVerifier
	identities IdentitySource
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier, identities IdentitySource, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		tokens:     tokens,
		identities: identities,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Handle binds the request's AuthContext and continues the chain.
// Preflight requests skip authentication entirely.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodOptions {
		return c.Next()
	}
	logger := m.logger.With(zap.String("method", c.Method()), zap.String("path", c.Path()))
	ac := m.authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization), logger)
	bind(c, ac)
	return c.Next()
}

// Authenticate runs the header through verification and identity lookup.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) AuthContext {
	return m.authenticate(ctx, header, m.logger)
}

func (m *AuthMiddleware) authenticate(ctx context.Context, header string, logger *zap.Logger) (ac AuthContext) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("authentication failed unexpectedly; continuing anonymously", zap.Any("panic", r))
			m.metrics.RecordAuthentication("error")
			ac = Anonymous()
		}
	}()

	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		m.metrics.RecordAuthentication("anonymous")
		return Anonymous()
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		logger.Warn("empty bearer token")
		m.metrics.RecordAuthentication("anonymous")
		return Anonymous()
	}

	subject, err := m.tokens.Verify(raw, m.now())
	if err != nil {
		kind := TokenFailureKind(err)
		logger.Warn("bearer token rejected", zap.String("reason", kind), zap.Error(err))
		m.metrics.RecordAuthentication("token_" + kind)
		return Anonymous()
	}

	identity, err := m.identities.Resolve(ctx, subject)
	switch {
	case errors.Is(err, ErrIdentityNotFound):
		logger.Warn("token subject no longer exists", zap.String("subject", subject))
		m.metrics.RecordAuthentication("unknown_subject")
		return Anonymous()
	case err != nil:
		logger.Error("identity lookup failed; continuing anonymously", zap.String("subject", subject), zap.Error(err))
		m.metrics.RecordAuthentication("error")
		return Anonymous()
	case identity == nil:
		logger.Error("identity lookup returned nothing", zap.String("subject", subject))
		m.metrics.RecordAuthentication("error")
		return Anonymous()
	case !identity.Enabled:
		logger.Warn("token subject is disabled", zap.String("subject", subject))
		m.metrics.RecordAuthentication("disabled")
		return Anonymous()
	}

	logger.Debug("request authenticated", zap.String("subject", subject), zap.String("role", string(identity.Role)))
	m.metrics.RecordAuthentication("authenticated")
	return Authenticated(identity)
}
