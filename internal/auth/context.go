package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/kheyma/kheyma-service/internal/domain"
)

// AuthState is the outcome of authenticating one request.
type AuthState string

const (
	StateAnonymous     AuthState = "ANONYMOUS"
	StateAuthenticated AuthState = "AUTHENTICATED"
)

// AuthContext is the request-scoped authentication result. It is a value
// type; the identity it carries belongs to a single request.
type AuthContext struct {
	State    AuthState
	Identity *domain.Identity
}

// Anonymous is the context of a request without a usable identity.
func Anonymous() AuthContext {
	return AuthContext{State: StateAnonymous}
}

// Authenticated wraps a resolved identity.
func Authenticated(identity *domain.Identity) AuthContext {
	return AuthContext{State: StateAuthenticated, Identity: identity}
}

// IsAuthenticated reports whether an identity was bound.
func (a AuthContext) IsAuthenticated() bool {
	return a.State == StateAuthenticated && a.Identity != nil
}

type contextKey struct {
	name string
}

var (
	authCtxKey     = &contextKey{"auth"}
	clientIPCtxKey = &contextKey{"client-ip"}
)

const authLocalsKey = "auth_context"

// WithAuthContext returns a copy of ctx carrying ac.
func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, ac)
}

// FromContext returns the AuthContext bound to ctx, or Anonymous.
func FromContext(ctx context.Context) AuthContext {
	if ctx == nil {
		return Anonymous()
	}
	ac, ok := ctx.Value(authCtxKey).(AuthContext)
	if !ok {
		return Anonymous()
	}
	return ac
}

// WithClientIP records the address a request came from.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPCtxKey, ip)
}

// ClientIP returns the address recorded by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPCtxKey).(string)
	return ip
}

// FromFiber returns the AuthContext established for the current request.
func FromFiber(c *fiber.Ctx) AuthContext {
	if ac, ok := c.Locals(authLocalsKey).(AuthContext); ok {
		return ac
	}
	return FromContext(c.UserContext())
}

func bind(c *fiber.Ctx, ac AuthContext) {
	c.Locals(authLocalsKey, ac)
	c.SetUserContext(WithAuthContext(c.UserContext(), ac))
}
