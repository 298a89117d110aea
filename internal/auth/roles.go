package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kheyma/kheyma-service/internal/domain"
	apperrors "github.com/kheyma/kheyma-service/pkg/util/errorutil"
)

// Gate outcomes. They are distinguishable because the caller is already
// past authentication.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// CheckAuthenticated returns the bound identity or ErrUnauthenticated.
func CheckAuthenticated(ac AuthContext) (*domain.Identity, error) {
	if !ac.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	return ac.Identity, nil
}

// CheckRole returns the bound identity if it holds one of allowed. With no
// roles listed any authenticated identity passes.
func CheckRole(ac AuthContext, allowed ...domain.Role) (*domain.Identity, error) {
	identity, err := CheckAuthenticated(ac)
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 && !identity.HasRole(allowed...) {
		return nil, ErrForbidden
	}
	return identity, nil
}

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := CheckAuthenticated(FromFiber(c)); err != nil {
			return gateError(err)
		}
		return c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and callers without one of
// the allowed roles with 403.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	roles := append([]domain.Role(nil), allowed...)
	return func(c *fiber.Ctx) error {
		if _, err := CheckRole(FromFiber(c), roles...); err != nil {
			return gateError(err)
		}
		return c.Next()
	}
}

func gateError(err error) error {
	if errors.Is(err, ErrForbidden) {
		return apperrors.NewForbidden()
	}
	return apperrors.NewUnauthenticated()
}
