package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kheyma/kheyma-service/internal/api/dto"
	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/service"
	apperrors "github.com/kheyma/kheyma-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	auth service.AuthOperations
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService service.AuthOperations) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	input, fieldErrs := req.ToInput()
	if fieldErrs != nil {
		return apperrors.NewValidationError("Request validation failed", fieldErrs)
	}

	res, err := h.auth.Register(c.UserContext(), input)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(http.StatusCreated).JSON(authPayload(res))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	ctx := auth.WithClientIP(c.UserContext(), c.IP())
	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(authPayload(res))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := auth.CheckAuthenticated(auth.FromFiber(c))
	if err != nil {
		return apperrors.NewUnauthenticated()
	}

	user, err := h.auth.Profile(c.UserContext(), identity)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateMe handles PUT /api/auth/me.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	identity, err := auth.CheckAuthenticated(auth.FromFiber(c))
	if err != nil {
		return apperrors.NewUnauthenticated()
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	update, fieldErrs := req.ToUpdate()
	if fieldErrs != nil {
		return apperrors.NewValidationError("Request validation failed", fieldErrs)
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), identity, update)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func authPayload(res *service.AuthResult) fiber.Map {
	return fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(res.User),
			"auth": dto.NewAuthResponse(res),
		},
	}
}
