package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kheyma/kheyma-service/internal/api/dto"
	"github.com/kheyma/kheyma-service/internal/service"
	apperrors "github.com/kheyma/kheyma-service/pkg/util/errorutil"
)

// AdminHandler exposes account administration. Routes are gated to ADMIN.
type AdminHandler struct {
	auth service.AuthOperations
}

func NewAdminHandler(authService service.AuthOperations) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// ToggleStatus handles PATCH /api/admin/users/:id/toggle-status.
func (h *AdminHandler) ToggleStatus(c *fiber.Ctx) error {
	user, err := h.auth.ToggleUserStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// MakeAdmin handles PATCH /api/admin/users/:id/make-admin.
func (h *AdminHandler) MakeAdmin(c *fiber.Ctx) error {
	user, err := h.auth.PromoteToAdmin(c.UserContext(), c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// GetUser handles GET /api/admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateUser handles PUT /api/admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	update, fieldErrs := req.ToAdminUpdate()
	if fieldErrs != nil {
		return apperrors.NewValidationError("Request validation failed", fieldErrs)
	}

	user, err := h.auth.UpdateUser(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdatePackage handles PATCH /api/admin/users/:id/package?packageType=FULL.
func (h *AdminHandler) UpdatePackage(c *fiber.Ctx) error {
	pkg := dto.ParsePackage(c.Query("packageType"))
	user, err := h.auth.UpdateUserPackage(c.UserContext(), c.Params("id"), pkg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if _, err := h.auth.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}
