package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/dto"
	"github.com/kidsact/admin-console/internal/service"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

// UsersHandler exposes the caller profile and user-role management.
type UsersHandler struct {
	auth  *service.AuthService
	admin *service.AdminService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, adminService *service.AdminService) *UsersHandler {
	return &UsersHandler{auth: authService, admin: adminService}
}

// Me GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.auth.Me(user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		User:      dto.FromUser(profile.User),
		Dashboard: profile.Dashboard,
	}})
}

// Lookup GET /admin/users?ids=a,b.
func (h *UsersHandler) Lookup(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	users, err := h.admin.LookupUsers(c.UserContext(), user, ids)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUsers(users)})
}

// ChangeRole PATCH /admin/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.admin.ChangeRole(c.UserContext(), user, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(*updated)})
}
