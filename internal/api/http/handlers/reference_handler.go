package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/dto"
	"github.com/kidsact/admin-console/internal/service"
)

// ReferenceHandler serves read-only collections used by the review modal.
type ReferenceHandler struct {
	admin *service.AdminService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(adminService *service.AdminService) *ReferenceHandler {
	return &ReferenceHandler{admin: adminService}
}

// Organizations GET /admin/organizations.
func (h *ReferenceHandler) Organizations(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	orgs, err := h.admin.ListOrganizations(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromOrganizations(orgs)})
}

// FeedbackLabels GET /admin/feedback-labels.
func (h *ReferenceHandler) FeedbackLabels(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	labels, err := h.admin.ListFeedbackLabels(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromFeedbackLabels(labels)})
}
