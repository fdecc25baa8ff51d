package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/dto"
	"github.com/kidsact/admin-console/internal/auth"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/service"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details, err := req.Details()
	if err != nil {
		return apperrors.NewValidationError("unknown ticket_type", map[string]any{"ticket_type": req.TicketType})
	}

	ticket, err := h.service.Submit(c.UserContext(), user, service.SubmitInput{
		OrganizationName: req.OrganizationName,
		Details:          details,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
