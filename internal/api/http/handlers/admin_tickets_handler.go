package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/dto"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/review"
	"github.com/kidsact/admin-console/internal/service"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

// AdminTicketsHandler serves the review queue.
type AdminTicketsHandler struct {
	tickets *service.TicketService
	reviews *service.ReviewService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService, reviewService *service.ReviewService) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: ticketService, reviews: reviewService}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	page, err := h.tickets.ListTickets(c.UserContext(), parseAdminTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ListTicketsResponse{
		Items:        dto.FromTickets(page.Items),
		NextCursor:   page.NextCursor,
		PendingCount: page.PendingCount,
	}})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}

// ReviewTicket POST /admin/tickets/:id/review.
func (h *AdminTicketsHandler) ReviewTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var payload review.Payload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.reviews.Review(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReviewTicketResponse{Ticket: dto.FromTicket(*ticket)}})
}

// History GET /admin/tickets/:id/history.
func (h *AdminTicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.tickets.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromHistory(entries)})
}

func parseAdminTicketFilter(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{
		Cursor: c.Query("cursor"),
		Limit:  parseInt(c.Query("limit"), 0),
	}
	if typ := c.Query("type"); typ != "" {
		t := domain.TicketType(typ)
		filter.Type = &t
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		filter.Status = &s
	}
	return filter
}
