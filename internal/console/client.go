package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/dto"
	"github.com/kidsact/admin-console/internal/config"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/review"
)

// ListQuery selects one page of tickets.
type ListQuery struct {
	Type   *domain.TicketType
	Status *domain.TicketStatus
	Cursor string
	Limit  int
}

// Page is one page of tickets.
type Page struct {
	Items        []domain.Ticket
	NextCursor   string
	PendingCount int
}

// Client talks to the admin REST API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// NewClient builds a client from console config.
func NewClient(cfg config.ConsoleConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout(),
	}
}

// ListTickets GET /admin/tickets.
func (c *Client) ListTickets(ctx context.Context, q ListQuery) (Page, error) {
	params := url.Values{}
	if q.Type != nil {
		params.Set("type", string(*q.Type))
	}
	if q.Status != nil {
		params.Set("status", string(*q.Status))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/admin/tickets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp dto.ListTicketsResponse
	if err := c.do(ctx, fiber.MethodGet, path, nil, &resp); err != nil {
		return Page{}, err
	}
	items := make([]domain.Ticket, 0, len(resp.Items))
	for _, item := range resp.Items {
		t, err := item.ToDomain()
		if err != nil {
			return Page{}, fmt.Errorf("decode ticket %s: %w", item.ID, err)
		}
		items = append(items, t)
	}
	return Page{Items: items, NextCursor: resp.NextCursor, PendingCount: resp.PendingCount}, nil
}

// ReviewTicket POST /admin/tickets/:id/review.
func (c *Client) ReviewTicket(ctx context.Context, id string, payload review.Payload) (domain.Ticket, error) {
	var resp dto.ReviewTicketResponse
	if err := c.do(ctx, fiber.MethodPost, "/admin/tickets/"+url.PathEscape(id)+"/review", payload, &resp); err != nil {
		return domain.Ticket{}, err
	}
	return resp.Ticket.ToDomain()
}

// ListOrganizations GET /admin/organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var resp []dto.OrganizationResponse
	if err := c.do(ctx, fiber.MethodGet, "/admin/organizations", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Organization, 0, len(resp))
	for _, o := range resp {
		out = append(out, o.ToDomain())
	}
	return out, nil
}

// ListFeedbackLabels GET /admin/feedback-labels.
func (c *Client) ListFeedbackLabels(ctx context.Context) ([]domain.FeedbackLabel, error) {
	var resp []dto.FeedbackLabelResponse
	if err := c.do(ctx, fiber.MethodGet, "/admin/feedback-labels", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackLabel, 0, len(resp))
	for _, l := range resp {
		out = append(out, domain.FeedbackLabel{ID: l.ID, Name: l.Name})
	}
	return out, nil
}

// LookupUsers GET /admin/users?ids=.
func (c *Client) LookupUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resp []dto.UserResponse
	path := "/admin/users?" + url.Values{"ids": {strings.Join(ids, ",")}}.Encode()
	if err := c.do(ctx, fiber.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(resp))
	for _, u := range resp {
		out = append(out, u.ToDomain())
	}
	return out, nil
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// do sends one request and decodes the {"data": ...} envelope into out.
// ctx is checked before sending and its deadline bounds the request; a
// cancellation that arrives mid-request is not observed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("prepare %s %s: %w", method, path, err)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
