package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/repository"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TicketService coordinates ticket submission and reads.
type TicketService struct {
	store      repository.Store
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	Store       repository.Store
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// SubmitInput describes a new ticket. The details variant decides its type.
type SubmitInput struct {
	OrganizationName string
	Details          domain.TicketDetails
}

// ListFilter describes admin listing filters.
type ListFilter struct {
	Type   *domain.TicketType
	Status *domain.TicketStatus
	Cursor string
	Limit  int
}

// TicketPage is one page of tickets plus the global pending aggregate.
type TicketPage struct {
	Items        []domain.Ticket
	NextCursor   string
	PendingCount int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Submit creates a pending ticket on behalf of submitter.
func (s *TicketService) Submit(ctx context.Context, submitter *domain.User, input SubmitInput) (*domain.Ticket, error) {
	if submitter == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if input.Details == nil {
		return nil, apperrors.NewValidationError("ticket_type required", nil)
	}
	name := strings.TrimSpace(input.OrganizationName)
	switch d := input.Details.(type) {
	case domain.AccessRequest, domain.OrganizationSuggestion:
		if name == "" {
			return nil, apperrors.NewValidationError("organization_name required", map[string]any{"ticket_type": d.TicketType()})
		}
	case domain.OrganizationFeedback:
		// Zero means no rating was given.
		if d.Stars != 0 && (d.Stars < 1 || d.Stars > 5) {
			return nil, apperrors.NewValidationError("feedback_stars must be between 1 and 5 when given", map[string]any{"feedback_stars": d.Stars})
		}
	}

	ticket := &domain.Ticket{
		TicketID:         generateTicketKey(),
		Status:           domain.TicketStatusPending,
		OrganizationName: name,
		SubmitterID:      submitter.ID,
		SubmitterEmail:   submitter.Email,
		Details:          input.Details,
	}
	// The ticket and its submitted entry commit together; the event follows the commit.
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		return repos.History.Create(ctx, &domain.TicketHistory{
			TicketID:    ticket.ID,
			ChangedByID: &submitter.ID,
			ChangeType:  domain.ChangeTypeSubmitted,
			NewValue:    map[string]any{"status": ticket.Status, "ticket_type": ticket.Type()},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: ticket.ID,
		ActorID:  submitter.ID,
		Payload: events.TicketSubmittedPayload{
			TicketCode:       ticket.TicketID,
			TicketType:       ticket.Type(),
			OrganizationName: ticket.OrganizationName,
			SubmitterEmail:   ticket.SubmitterEmail,
		},
	})
	return ticket, nil
}

// ListTickets returns one forward page and the pending count across all tickets.
func (s *TicketService) ListTickets(ctx context.Context, filter ListFilter) (*TicketPage, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket_type", map[string]any{"ticket_type": *filter.Type})
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *filter.Status})
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repoFilter := repository.TicketFilter{
		Type:   filter.Type,
		Status: filter.Status,
		Limit:  limit + 1,
	}
	if filter.Cursor != "" {
		cursor, err := repository.DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid cursor", nil)
		}
		repoFilter.After = &cursor
	}

	items, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	page := &TicketPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}

	page.PendingCount, err = s.tickets.CountPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return page, nil
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListHistory returns the audit trail of a ticket.
func (s *TicketService) ListHistory(ctx context.Context, id string) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
