package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/directory"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/observability"
	"github.com/kidsact/admin-console/internal/repository"
	"github.com/kidsact/admin-console/internal/review"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

// ReviewService applies reviewer decisions to pending tickets.
type ReviewService struct {
	store      repository.Store
	directory  directory.Directory
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// ReviewDependencies bundles collaborators for the review service.
type ReviewDependencies struct {
	Store      repository.Store
	Directory  directory.Directory
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// NewReviewService constructs the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ReviewService{
		store:      deps.Store,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// reviewEffects collects what happened inside the transaction so events are
// only published after commit.
type reviewEffects struct {
	ticket       *domain.Ticket
	resolution   review.Resolution
	createdOrg   *domain.Organization
	promotedUser *events.UserRoleChangedPayload
}

// Review moves a pending ticket to approved or rejected in one transaction,
// creating or linking an organization when the payload asks for it.
func (s *ReviewService) Review(ctx context.Context, reviewer *domain.User, ticketID string, payload review.Payload) (*domain.Ticket, error) {
	if reviewer == nil || reviewer.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	var fx reviewEffects
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}
		if !ticket.IsPending() {
			return apperrors.NewAlreadyReviewed(ticketID)
		}

		res, err := review.ResolutionFromPayload(ticket.Type(), payload)
		if err != nil {
			return validationToDomain(err)
		}
		fx.resolution = res

		switch res.Kind {
		case review.ResolutionLinkExisting:
			if err := s.linkOrganization(ctx, repos, reviewer, ticket, res.OrganizationID, &fx); err != nil {
				return err
			}
		case review.ResolutionCreateNew:
			if err := s.createOrganization(ctx, repos, reviewer, ticket, &fx); err != nil {
				return err
			}
		}

		oldStatus := ticket.Status
		reviewedAt := s.now().UTC()
		reviewerID := reviewer.ID
		ticket.Status = statusFor(payload.Action)
		ticket.ReviewedAt = &reviewedAt
		ticket.ReviewedBy = &reviewerID
		ticket.AdminNotes = payload.AdminNotes

		updated, err := repos.Tickets.MarkReviewed(ctx, ticket)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.NewAlreadyReviewed(ticketID)
		}
		if err := repos.History.Create(ctx, &domain.TicketHistory{
			TicketID:    ticket.ID,
			ChangedByID: &reviewerID,
			ChangeType:  domain.ChangeTypeStatus,
			OldValue:    map[string]any{"status": oldStatus},
			NewValue: map[string]any{
				"status":      ticket.Status,
				"resolution":  res.Kind.String(),
				"admin_notes": ticket.AdminNotes,
			},
		}); err != nil {
			return err
		}
		fx.ticket = ticket
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.afterCommit(ctx, reviewer, fx, payload.Action)
	return fx.ticket, nil
}

func (s *ReviewService) linkOrganization(ctx context.Context, repos repository.Repositories, reviewer *domain.User, ticket *domain.Ticket, orgID string, fx *reviewEffects) error {
	org, err := repos.Organizations.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reviewValidation(review.CodeOrganizationNotFound, map[string]any{"organization_id": orgID})
		}
		return err
	}
	submitter, err := ensureSubmitter(ctx, repos, ticket)
	if err != nil {
		return err
	}
	if err := repos.Organizations.AssignManager(ctx, org.ID, submitter.ID); err != nil {
		return err
	}
	ticket.OrganizationID = &org.ID
	if err := repos.History.Create(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		ChangedByID: &reviewer.ID,
		ChangeType:  domain.ChangeTypeOrganizationLinked,
		OldValue:    map[string]any{"manager_id": org.ManagerID},
		NewValue:    map[string]any{"organization_id": org.ID, "manager_id": ticket.SubmitterID},
	}); err != nil {
		return err
	}
	return s.promoteSubmitter(ctx, repos, reviewer, ticket, submitter, fx)
}

func (s *ReviewService) createOrganization(ctx context.Context, repos repository.Repositories, reviewer *domain.User, ticket *domain.Ticket, fx *reviewEffects) error {
	org := organizationFromTicket(ticket)
	if org.Name == "" {
		return reviewValidation(review.CodeOrganizationNameRequired, map[string]any{"ticket_id": ticket.ID})
	}
	var submitter *domain.User
	if ticket.Type() == domain.TicketTypeAccessRequest {
		var err error
		if submitter, err = ensureSubmitter(ctx, repos, ticket); err != nil {
			return err
		}
		managerID := submitter.ID
		org.ManagerID = &managerID
	}
	if err := repos.Organizations.Create(ctx, org); err != nil {
		return err
	}
	ticket.OrganizationID = &org.ID
	fx.createdOrg = org
	if err := repos.History.Create(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		ChangedByID: &reviewer.ID,
		ChangeType:  domain.ChangeTypeOrganizationCreated,
		NewValue:    map[string]any{"organization_id": org.ID, "name": org.Name, "manager_id": org.ManagerID},
	}); err != nil {
		return err
	}
	if submitter != nil {
		return s.promoteSubmitter(ctx, repos, reviewer, ticket, submitter, fx)
	}
	return nil
}

// ensureSubmitter loads the submitter, creating the user row when the
// identity provider user has never signed in to the console.
func ensureSubmitter(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket) (*domain.User, error) {
	user, err := repos.Users.GetByID(ctx, ticket.SubmitterID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		user = &domain.User{ID: ticket.SubmitterID, Email: ticket.SubmitterEmail, Role: domain.RoleUser}
		if err := repos.Users.Upsert(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	return user, nil
}

// promoteSubmitter makes the submitter a manager unless they already hold a
// role at least as strong.
func (s *ReviewService) promoteSubmitter(ctx context.Context, repos repository.Repositories, reviewer *domain.User, ticket *domain.Ticket, user *domain.User, fx *reviewEffects) error {
	if user.Role == domain.RoleManager || user.Role.Outranks(domain.RoleManager) {
		return nil
	}
	if err := repos.Users.UpdateRole(ctx, user.ID, domain.RoleManager); err != nil {
		return err
	}
	fx.promotedUser = &events.UserRoleChangedPayload{UserID: user.ID, OldRole: user.Role, NewRole: domain.RoleManager}
	return repos.History.Create(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		ChangedByID: &reviewer.ID,
		ChangeType:  domain.ChangeTypeRoleChange,
		OldValue:    map[string]any{"user_id": user.ID, "role": user.Role},
		NewValue:    map[string]any{"user_id": user.ID, "role": domain.RoleManager},
	})
}

func (s *ReviewService) afterCommit(ctx context.Context, reviewer *domain.User, fx reviewEffects, action review.Action) {
	ticket := fx.ticket
	s.metrics.RecordReview(string(ticket.Type()), string(action), fx.resolution.Kind.String())

	if fx.createdOrg != nil {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventOrganizationCreated,
			TicketID: ticket.ID,
			ActorID:  reviewer.ID,
			Payload: events.OrganizationCreatedPayload{
				OrganizationID: fx.createdOrg.ID,
				Name:           fx.createdOrg.Name,
				ManagerID:      fx.createdOrg.ManagerID,
			},
		})
	}
	if fx.promotedUser != nil {
		if s.directory != nil {
			s.directory.Invalidate(ctx, fx.promotedUser.UserID)
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventUserRoleChanged,
			TicketID: ticket.ID,
			ActorID:  reviewer.ID,
			Payload:  *fx.promotedUser,
		})
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketReviewed,
		TicketID: ticket.ID,
		ActorID:  reviewer.ID,
		Payload: events.TicketReviewedPayload{
			TicketCode:     ticket.TicketID,
			TicketType:     ticket.Type(),
			Status:         ticket.Status,
			Resolution:     fx.resolution.Kind.String(),
			OrganizationID: ticket.OrganizationID,
			SubmitterEmail: ticket.SubmitterEmail,
			AdminNotes:     ticket.AdminNotes,
		},
	})
}

func statusFor(action review.Action) domain.TicketStatus {
	if action == review.ActionApprove {
		return domain.TicketStatusApproved
	}
	return domain.TicketStatusRejected
}

func organizationFromTicket(ticket *domain.Ticket) *domain.Organization {
	org := &domain.Organization{Name: ticket.OrganizationName}
	if s, ok := ticket.Suggestion(); ok {
		org.Description = s.Description
		org.District = s.District
		org.Address = s.Address
		org.Lat = s.Lat
		org.Lng = s.Lng
	}
	return org
}

func validationToDomain(err error) error {
	var verr *review.ValidationError
	if errors.As(err, &verr) {
		return reviewValidation(verr.Code, nil)
	}
	return err
}

// reviewValidation carries the readable sentence as the message and the
// machine code under details["code"].
func reviewValidation(code string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	details["code"] = code
	msg, ok := review.Describe(code)
	if !ok {
		msg = "review validation failed"
	}
	return apperrors.NewValidationError(msg, details)
}
