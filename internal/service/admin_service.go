package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/directory"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/repository"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

const maxLookupIDs = 100

// AdminService serves the reference collections and user-role management.
type AdminService struct {
	organizations repository.OrganizationRepository
	labels        repository.FeedbackLabelRepository
	users         repository.UserRepository
	directory     directory.Directory
	dispatcher    events.Dispatcher
}

// AdminDependencies encapsulates repositories required for admin reads and role changes.
type AdminDependencies struct {
	OrganizationRepo  repository.OrganizationRepository
	FeedbackLabelRepo repository.FeedbackLabelRepository
	UserRepo          repository.UserRepository
	Directory         directory.Directory
	Dispatcher        events.Dispatcher
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		organizations: deps.OrganizationRepo,
		labels:        deps.FeedbackLabelRepo,
		users:         deps.UserRepo,
		directory:     deps.Directory,
		dispatcher:    deps.Dispatcher,
	}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// ListOrganizations returns every organization ordered by name.
func (s *AdminService) ListOrganizations(ctx context.Context, actor *domain.User) ([]domain.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	orgs, err := s.organizations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orgs, nil
}

// ListFeedbackLabels returns the label catalogue.
func (s *AdminService) ListFeedbackLabels(ctx context.Context, actor *domain.User) ([]domain.FeedbackLabel, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	labels, err := s.labels.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return labels, nil
}

// LookupUsers resolves ids through the directory. Unknown ids are omitted.
func (s *AdminService) LookupUsers(ctx context.Context, actor *domain.User, ids []string) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	// The limit applies to distinct ids.
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) > maxLookupIDs {
		return nil, apperrors.NewValidationError("too many ids", map[string]any{"max": maxLookupIDs})
	}
	found, err := s.directory.Lookup(ctx, cleaned)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]domain.User, 0, len(found))
	for _, id := range cleaned {
		if u, ok := found[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// ChangeRole sets a user's console role. Admins cannot demote themselves.
func (s *AdminService) ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if actor.ID == userID && role != domain.RoleAdmin {
		return nil, apperrors.NewConflict("admins cannot demote themselves", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	old := user.Role
	user.Role = role
	if s.directory != nil {
		s.directory.Invalidate(ctx, userID)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventUserRoleChanged,
		ActorID: actor.ID,
		Payload: events.UserRoleChangedPayload{UserID: userID, OldRole: old, NewRole: role},
	})
	return user, nil
}
