package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/auth"
	"github.com/kidsact/admin-console/internal/directory"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/repository"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

// AuthService turns verified identity-provider tokens into console users.
type AuthService struct {
	users     repository.UserRepository
	tokenMgr  *auth.TokenManager
	directory directory.Directory
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	// Directory, when set, drops cached entries after a profile change.
	Directory directory.Directory
}

// Profile is the caller's view of themselves.
type Profile struct {
	User      domain.User
	Dashboard domain.Dashboard
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{users: deps.UserRepo, tokenMgr: deps.TokenManager, directory: deps.Directory}
}

// Authenticate verifies the token and loads the user row, creating it with
// the default role on first sight. Email and name follow the token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		user = &domain.User{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: domain.RoleUser}
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, apperrors.MapError(err)
		}
		return user, nil
	case err != nil:
		return nil, apperrors.MapError(err)
	}

	if (claims.Email != "" && claims.Email != user.Email) || (claims.Name != "" && claims.Name != user.Name) {
		if claims.Email != "" {
			user.Email = claims.Email
		}
		if claims.Name != "" {
			user.Name = claims.Name
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, apperrors.MapError(err)
		}
		if s.directory != nil {
			s.directory.Invalidate(ctx, user.ID)
		}
	}
	return user, nil
}

// Me returns the caller profile with its role-gated dashboard.
func (s *AuthService) Me(user *domain.User) (*Profile, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return &Profile{User: *user, Dashboard: domain.DashboardForRole(user.Role)}, nil
}
