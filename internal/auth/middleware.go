package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/domain"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Authenticator resolves a bearer token to the console user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	user, err := m.authenticator.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}
