package service

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/kidsact/admin-console/internal/auth"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/repository/repotest"
)

type invalidations struct {
	mu  sync.Mutex
	ids []string
}

func (d *invalidations) Lookup(context.Context, []string) (map[string]domain.User, error) {
	return map[string]domain.User{}, nil
}

func (d *invalidations) Invalidate(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
}

func (d *invalidations) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

func TestAuthenticateInvalidatesDirectoryOnProfileChange(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "", 5)
	tests := []struct {
		name      string
		stored    *domain.User
		email     string
		tokenName string
		want      []string
	}{
		{"first sight", nil, "kim@example.com", "Kim", nil},
		{"unchanged", &domain.User{ID: "u1", Email: "kim@example.com", Name: "Kim", Role: domain.RoleUser}, "kim@example.com", "Kim", nil},
		{"email changed", &domain.User{ID: "u1", Email: "old@example.com", Name: "Kim", Role: domain.RoleUser}, "kim@example.com", "Kim", []string{"u1"}},
		{"name changed", &domain.User{ID: "u1", Email: "kim@example.com", Name: "K", Role: domain.RoleManager}, "kim@example.com", "Kim", []string{"u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := repotest.New(testStart)
			if tt.stored != nil {
				mem.PutUser(*tt.stored)
			}
			dir := &invalidations{}
			svc := NewAuthService(AuthDependencies{
				UserRepo:     mem.Repositories().Users,
				TokenManager: tokens,
				Directory:    dir,
			})
			tok, _, err := tokens.GenerateToken("u1", tt.email, tt.tokenName)
			if err != nil {
				t.Fatalf("token: %v", err)
			}

			user, err := svc.Authenticate(context.Background(), tok)
			if err != nil {
				t.Fatalf("authenticate: %v", err)
			}
			if user.Email != tt.email || user.Name != tt.tokenName {
				t.Fatalf("user = %+v", user)
			}
			if got := dir.seen(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("invalidated = %v, want %v", got, tt.want)
			}
			if tt.stored != nil && user.Role != tt.stored.Role {
				t.Fatalf("role = %s, want %s", user.Role, tt.stored.Role)
			}
		})
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	mem := repotest.New(testStart)
	svc := NewAuthService(AuthDependencies{
		UserRepo:     mem.Repositories().Users,
		TokenManager: auth.NewTokenManager("test-secret", "", 5),
	})
	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assertCode(t, err, "UNAUTHORIZED")
}
