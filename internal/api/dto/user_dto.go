package dto

import (
	"github.com/kidsact/admin-console/internal/domain"
)

// UserResponse is a directory entry.
type UserResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  domain.Role `json:"role"`
}

// MeResponse describes the caller.
type MeResponse struct {
	User      UserResponse     `json:"user"`
	Dashboard domain.Dashboard `json:"dashboard"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// FromUser converts a domain user.
func FromUser(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// FromUsers converts a list. The result is never nil.
func FromUsers(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}

// ToDomain converts back to a domain user.
func (u UserResponse) ToDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
