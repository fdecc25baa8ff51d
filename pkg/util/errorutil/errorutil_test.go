package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain passthrough", fmt.Errorf("wrap: %w", NewAlreadyReviewed("t1")), "ALREADY_REVIEWED", http.StatusConflict},
		{"fiber error", fiber.NewError(http.StatusForbidden, "nope"), "FORBIDDEN", http.StatusForbidden},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "CONFLICT", http.StatusConflict},
		{"deadline", fmt.Errorf("list tickets: %w", context.DeadlineExceeded), "TIMEOUT", http.StatusGatewayTimeout},
		{"other", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if err := MapError(nil); err != nil {
		t.Fatalf("MapError(nil) = %v", err)
	}
}
