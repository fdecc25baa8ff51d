package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/directory"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/observability"
	"github.com/kidsact/admin-console/internal/repository/repotest"
	apperrors "github.com/kidsact/admin-console/pkg/util/errorutil"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	mem      *repotest.Memory
	rec      *recorder
	metrics  *observability.Metrics
	tickets  *TicketService
	reviews  *ReviewService
	admin    *AdminService
	reviewer *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repotest.New(testStart)
	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, typ := range []events.EventType{
		events.EventTicketSubmitted,
		events.EventTicketReviewed,
		events.EventOrganizationCreated,
		events.EventUserRoleChanged,
	} {
		dispatcher.Subscribe(typ, rec.handle)
	}
	repos := mem.Repositories()
	dir := directory.NewCached(repos.Users, nil, 0, zap.NewNop())
	metrics := observability.NewMetrics()

	admin := &domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	mem.PutUser(*admin)

	return &fixture{
		mem:     mem,
		rec:     rec,
		metrics: metrics,
		tickets: NewTicketService(TicketDependencies{
			Store:       mem,
			TicketRepo:  repos.Tickets,
			HistoryRepo: repos.History,
			Dispatcher:  dispatcher,
		}),
		reviews: NewReviewService(ReviewDependencies{
			Store:      mem,
			Directory:  dir,
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Now:        func() time.Time { return testStart.Add(time.Hour) },
		}),
		admin: NewAdminService(AdminDependencies{
			OrganizationRepo:  repos.Organizations,
			FeedbackLabelRepo: mem.Labels(),
			UserRepo:          repos.Users,
			Directory:         dir,
			Dispatcher:        dispatcher,
		}),
		reviewer: admin,
	}
}

func assertCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var derr *apperrors.DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DomainError %s, got %v", code, err)
	}
	if derr.Code != code {
		t.Fatalf("code = %s (%s), want %s", derr.Code, derr.Message, code)
	}
	return derr
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
