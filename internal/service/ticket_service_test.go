package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/review"
)

func TestSubmitCreatesPendingTicket(t *testing.T) {
	f := newFixture(t)
	user := &domain.User{ID: "user-1", Email: "kim@example.com", Role: domain.RoleUser}

	ticket, err := f.tickets.Submit(context.Background(), user, SubmitInput{
		OrganizationName: "  Acme ",
		Details:          domain.AccessRequest{Message: "hi"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ticket.Status != domain.TicketStatusPending || ticket.OrganizationName != "Acme" {
		t.Fatalf("ticket = %+v", ticket)
	}
	if !regexp.MustCompile(`^TCK-[0-9A-F]{8}$`).MatchString(ticket.TicketID) {
		t.Fatalf("ticket code = %q", ticket.TicketID)
	}
	if err := ticket.CheckReviewInvariant(); err != nil {
		t.Fatal(err)
	}
	if h := f.mem.History(ticket.ID); len(h) != 1 || h[0].ChangeType != domain.ChangeTypeSubmitted {
		t.Fatalf("history = %+v", h)
	}
	if got := f.rec.types(); len(got) != 1 || got[0] != events.EventTicketSubmitted {
		t.Fatalf("events = %v", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	user := &domain.User{ID: "user-1", Email: "kim@example.com"}
	tests := []struct {
		name  string
		input SubmitInput
	}{
		{"no details", SubmitInput{OrganizationName: "Acme"}},
		{"access without name", SubmitInput{Details: domain.AccessRequest{}}},
		{"suggestion without name", SubmitInput{OrganizationName: "   ", Details: domain.OrganizationSuggestion{}}},
		{"too many stars", SubmitInput{Details: domain.OrganizationFeedback{Stars: 6}}},
		{"negative stars", SubmitInput{Details: domain.OrganizationFeedback{Stars: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.Submit(context.Background(), user, tt.input)
			assertCode(t, err, "VALIDATION_FAILED")
		})
	}
	_, err := f.tickets.Submit(context.Background(), nil, SubmitInput{Details: domain.OrganizationFeedback{}})
	assertCode(t, err, "UNAUTHORIZED")
}

func TestSubmitFeedbackStarsRange(t *testing.T) {
	f := newFixture(t)
	user := &domain.User{ID: "user-1", Email: "kim@example.com"}
	tests := []struct {
		stars   int
		wantErr bool
	}{
		{0, false},
		{1, false},
		{5, false},
		{-1, true},
		{6, true},
	}
	for _, tt := range tests {
		_, err := f.tickets.Submit(context.Background(), user, SubmitInput{
			Details: domain.OrganizationFeedback{Stars: tt.stars},
		})
		if !tt.wantErr {
			if err != nil {
				t.Fatalf("stars %d: %v", tt.stars, err)
			}
			continue
		}
		derr := assertCode(t, err, "VALIDATION_FAILED")
		if derr.Message != "feedback_stars must be between 1 and 5 when given" {
			t.Fatalf("stars %d: message = %q", tt.stars, derr.Message)
		}
	}
}

func TestSubmitRollsBackWhenHistoryFails(t *testing.T) {
	f := newFixture(t)
	f.mem.HistoryErr = errors.New("history insert failed")
	user := &domain.User{ID: "user-1", Email: "kim@example.com"}

	_, err := f.tickets.Submit(context.Background(), user, SubmitInput{
		OrganizationName: "Acme",
		Details:          domain.AccessRequest{Message: "hi"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := f.mem.TicketCount(); n != 0 {
		t.Fatalf("tickets stored = %d, want 0", n)
	}
	if got := f.rec.types(); len(got) != 0 {
		t.Fatalf("events published for a failed submit: %v", got)
	}
}

func TestListTicketsPagesForward(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.mem.PutTicket(domain.Ticket{Status: domain.TicketStatusPending, Details: domain.OrganizationFeedback{}})
	}
	f.mem.PutTicket(domain.Ticket{Status: domain.TicketStatusRejected, Details: domain.AccessRequest{}})

	ctx := context.Background()
	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := f.tickets.ListTickets(ctx, ListFilter{Cursor: cursor, Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.PendingCount != 5 {
			t.Fatalf("pending_count = %d, want 5", page.PendingCount)
		}
		for i, item := range page.Items {
			if seen[item.ID] {
				t.Fatalf("ticket %s returned twice", item.ID)
			}
			seen[item.ID] = true
			if i > 0 && item.CreatedAt.After(page.Items[i-1].CreatedAt) {
				t.Fatal("page not ordered newest first")
			}
		}
		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(seen) != 6 || pages != 3 {
		t.Fatalf("saw %d tickets over %d pages, want 6 over 3", len(seen), pages)
	}
}

func TestListTicketsFiltersKeepGlobalPendingCount(t *testing.T) {
	f := newFixture(t)
	f.mem.PutTicket(domain.Ticket{Status: domain.TicketStatusPending, Details: domain.AccessRequest{}})
	f.mem.PutTicket(domain.Ticket{Status: domain.TicketStatusPending, Details: domain.OrganizationFeedback{}})
	f.mem.PutTicket(domain.Ticket{Status: domain.TicketStatusApproved, Details: domain.AccessRequest{}})

	typ := domain.TicketTypeAccessRequest
	status := domain.TicketStatusApproved
	page, err := f.tickets.ListTickets(context.Background(), ListFilter{Type: &typ, Status: &status})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Status != domain.TicketStatusApproved {
		t.Fatalf("items = %+v", page.Items)
	}
	if page.PendingCount != 2 || page.NextCursor != "" {
		t.Fatalf("pending_count = %d next = %q", page.PendingCount, page.NextCursor)
	}
}

func TestListTicketsRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.ListTickets(ctx, ListFilter{Cursor: "%%%"})
	assertCode(t, err, "VALIDATION_FAILED")

	bogus := domain.TicketType("bogus")
	_, err = f.tickets.ListTickets(ctx, ListFilter{Type: &bogus})
	assertCode(t, err, "VALIDATION_FAILED")

	f.mem.ListErr = errors.New("connection reset")
	_, err = f.tickets.ListTickets(ctx, ListFilter{})
	assertCode(t, err, "INTERNAL_ERROR")
}

func TestListHistoryAfterReview(t *testing.T) {
	f := newFixture(t)
	ticket := f.pendingAccess(t)
	ctx := context.Background()

	if _, err := f.reviews.Review(ctx, f.reviewer, ticket.ID, review.Payload{Action: review.ActionReject}); err != nil {
		t.Fatalf("review: %v", err)
	}
	entries, err := f.tickets.ListHistory(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].NewValue["status"] != domain.TicketStatusRejected {
		t.Fatalf("history = %+v", entries)
	}

	_, err = f.tickets.ListHistory(ctx, "missing")
	assertCode(t, err, "NOT_FOUND")
}
