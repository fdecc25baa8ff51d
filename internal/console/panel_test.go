package console

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/review"
)

type fakeAPI struct {
	mu          sync.Mutex
	pages       map[string]Page
	listErr     error
	listCalls   []ListQuery
	reviewCalls []review.Payload
	reviewErr   error
	reviewed    func(id string) domain.Ticket

	started chan struct{}
	release chan struct{}
}

func (f *fakeAPI) ListTickets(_ context.Context, q ListQuery) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, q)
	if f.listErr != nil {
		return Page{}, f.listErr
	}
	return f.pages[q.Cursor], nil
}

func (f *fakeAPI) ReviewTicket(_ context.Context, id string, payload review.Payload) (domain.Ticket, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls = append(f.reviewCalls, payload)
	if f.reviewErr != nil {
		return domain.Ticket{}, f.reviewErr
	}
	return f.reviewed(id), nil
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls), len(f.reviewCalls)
}

func pending(id, org string, details domain.TicketDetails) domain.Ticket {
	return domain.Ticket{ID: id, TicketID: "TCK-" + id, Status: domain.TicketStatusPending, OrganizationName: org, Details: details}
}

func approvedCopy(t domain.Ticket) domain.Ticket {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	reviewer := "admin-1"
	t.Status = domain.TicketStatusApproved
	t.ReviewedAt = &now
	t.ReviewedBy = &reviewer
	return t
}

func newLoadedPanel(t *testing.T) (*Panel, *fakeAPI) {
	t.Helper()
	first := []domain.Ticket{
		pending("t0", "Zoo Club", domain.OrganizationFeedback{Stars: 4, Text: "great coaches"}),
		pending("t1", "Acme", domain.AccessRequest{Message: "manager here"}),
	}
	api := &fakeAPI{
		pages: map[string]Page{
			"":   {Items: first, NextCursor: "c1", PendingCount: 3},
			"c1": {Items: []domain.Ticket{pending("t2", "Little Swimmers", domain.OrganizationSuggestion{District: "North"})}, PendingCount: 3},
		},
	}
	api.reviewed = func(id string) domain.Ticket {
		for _, t := range append(api.pages[""].Items, api.pages["c1"].Items...) {
			if t.ID == id {
				return approvedCopy(t)
			}
		}
		return domain.Ticket{}
	}
	p := NewPanel(api, 2)
	if err := p.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return p, api
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestLoadMoreAppendsForwardOnly(t *testing.T) {
	p, api := newLoadedPanel(t)
	ctx := context.Background()

	if err := p.LoadMore(ctx); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if got := ids(p.Tickets()); !reflect.DeepEqual(got, []string{"t0", "t1", "t2"}) {
		t.Fatalf("tickets = %v", got)
	}
	if p.HasMore() {
		t.Fatal("expected no further pages")
	}
	if err := p.LoadMore(ctx); err != nil {
		t.Fatalf("load more at end: %v", err)
	}
	if lists, _ := api.calls(); lists != 2 {
		t.Fatalf("list calls = %d, want 2", lists)
	}
	if api.listCalls[1].Cursor != "c1" || api.listCalls[1].Limit != 2 {
		t.Fatalf("second query = %+v", api.listCalls[1])
	}
}

func TestFilterChangeReloadsFromFirstPage(t *testing.T) {
	p, api := newLoadedPanel(t)
	ctx := context.Background()
	_ = p.LoadMore(ctx)

	status := domain.TicketStatusPending
	if err := p.SetStatusFilter(ctx, &status); err != nil {
		t.Fatalf("status filter: %v", err)
	}
	last := api.listCalls[len(api.listCalls)-1]
	if last.Cursor != "" || last.Status == nil || *last.Status != status {
		t.Fatalf("query = %+v", last)
	}
	if got := ids(p.Tickets()); !reflect.DeepEqual(got, []string{"t0", "t1"}) {
		t.Fatalf("accumulated pages not discarded: %v", got)
	}

	typ := domain.TicketTypeAccessRequest
	if err := p.SetTypeFilter(ctx, &typ); err != nil {
		t.Fatalf("type filter: %v", err)
	}
	last = api.listCalls[len(api.listCalls)-1]
	if last.Cursor != "" || last.Type == nil || *last.Type != typ || last.Status == nil {
		t.Fatalf("query = %+v", last)
	}
}

func TestSearchFiltersLoadedTicketsWithoutNetwork(t *testing.T) {
	p, api := newLoadedPanel(t)
	before, _ := api.calls()

	p.SetSearch("acme")
	if got := ids(p.Visible()); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Fatalf("visible = %v", got)
	}
	p.SetSearch("COACHES")
	if got := ids(p.Visible()); !reflect.DeepEqual(got, []string{"t0"}) {
		t.Fatalf("visible = %v", got)
	}
	// t2 is on a page that is not loaded yet
	p.SetSearch("swimmers")
	if got := p.Visible(); len(got) != 0 {
		t.Fatalf("search reached unloaded pages: %v", ids(got))
	}
	p.SetSearch("")
	if len(p.Visible()) != 2 {
		t.Fatal("empty search should show everything loaded")
	}
	if after, _ := api.calls(); after != before {
		t.Fatal("search triggered a network call")
	}
}

func TestOpenReviewRefusesReviewedTickets(t *testing.T) {
	p, api := newLoadedPanel(t)
	api.pages[""] = Page{Items: []domain.Ticket{approvedCopy(pending("t9", "Done", domain.AccessRequest{}))}}
	if err := p.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.OpenReview("t9"); !errors.Is(err, ErrNotReviewable) {
		t.Fatalf("err = %v, want ErrNotReviewable", err)
	}
	if err := p.OpenReview("missing"); !errors.Is(err, ErrTicketNotLoaded) {
		t.Fatalf("err = %v, want ErrTicketNotLoaded", err)
	}
	if _, open := p.Modal(); open {
		t.Fatal("modal opened for a reviewed ticket")
	}
	if _, reviews := api.calls(); reviews != 0 {
		t.Fatal("review endpoint called")
	}
}

func TestOpenReviewSeedsFreshDraft(t *testing.T) {
	p, _ := newLoadedPanel(t)
	if err := p.OpenReview("t1"); err != nil {
		t.Fatal(err)
	}
	_ = p.UpdateDraft(func(d *review.Decision) {
		d.Action = review.ActionApprove
		d.OrganizationMode = review.OrganizationModeExisting
	})
	if err := p.CloseReview(); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateDraft(func(*review.Decision) {}); !errors.Is(err, ErrNoReview) {
		t.Fatalf("err = %v, want ErrNoReview", err)
	}
	if err := p.OpenReview("t1"); err != nil {
		t.Fatal(err)
	}
	m, _ := p.Modal()
	if m.Draft != (review.Decision{}) {
		t.Fatalf("draft = %+v, want empty", m.Draft)
	}
}

func TestSubmitReviewValidationNeverCallsAPI(t *testing.T) {
	p, api := newLoadedPanel(t)
	_ = p.OpenReview("t1")
	_ = p.UpdateDraft(func(d *review.Decision) {
		d.Action = review.ActionApprove
		d.OrganizationMode = review.OrganizationModeExisting
		d.AdminNotes = "looks fine"
	})

	_, err := p.SubmitReview(context.Background())
	var verr *review.ValidationError
	if !errors.As(err, &verr) || verr.Code != review.CodeOrganizationIDRequired {
		t.Fatalf("err = %v", err)
	}
	if _, reviews := api.calls(); reviews != 0 {
		t.Fatal("review endpoint called after validation failure")
	}
	m, open := p.Modal()
	if !open || m.Error == "" || m.Draft.AdminNotes != "looks fine" {
		t.Fatalf("modal = %+v open = %v", m, open)
	}
}

func TestSubmitReviewSuccessMergesClosesAndReloads(t *testing.T) {
	p, api := newLoadedPanel(t)
	lists, _ := api.calls()
	_ = p.OpenReview("t1")
	_ = p.UpdateDraft(func(d *review.Decision) {
		d.Action = review.ActionApprove
		d.OrganizationMode = review.OrganizationModeNew
	})

	got, err := p.SubmitReview(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != domain.TicketStatusApproved {
		t.Fatalf("returned = %+v", got)
	}
	if api.reviewCalls[0].CreateOrganization == nil || !*api.reviewCalls[0].CreateOrganization {
		t.Fatalf("payload = %+v", api.reviewCalls[0])
	}
	if _, open := p.Modal(); open {
		t.Fatal("modal still open after success")
	}
	if after, _ := api.calls(); after != lists+1 {
		t.Fatalf("list calls = %d, want a reload", after)
	}
}

func TestSubmitReviewMergeKeepsIndex(t *testing.T) {
	p, api := newLoadedPanel(t)
	// the reload after submit fails, so the list shows the merged state
	_ = p.OpenReview("t1")
	_ = p.UpdateDraft(func(d *review.Decision) {
		d.Action = review.ActionApprove
		d.OrganizationMode = review.OrganizationModeNew
	})
	api.listErr = errors.New("offline")

	if _, err := p.SubmitReview(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tickets := p.Tickets()
	if got := ids(tickets); !reflect.DeepEqual(got, []string{"t0", "t1"}) {
		t.Fatalf("tickets = %v", got)
	}
	if tickets[1].Status != domain.TicketStatusApproved || tickets[0].Status != domain.TicketStatusPending {
		t.Fatalf("merge wrong: %+v", tickets)
	}
	if p.Banner() == "" {
		t.Fatal("expected reload failure banner")
	}
}

func TestSubmitReviewAPIFailureKeepsModal(t *testing.T) {
	p, api := newLoadedPanel(t)
	api.reviewErr = &APIError{Status: 409, Code: "ALREADY_REVIEWED", Message: "ticket already reviewed"}
	_ = p.OpenReview("t0")
	_ = p.UpdateDraft(func(d *review.Decision) {
		d.Action = review.ActionReject
		d.AdminNotes = "spam"
	})
	before := p.Tickets()

	if _, err := p.SubmitReview(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	m, open := p.Modal()
	if !open || m.Error != "ticket already reviewed" || m.Draft.AdminNotes != "spam" {
		t.Fatalf("modal = %+v open = %v", m, open)
	}
	if !reflect.DeepEqual(before, p.Tickets()) {
		t.Fatal("list changed after failed submit")
	}
	if p.Submitting() {
		t.Fatal("in-flight flag not cleared")
	}
}

func TestSubmitReviewInFlightGuard(t *testing.T) {
	p, api := newLoadedPanel(t)
	api.started = make(chan struct{})
	api.release = make(chan struct{})
	_ = p.OpenReview("t0")
	_ = p.UpdateDraft(func(d *review.Decision) { d.Action = review.ActionReject })

	done := make(chan error, 1)
	go func() {
		_, err := p.SubmitReview(context.Background())
		done <- err
	}()
	<-api.started

	if _, err := p.SubmitReview(context.Background()); !errors.Is(err, ErrReviewInFlight) {
		t.Fatalf("second submit err = %v, want ErrReviewInFlight", err)
	}
	if err := p.CloseReview(); !errors.Is(err, ErrReviewInFlight) {
		t.Fatalf("close during submit err = %v", err)
	}
	close(api.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, reviews := api.calls(); reviews != 1 {
		t.Fatalf("review calls = %d, want 1", reviews)
	}
}
