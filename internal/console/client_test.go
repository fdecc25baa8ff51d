package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kidsact/admin-console/internal/config"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/review"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ConsoleConfig{BaseURL: srv.URL + "/", Token: "tok", TimeoutSeconds: 5})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write: %v", err)
	}
}

func TestClientListTickets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/tickets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("status") != "pending" || q.Get("cursor") != "abc" || q.Get("limit") != "10" || q.Has("type") {
			t.Errorf("query = %v", q)
		}
		writeJSON(t, w, http.StatusOK, `{"data":{"items":[
			{"id":"t1","ticket_id":"TCK-1","ticket_type":"organization_suggestion","status":"pending",
			 "organization_name":"Little Swimmers","suggested_district":"North","feedback_stars":3,
			 "created_at":"2026-03-01T09:00:00Z"}],
			"next_cursor":"def","pending_count":7}}`)
	})

	status := domain.TicketStatusPending
	page, err := client.ListTickets(context.Background(), ListQuery{Status: &status, Cursor: "abc", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.NextCursor != "def" || page.PendingCount != 7 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	s, ok := page.Items[0].Suggestion()
	if !ok || s.District != "North" {
		t.Fatalf("details = %#v", page.Items[0].Details)
	}
}

func TestClientReviewTicketSendsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/tickets/t1/review" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(body) != 2 || body["action"] != "approve" || body["organization_id"] != "org-42" {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, http.StatusOK, `{"data":{"ticket":{"id":"t1","ticket_type":"access_request","status":"approved",
			"organization_id":"org-42","reviewed_by":"admin-1","reviewed_at":"2026-03-01T10:00:00Z",
			"created_at":"2026-03-01T09:00:00Z"}}}`)
	})

	orgID := "org-42"
	got, err := client.ReviewTicket(context.Background(), "t1", review.Payload{Action: review.ActionApprove, OrganizationID: &orgID})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != domain.TicketStatusApproved || got.OrganizationID == nil || *got.OrganizationID != "org-42" {
		t.Fatalf("ticket = %+v", got)
	}
	if err := got.CheckReviewInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, `{"error":{"code":"ALREADY_REVIEWED","message":"ticket already reviewed","details":{"ticket_id":"t1"}}}`)
	})

	_, err := client.ReviewTicket(context.Background(), "t1", review.Payload{Action: review.ActionReject})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "ALREADY_REVIEWED" || apiErr.Details["ticket_id"] != "t1" {
		t.Fatalf("api error = %+v", apiErr)
	}
	if ErrorMessage(err) != "ticket already reviewed" {
		t.Fatalf("banner = %q", ErrorMessage(err))
	}
}

func TestClientNonJSONError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := client.ListOrganizations(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "" {
		t.Fatalf("err = %v", err)
	}
	if ErrorMessage(err) != "Request failed: Bad Gateway" {
		t.Fatalf("banner = %q", ErrorMessage(err))
	}
}

func TestClientReferenceCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/organizations":
			writeJSON(t, w, http.StatusOK, `{"data":[{"id":"org-1","name":"Acme","manager_id":"u1"}]}`)
		case "/admin/feedback-labels":
			writeJSON(t, w, http.StatusOK, `{"data":[{"id":"l1","name":"friendly"}]}`)
		case "/admin/users":
			if r.URL.Query().Get("ids") != "u1,u2" {
				t.Errorf("ids = %q", r.URL.Query().Get("ids"))
			}
			writeJSON(t, w, http.StatusOK, `{"data":[{"id":"u1","email":"one@example.com","role":"manager"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	orgs, err := client.ListOrganizations(ctx)
	if err != nil || len(orgs) != 1 || orgs[0].ManagerID == nil {
		t.Fatalf("orgs = %+v err = %v", orgs, err)
	}
	labels, err := client.ListFeedbackLabels(ctx)
	if err != nil || len(labels) != 1 || labels[0].Name != "friendly" {
		t.Fatalf("labels = %+v err = %v", labels, err)
	}
	users, err := client.LookupUsers(ctx, []string{"u1", "u2"})
	if err != nil || len(users) != 1 || users[0].Role != domain.RoleManager {
		t.Fatalf("users = %+v err = %v", users, err)
	}
}

func TestClientHonoursCancelledContext(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.ListTickets(ctx, ListQuery{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Fatal("request sent with cancelled context")
	}
}

func TestClientDeadlineBoundsRequest(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := client.ListTickets(ctx, ListQuery{}); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("request ran %s past a 100ms deadline", elapsed)
	}
}
