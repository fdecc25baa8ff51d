package review

import (
	"reflect"
	"testing"
	"time"

	"github.com/kidsact/admin-console/internal/domain"
)

func ticketList() []domain.Ticket {
	return []domain.Ticket{
		{ID: "t0", Status: domain.TicketStatusPending, Details: domain.AccessRequest{}},
		{ID: "t1", Status: domain.TicketStatusPending, OrganizationName: "Acme", Details: domain.AccessRequest{}},
		{ID: "t2", Status: domain.TicketStatusPending, Details: domain.OrganizationFeedback{}},
	}
}

func approved(id string) domain.Ticket {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reviewer := "admin-1"
	orgID := "org-9"
	return domain.Ticket{
		ID:               id,
		Status:           domain.TicketStatusApproved,
		OrganizationName: "Acme",
		OrganizationID:   &orgID,
		Details:          domain.AccessRequest{},
		ReviewedAt:       &now,
		ReviewedBy:       &reviewer,
	}
}

func TestMergeTicketReplacesInPlace(t *testing.T) {
	list := ticketList()
	merged, found := MergeTicket(list, approved("t1"))
	if !found {
		t.Fatal("expected t1 to be found")
	}
	if len(merged) != len(list) {
		t.Fatalf("len = %d, want %d", len(merged), len(list))
	}
	if merged[1].Status != domain.TicketStatusApproved || merged[1].ID != "t1" {
		t.Fatalf("index 1 = %+v, want approved t1", merged[1])
	}
	if merged[0].ID != "t0" || merged[2].ID != "t2" {
		t.Fatalf("order changed: %v, %v", merged[0].ID, merged[2].ID)
	}
	if list[1].Status != domain.TicketStatusPending {
		t.Fatal("input slice was mutated")
	}
}

func TestMergeTicketIsIdempotent(t *testing.T) {
	once, _ := MergeTicket(ticketList(), approved("t1"))
	twice, _ := MergeTicket(once, approved("t1"))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge twice differs from once:\n%+v\n%+v", once, twice)
	}
}

func TestMergeTicketUnknownID(t *testing.T) {
	list := ticketList()
	merged, found := MergeTicket(list, approved("missing"))
	if found {
		t.Fatal("expected no match")
	}
	if !reflect.DeepEqual(merged, list) {
		t.Fatal("list changed on unknown id")
	}
}
