package events

import (
	"time"

	"github.com/kidsact/admin-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted     EventType = "ticket_submitted"
	EventTicketReviewed      EventType = "ticket_reviewed"
	EventOrganizationCreated EventType = "organization_created"
	EventUserRoleChanged     EventType = "user_role_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	TicketCode       string            `json:"ticket_code"`
	TicketType       domain.TicketType `json:"ticket_type"`
	OrganizationName string            `json:"organization_name"`
	SubmitterEmail   string            `json:"submitter_email"`
}

// TicketReviewedPayload payload.
type TicketReviewedPayload struct {
	TicketCode     string              `json:"ticket_code"`
	TicketType     domain.TicketType   `json:"ticket_type"`
	Status         domain.TicketStatus `json:"status"`
	Resolution     string              `json:"resolution"`
	OrganizationID *string             `json:"organization_id,omitempty"`
	SubmitterEmail string              `json:"submitter_email"`
	AdminNotes     *string             `json:"admin_notes,omitempty"`
}

// OrganizationCreatedPayload payload.
type OrganizationCreatedPayload struct {
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	ManagerID      *string `json:"manager_id,omitempty"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	UserID  string      `json:"user_id"`
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
