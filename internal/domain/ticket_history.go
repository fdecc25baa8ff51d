package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeSubmitted           TicketChangeType = "SUBMITTED"
	ChangeTypeStatus              TicketChangeType = "STATUS_CHANGE"
	ChangeTypeOrganizationCreated TicketChangeType = "ORGANIZATION_CREATED"
	ChangeTypeOrganizationLinked  TicketChangeType = "ORGANIZATION_LINKED"
	ChangeTypeRoleChange          TicketChangeType = "ROLE_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID          string
	TicketID    string
	ChangedByID *string
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
