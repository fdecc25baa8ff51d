package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusApproved, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusApproved || s == TicketStatusRejected
}

// TicketType is the closed tag selecting which details variant a ticket carries.
type TicketType string

const (
	TicketTypeAccessRequest          TicketType = "access_request"
	TicketTypeOrganizationSuggestion TicketType = "organization_suggestion"
	TicketTypeOrganizationFeedback   TicketType = "organization_feedback"
)

// Valid reports whether the type is one of the known values.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeAccessRequest, TicketTypeOrganizationSuggestion, TicketTypeOrganizationFeedback:
		return true
	}
	return false
}

// TicketDetails is the type-specific part of a ticket. Implemented by
// AccessRequest, OrganizationSuggestion and OrganizationFeedback only.
type TicketDetails interface {
	TicketType() TicketType
	isTicketDetails()
}

// AccessRequest asks for manager access to an organization.
type AccessRequest struct {
	Message string `json:"message,omitempty"`
}

func (AccessRequest) TicketType() TicketType { return TicketTypeAccessRequest }
func (AccessRequest) isTicketDetails()       {}

// OrganizationSuggestion proposes a new organization for the directory.
type OrganizationSuggestion struct {
	Description     string   `json:"description,omitempty"`
	District        string   `json:"suggested_district,omitempty"`
	Address         string   `json:"suggested_address,omitempty"`
	Lat             *float64 `json:"suggested_lat,omitempty"`
	Lng             *float64 `json:"suggested_lng,omitempty"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`
}

func (OrganizationSuggestion) TicketType() TicketType { return TicketTypeOrganizationSuggestion }
func (OrganizationSuggestion) isTicketDetails()       {}

// OrganizationFeedback rates an organization.
type OrganizationFeedback struct {
	Stars    int      `json:"feedback_stars,omitempty"`
	LabelIDs []string `json:"feedback_label_ids,omitempty"`
	Text     string   `json:"feedback_text,omitempty"`
}

func (OrganizationFeedback) TicketType() TicketType { return TicketTypeOrganizationFeedback }
func (OrganizationFeedback) isTicketDetails()       {}

// Ticket is a user-submitted request awaiting admin review.
type Ticket struct {
	ID               string
	TicketID         string
	Status           TicketStatus
	OrganizationName string
	OrganizationID   *string
	SubmitterID      string
	SubmitterEmail   string
	Details          TicketDetails
	CreatedAt        time.Time
	ReviewedAt       *time.Time
	ReviewedBy       *string
	AdminNotes       *string
}

// Type derives the ticket type from its details variant.
func (t *Ticket) Type() TicketType {
	if t == nil || t.Details == nil {
		return ""
	}
	return t.Details.TicketType()
}

// IsPending reports whether the ticket still awaits review.
func (t *Ticket) IsPending() bool {
	return t != nil && t.Status == TicketStatusPending
}

// ErrReviewInvariant is returned when review metadata disagrees with the status.
var ErrReviewInvariant = errors.New("reviewed_at and reviewed_by must be set exactly when status is terminal")

// CheckReviewInvariant verifies reviewed_at/reviewed_by are nil iff the ticket is pending.
func (t *Ticket) CheckReviewInvariant() error {
	reviewed := t.ReviewedAt != nil && t.ReviewedBy != nil
	unreviewed := t.ReviewedAt == nil && t.ReviewedBy == nil
	switch {
	case t.Status == TicketStatusPending && unreviewed:
		return nil
	case t.Status.Terminal() && reviewed:
		return nil
	default:
		return ErrReviewInvariant
	}
}

// DecodeDetails parses stored or wire JSON into the variant for t.
func DecodeDetails(t TicketType, raw []byte) (TicketDetails, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch t {
	case TicketTypeAccessRequest:
		var d AccessRequest
		err := json.Unmarshal(raw, &d)
		return d, err
	case TicketTypeOrganizationSuggestion:
		var d OrganizationSuggestion
		err := json.Unmarshal(raw, &d)
		return d, err
	case TicketTypeOrganizationFeedback:
		var d OrganizationFeedback
		err := json.Unmarshal(raw, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown ticket type %q", t)
	}
}

// AccessRequest returns the access request details when the ticket is one.
func (t *Ticket) AccessRequest() (AccessRequest, bool) {
	d, ok := t.Details.(AccessRequest)
	return d, ok
}

// Suggestion returns the suggestion details when the ticket is one.
func (t *Ticket) Suggestion() (OrganizationSuggestion, bool) {
	d, ok := t.Details.(OrganizationSuggestion)
	return d, ok
}

// Feedback returns the feedback details when the ticket is one.
func (t *Ticket) Feedback() (OrganizationFeedback, bool) {
	d, ok := t.Details.(OrganizationFeedback)
	return d, ok
}
