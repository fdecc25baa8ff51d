package review

import (
	"strings"

	"github.com/kidsact/admin-console/internal/domain"
)

// Payload is the body of a review request. Organization fields are pointers
// so that absent and zero values stay distinguishable on the wire.
type Payload struct {
	Action             Action  `json:"action"`
	AdminNotes         *string `json:"admin_notes,omitempty"`
	OrganizationID     *string `json:"organization_id,omitempty"`
	CreateOrganization *bool   `json:"create_organization,omitempty"`
}

// BuildPayload validates a decision against the ticket being reviewed and
// returns the request payload. Any error is a *ValidationError.
func BuildPayload(ticket *domain.Ticket, d Decision) (Payload, error) {
	if !ticket.IsPending() {
		return Payload{}, invalid(CodeTicketNotPending)
	}
	res, err := ResolveOrganization(ticket.Type(), d)
	if err != nil {
		return Payload{}, err
	}

	payload := Payload{Action: d.Action, AdminNotes: d.notes()}
	if d.Action == ActionReject {
		return payload, nil
	}

	switch ticket.Type() {
	case domain.TicketTypeAccessRequest:
		switch res.Kind {
		case ResolutionLinkExisting:
			orgID := res.OrganizationID
			payload.OrganizationID = &orgID
		case ResolutionCreateNew:
			create := true
			payload.CreateOrganization = &create
		}
	default:
		create := res.Kind == ResolutionCreateNew
		payload.CreateOrganization = &create
	}
	return payload, nil
}

// ResolutionFromPayload interprets a received payload for a ticket of the
// given type. It accepts exactly the shapes BuildPayload produces.
func ResolutionFromPayload(ticketType domain.TicketType, p Payload) (Resolution, error) {
	if !p.Action.Valid() {
		return Resolution{}, invalid(CodeInvalidAction)
	}
	if !ticketType.Valid() {
		return Resolution{}, invalid(CodeUnknownTicketType)
	}
	if p.Action == ActionReject {
		if p.OrganizationID != nil || p.CreateOrganization != nil {
			return Resolution{}, invalid(CodeOrganizationFieldsOnReject)
		}
		return Resolution{Kind: ResolutionNone}, nil
	}

	create := p.CreateOrganization != nil && *p.CreateOrganization
	if ticketType != domain.TicketTypeAccessRequest {
		if p.OrganizationID != nil {
			return Resolution{}, invalid(CodeOrganizationIDNotAllowed)
		}
		return ResolveOrganization(ticketType, Decision{Action: p.Action, CreateOrganization: create})
	}

	d := Decision{Action: p.Action}
	switch {
	case p.OrganizationID != nil && create:
		return Resolution{}, invalid(CodeOrganizationFieldsConflict)
	case p.OrganizationID != nil:
		d.OrganizationMode = OrganizationModeExisting
		d.OrganizationID = strings.TrimSpace(*p.OrganizationID)
	case create:
		d.OrganizationMode = OrganizationModeNew
	}
	return ResolveOrganization(ticketType, d)
}
