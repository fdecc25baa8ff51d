package dto

import (
	"fmt"
	"time"

	"github.com/kidsact/admin-console/internal/domain"
)

// TicketFields are the type-specific fields as they appear on the wire. Only
// the ones meaningful for the ticket type are populated.
type TicketFields struct {
	Message           string   `json:"message,omitempty"`
	Description       string   `json:"description,omitempty"`
	SuggestedDistrict string   `json:"suggested_district,omitempty"`
	SuggestedAddress  string   `json:"suggested_address,omitempty"`
	SuggestedLat      *float64 `json:"suggested_lat,omitempty"`
	SuggestedLng      *float64 `json:"suggested_lng,omitempty"`
	AdditionalNotes   string   `json:"additional_notes,omitempty"`
	FeedbackStars     int      `json:"feedback_stars,omitempty"`
	FeedbackLabelIDs  []string `json:"feedback_label_ids,omitempty"`
	FeedbackText      string   `json:"feedback_text,omitempty"`
}

// SubmitTicketRequest payload.
type SubmitTicketRequest struct {
	TicketType       domain.TicketType `json:"ticket_type"`
	OrganizationName string            `json:"organization_name"`
	TicketFields
}

// TicketResponse is the flat wire representation of a ticket.
type TicketResponse struct {
	ID               string              `json:"id"`
	TicketID         string              `json:"ticket_id"`
	TicketType       domain.TicketType   `json:"ticket_type"`
	Status           domain.TicketStatus `json:"status"`
	OrganizationName string              `json:"organization_name"`
	OrganizationID   *string             `json:"organization_id"`
	SubmitterID      string              `json:"submitter_id"`
	SubmitterEmail   string              `json:"submitter_email"`
	CreatedAt        time.Time           `json:"created_at"`
	ReviewedAt       *time.Time          `json:"reviewed_at"`
	ReviewedBy       *string             `json:"reviewed_by"`
	AdminNotes       *string             `json:"admin_notes"`
	TicketFields
}

// ListTicketsResponse is one page of the admin listing.
type ListTicketsResponse struct {
	Items        []TicketResponse `json:"items"`
	NextCursor   string           `json:"next_cursor,omitempty"`
	PendingCount int              `json:"pending_count"`
}

// ReviewTicketResponse wraps the reviewed ticket.
type ReviewTicketResponse struct {
	Ticket TicketResponse `json:"ticket"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangedByID *string                 `json:"changed_by_id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	OldValue    map[string]any          `json:"old_value,omitempty"`
	NewValue    map[string]any          `json:"new_value,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Details converts the flat request into the details variant named by TicketType.
func (r SubmitTicketRequest) Details() (domain.TicketDetails, error) {
	return r.TicketFields.toDetails(r.TicketType)
}

func (f TicketFields) toDetails(t domain.TicketType) (domain.TicketDetails, error) {
	switch t {
	case domain.TicketTypeAccessRequest:
		return domain.AccessRequest{Message: f.Message}, nil
	case domain.TicketTypeOrganizationSuggestion:
		return domain.OrganizationSuggestion{
			Description:     f.Description,
			District:        f.SuggestedDistrict,
			Address:         f.SuggestedAddress,
			Lat:             f.SuggestedLat,
			Lng:             f.SuggestedLng,
			AdditionalNotes: f.AdditionalNotes,
		}, nil
	case domain.TicketTypeOrganizationFeedback:
		return domain.OrganizationFeedback{
			Stars:    f.FeedbackStars,
			LabelIDs: f.FeedbackLabelIDs,
			Text:     f.FeedbackText,
		}, nil
	default:
		return nil, fmt.Errorf("unknown ticket_type %q", t)
	}
}

func fieldsFromDetails(d domain.TicketDetails) TicketFields {
	switch v := d.(type) {
	case domain.AccessRequest:
		return TicketFields{Message: v.Message}
	case domain.OrganizationSuggestion:
		return TicketFields{
			Description:       v.Description,
			SuggestedDistrict: v.District,
			SuggestedAddress:  v.Address,
			SuggestedLat:      v.Lat,
			SuggestedLng:      v.Lng,
			AdditionalNotes:   v.AdditionalNotes,
		}
	case domain.OrganizationFeedback:
		return TicketFields{
			FeedbackStars:    v.Stars,
			FeedbackLabelIDs: v.LabelIDs,
			FeedbackText:     v.Text,
		}
	}
	return TicketFields{}
}

// FromTicket flattens a domain ticket.
func FromTicket(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID,
		TicketID:         t.TicketID,
		TicketType:       t.Type(),
		Status:           t.Status,
		OrganizationName: t.OrganizationName,
		OrganizationID:   t.OrganizationID,
		SubmitterID:      t.SubmitterID,
		SubmitterEmail:   t.SubmitterEmail,
		CreatedAt:        t.CreatedAt,
		ReviewedAt:       t.ReviewedAt,
		ReviewedBy:       t.ReviewedBy,
		AdminNotes:       t.AdminNotes,
		TicketFields:     fieldsFromDetails(t.Details),
	}
}

// FromTickets flattens a list. The result is never nil.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, FromTicket(t))
	}
	return out
}

// ToDomain rebuilds the tagged ticket. Fields not meaningful for the type are dropped.
func (r TicketResponse) ToDomain() (domain.Ticket, error) {
	details, err := r.TicketFields.toDetails(r.TicketType)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !r.Status.Valid() {
		return domain.Ticket{}, fmt.Errorf("unknown status %q", r.Status)
	}
	return domain.Ticket{
		ID:               r.ID,
		TicketID:         r.TicketID,
		Status:           r.Status,
		OrganizationName: r.OrganizationName,
		OrganizationID:   r.OrganizationID,
		SubmitterID:      r.SubmitterID,
		SubmitterEmail:   r.SubmitterEmail,
		Details:          details,
		CreatedAt:        r.CreatedAt,
		ReviewedAt:       r.ReviewedAt,
		ReviewedBy:       r.ReviewedBy,
		AdminNotes:       r.AdminNotes,
	}, nil
}

// FromHistory converts audit entries.
func FromHistory(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:          e.ID,
			ChangedByID: e.ChangedByID,
			ChangeType:  e.ChangeType,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
