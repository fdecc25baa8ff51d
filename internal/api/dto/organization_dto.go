package dto

import (
	"time"

	"github.com/kidsact/admin-console/internal/domain"
)

// OrganizationResponse is the reference view of an organization.
type OrganizationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	District    string    `json:"district,omitempty"`
	Address     string    `json:"address,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	ManagerID   *string   `json:"manager_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedbackLabelResponse is one feedback label.
type FeedbackLabelResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FromOrganizations converts organizations. The result is never nil.
func FromOrganizations(orgs []domain.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, OrganizationResponse{
			ID:          o.ID,
			Name:        o.Name,
			Description: o.Description,
			District:    o.District,
			Address:     o.Address,
			Lat:         o.Lat,
			Lng:         o.Lng,
			ManagerID:   o.ManagerID,
			CreatedAt:   o.CreatedAt,
		})
	}
	return out
}

// ToDomain converts back to a domain organization.
func (o OrganizationResponse) ToDomain() domain.Organization {
	return domain.Organization{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		District:    o.District,
		Address:     o.Address,
		Lat:         o.Lat,
		Lng:         o.Lng,
		ManagerID:   o.ManagerID,
		CreatedAt:   o.CreatedAt,
	}
}

// FromFeedbackLabels converts labels. The result is never nil.
func FromFeedbackLabels(labels []domain.FeedbackLabel) []FeedbackLabelResponse {
	out := make([]FeedbackLabelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, FeedbackLabelResponse{ID: l.ID, Name: l.Name})
	}
	return out
}
