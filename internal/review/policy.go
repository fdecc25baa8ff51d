package review

import (
	"strings"

	"github.com/kidsact/admin-console/internal/domain"
)

// ResolutionKind is the shape of the organization side effect of a review.
type ResolutionKind int

const (
	// ResolutionNone leaves organizations untouched.
	ResolutionNone ResolutionKind = iota
	// ResolutionLinkExisting attaches the submitter to an existing organization.
	ResolutionLinkExisting
	// ResolutionCreateNew creates an organization from the ticket.
	ResolutionCreateNew
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionLinkExisting:
		return "link_existing"
	case ResolutionCreateNew:
		return "create_new"
	default:
		return "none"
	}
}

// Resolution is the output of the organization resolution policy.
type Resolution struct {
	Kind           ResolutionKind
	OrganizationID string
}

// ResolveOrganization decides which organization side effect a decision has.
// Reject always resolves to ResolutionNone, whatever organization fields are
// left over from an earlier approve attempt in the same form.
func ResolveOrganization(ticketType domain.TicketType, d Decision) (Resolution, error) {
	if !d.Action.Valid() {
		return Resolution{}, invalid(CodeInvalidAction)
	}
	if d.Action == ActionReject {
		return Resolution{Kind: ResolutionNone}, nil
	}

	switch ticketType {
	case domain.TicketTypeAccessRequest:
		switch d.OrganizationMode {
		case OrganizationModeExisting:
			orgID := strings.TrimSpace(d.OrganizationID)
			if orgID == "" {
				return Resolution{}, invalid(CodeOrganizationIDRequired)
			}
			return Resolution{Kind: ResolutionLinkExisting, OrganizationID: orgID}, nil
		case OrganizationModeNew:
			return Resolution{Kind: ResolutionCreateNew}, nil
		default:
			return Resolution{}, invalid(CodeOrganizationModeRequired)
		}
	case domain.TicketTypeOrganizationSuggestion, domain.TicketTypeOrganizationFeedback:
		if d.CreateOrganization {
			return Resolution{Kind: ResolutionCreateNew}, nil
		}
		return Resolution{Kind: ResolutionNone}, nil
	default:
		return Resolution{}, invalid(CodeUnknownTicketType)
	}
}
