package review

import "fmt"

// Validation codes surfaced to reviewers.
const (
	CodeInvalidAction              = "invalid_action"
	CodeOrganizationIDRequired     = "organization_id_required"
	CodeOrganizationModeRequired   = "organization_mode_required"
	CodeOrganizationFieldsConflict = "organization_fields_conflict"
	CodeOrganizationIDNotAllowed   = "organization_id_not_allowed"
	CodeOrganizationFieldsOnReject = "organization_fields_on_reject"
	CodeTicketNotPending           = "ticket_not_pending"
	CodeUnknownTicketType          = "unknown_ticket_type"

	// Only the server can detect these.
	CodeOrganizationNotFound     = "organization_not_found"
	CodeOrganizationNameRequired = "organization_name_required"
)

var descriptions = map[string]string{
	CodeInvalidAction:              "Choose approve or reject.",
	CodeOrganizationIDRequired:     "Select an existing organization or choose to create a new one.",
	CodeOrganizationModeRequired:   "Choose whether to link an existing organization or create a new one.",
	CodeOrganizationFieldsConflict: "Link an existing organization or create a new one, not both.",
	CodeOrganizationIDNotAllowed:   "Only access requests can be linked to an existing organization.",
	CodeOrganizationFieldsOnReject: "Organization choices only apply when approving.",
	CodeTicketNotPending:           "This ticket has already been reviewed.",
	CodeUnknownTicketType:          "This ticket type cannot be reviewed.",
	CodeOrganizationNotFound:       "The selected organization no longer exists.",
	CodeOrganizationNameRequired:   "The ticket has no organization name to create from.",
}

// Describe returns the reviewer-facing sentence for a validation code.
func Describe(code string) (string, bool) {
	msg, ok := descriptions[code]
	return msg, ok
}

// ValidationError is a local, pre-submission failure. It never reaches the network.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("review validation failed: %s", e.Code)
}

func invalid(code string) error {
	return &ValidationError{Code: code}
}
