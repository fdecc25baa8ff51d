// Package review turns a reviewer's decision on a pending ticket into the
// request payload sent to the review endpoint, and interprets that payload
// on the receiving side with the same organization resolution rules.
package review

import "strings"

// Action is the reviewer's verdict.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Valid reports whether the action is approve or reject.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// OrganizationMode is how an approved access request resolves its organization.
type OrganizationMode string

const (
	OrganizationModeUnset    OrganizationMode = ""
	OrganizationModeExisting OrganizationMode = "existing"
	OrganizationModeNew      OrganizationMode = "new"
)

// Decision is the reviewer's input for one review attempt. It is built fresh
// when the review form opens and discarded after submission.
type Decision struct {
	Action             Action
	AdminNotes         string
	OrganizationMode   OrganizationMode
	OrganizationID     string
	CreateOrganization bool
}

func (d Decision) notes() *string {
	notes := strings.TrimSpace(d.AdminNotes)
	if notes == "" {
		return nil
	}
	return &notes
}
