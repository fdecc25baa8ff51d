package review

import "github.com/kidsact/admin-console/internal/domain"

// MergeTicket returns a copy of list with the entry whose ID matches updated
// replaced at the same index. Order and length never change, so merging the
// same ticket twice equals merging it once. The bool reports whether a match
// was found.
func MergeTicket(list []domain.Ticket, updated domain.Ticket) ([]domain.Ticket, bool) {
	merged := make([]domain.Ticket, len(list))
	copy(merged, list)
	for i := range merged {
		if merged[i].ID == updated.ID {
			merged[i] = updated
			return merged, true
		}
	}
	return merged, false
}
