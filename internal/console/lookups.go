package console

import (
	"context"
	"sync"

	"github.com/kidsact/admin-console/internal/domain"
)

// ReferenceAPI serves the collections the review modal picks from.
type ReferenceAPI interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	ListFeedbackLabels(ctx context.Context) ([]domain.FeedbackLabel, error)
}

// UserDirectory resolves user ids for display.
type UserDirectory interface {
	LookupUsers(ctx context.Context, ids []string) ([]domain.User, error)
}

// OrganizationOption is one entry of the organization picker.
type OrganizationOption struct {
	ID           string
	Name         string
	ManagerEmail string
}

// Lookups memoizes reference data for the lifetime of one console session.
// It is created by the composition root and handed to whoever needs it.
type Lookups struct {
	ref   ReferenceAPI
	users UserDirectory

	mu      sync.Mutex
	options []OrganizationOption
	labels  map[string]string
}

// NewLookups builds the lookup service. users may be nil.
func NewLookups(ref ReferenceAPI, users UserDirectory) *Lookups {
	return &Lookups{ref: ref, users: users}
}

// OrganizationOptions lists organizations with their manager email when known.
// Directory failures only leave emails blank.
func (l *Lookups) OrganizationOptions(ctx context.Context) ([]OrganizationOption, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.options != nil {
		return append([]OrganizationOption(nil), l.options...), nil
	}

	orgs, err := l.ref.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	emails := l.managerEmails(ctx, orgs)

	options := make([]OrganizationOption, 0, len(orgs))
	for _, o := range orgs {
		opt := OrganizationOption{ID: o.ID, Name: o.Name}
		if o.ManagerID != nil {
			opt.ManagerEmail = emails[*o.ManagerID]
		}
		options = append(options, opt)
	}
	l.options = options
	return append([]OrganizationOption(nil), options...), nil
}

// lookupBatchSize matches the server's per-request id limit.
const lookupBatchSize = 100

func (l *Lookups) managerEmails(ctx context.Context, orgs []domain.Organization) map[string]string {
	emails := map[string]string{}
	if l.users == nil {
		return emails
	}
	seen := make(map[string]struct{}, len(orgs))
	var ids []string
	for _, o := range orgs {
		if o.ManagerID == nil || *o.ManagerID == "" {
			continue
		}
		if _, dup := seen[*o.ManagerID]; dup {
			continue
		}
		seen[*o.ManagerID] = struct{}{}
		ids = append(ids, *o.ManagerID)
	}
	for start := 0; start < len(ids); start += lookupBatchSize {
		end := min(start+lookupBatchSize, len(ids))
		users, err := l.users.LookupUsers(ctx, ids[start:end])
		if err != nil {
			// A failed batch only blanks its own emails.
			continue
		}
		for _, u := range users {
			emails[u.ID] = u.Email
		}
	}
	return emails
}

// LabelNames maps feedback label ids to names. Unknown ids are returned as is.
func (l *Lookups) LabelNames(ctx context.Context, ids []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.labels == nil {
		labels, err := l.ref.ListFeedbackLabels(ctx)
		if err != nil {
			return nil, err
		}
		l.labels = make(map[string]string, len(labels))
		for _, label := range labels {
			l.labels[label.ID] = label.Name
		}
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := l.labels[id]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, id)
	}
	return names, nil
}

// Refresh forgets memoized data.
func (l *Lookups) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.options = nil
	l.labels = nil
}
