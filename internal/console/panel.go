package console

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/review"
)

// API is the part of the backend the panel depends on.
type API interface {
	ListTickets(ctx context.Context, q ListQuery) (Page, error)
	ReviewTicket(ctx context.Context, id string, payload review.Payload) (domain.Ticket, error)
}

// Filter is the panel's list filter. Nil fields match everything.
type Filter struct {
	Status *domain.TicketStatus
	Type   *domain.TicketType
	Search string
}

// Modal is the open review: the ticket, the decision draft and the last error.
type Modal struct {
	Ticket domain.Ticket
	Draft  review.Decision
	Error  string
}

// Panel is the state behind the ticket review screen.
type Panel struct {
	api      API
	pageSize int

	mu           sync.Mutex
	generation   uint64
	filter       Filter
	tickets      []domain.Ticket
	nextCursor   string
	pendingCount int
	loading      bool
	banner       string
	modal        *Modal

	inFlight atomic.Bool
}

// NewPanel builds an empty panel. Call Reload to fetch the first page.
func NewPanel(api API, pageSize int) *Panel {
	return &Panel{api: api, pageSize: pageSize}
}

// Reload discards loaded pages and fetches the first page for the current filter.
func (p *Panel) Reload(ctx context.Context) error {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	q := p.queryLocked("")
	p.loading = true
	p.mu.Unlock()

	page, err := p.api.ListTickets(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		// a newer reload owns the list
		return nil
	}
	p.loading = false
	if err != nil {
		p.banner = ErrorMessage(err)
		return err
	}
	p.banner = ""
	p.tickets = page.Items
	p.nextCursor = page.NextCursor
	p.pendingCount = page.PendingCount
	return nil
}

// LoadMore appends the next page. It is a no-op when there is none.
func (p *Panel) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.nextCursor == "" || p.loading {
		p.mu.Unlock()
		return nil
	}
	gen := p.generation
	q := p.queryLocked(p.nextCursor)
	p.loading = true
	p.mu.Unlock()

	page, err := p.api.ListTickets(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.loading = false
	if err != nil {
		p.banner = ErrorMessage(err)
		return err
	}
	p.banner = ""
	p.tickets = append(p.tickets, page.Items...)
	p.nextCursor = page.NextCursor
	p.pendingCount = page.PendingCount
	return nil
}

func (p *Panel) queryLocked(cursor string) ListQuery {
	return ListQuery{
		Type:   p.filter.Type,
		Status: p.filter.Status,
		Cursor: cursor,
		Limit:  p.pageSize,
	}
}

// SetStatusFilter changes the status filter and reloads from the first page.
func (p *Panel) SetStatusFilter(ctx context.Context, status *domain.TicketStatus) error {
	p.mu.Lock()
	p.filter.Status = status
	p.mu.Unlock()
	return p.Reload(ctx)
}

// SetTypeFilter changes the type filter and reloads from the first page.
func (p *Panel) SetTypeFilter(ctx context.Context, ticketType *domain.TicketType) error {
	p.mu.Lock()
	p.filter.Type = ticketType
	p.mu.Unlock()
	return p.Reload(ctx)
}

// SetSearch changes the search query. Only already loaded tickets are searched.
func (p *Panel) SetSearch(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Search = query
}

// Visible returns the loaded tickets matching the search query.
func (p *Panel) Visible() []domain.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	query := strings.ToLower(strings.TrimSpace(p.filter.Search))
	out := make([]domain.Ticket, 0, len(p.tickets))
	for _, t := range p.tickets {
		if query == "" || matches(t, query) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t domain.Ticket, query string) bool {
	fields := []string{t.TicketID, t.OrganizationName, t.SubmitterEmail, string(t.Type())}
	switch d := t.Details.(type) {
	case domain.AccessRequest:
		fields = append(fields, d.Message)
	case domain.OrganizationSuggestion:
		fields = append(fields, d.Description, d.District, d.Address)
	case domain.OrganizationFeedback:
		fields = append(fields, d.Text)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Tickets returns a copy of every loaded ticket.
func (p *Panel) Tickets() []domain.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Ticket(nil), p.tickets...)
}

// Filter returns the current filter.
func (p *Panel) Filter() Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// PendingCount is the global pending aggregate from the last load.
func (p *Panel) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingCount
}

// HasMore reports whether LoadMore would fetch anything.
func (p *Panel) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextCursor != ""
}

// Loading reports whether a list request is running.
func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Banner is the last list-level error message.
func (p *Panel) Banner() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.banner
}

// Submitting reports whether a review submit is running.
func (p *Panel) Submitting() bool {
	return p.inFlight.Load()
}

// OpenReview opens the modal for a loaded pending ticket with a fresh draft.
func (p *Panel) OpenReview(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight.Load() {
		return ErrReviewInFlight
	}
	for _, t := range p.tickets {
		if t.ID != id {
			continue
		}
		if !t.IsPending() {
			return ErrNotReviewable
		}
		p.modal = &Modal{Ticket: t}
		return nil
	}
	return ErrTicketNotLoaded
}

// Modal returns a copy of the open review.
func (p *Panel) Modal() (Modal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modal == nil {
		return Modal{}, false
	}
	return *p.modal, true
}

// UpdateDraft edits the open review's decision draft.
func (p *Panel) UpdateDraft(fn func(*review.Decision)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modal == nil {
		return ErrNoReview
	}
	fn(&p.modal.Draft)
	return nil
}

// CloseReview discards the modal and its draft. It cannot interrupt a submit.
func (p *Panel) CloseReview() error {
	if p.inFlight.Load() {
		return ErrReviewInFlight
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modal = nil
	return nil
}

// SubmitReview validates the draft, sends it, merges the returned ticket into
// the list, closes the modal and reloads the list. On any failure the modal
// stays open with its draft, the error is shown in it, and the list is untouched.
func (p *Panel) SubmitReview(ctx context.Context) (domain.Ticket, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return domain.Ticket{}, ErrReviewInFlight
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	if p.modal == nil {
		p.mu.Unlock()
		return domain.Ticket{}, ErrNoReview
	}
	ticket := p.modal.Ticket
	draft := p.modal.Draft
	payload, err := review.BuildPayload(&ticket, draft)
	if err != nil {
		p.modal.Error = ErrorMessage(err)
		p.mu.Unlock()
		return domain.Ticket{}, err
	}
	p.modal.Error = ""
	p.mu.Unlock()

	updated, err := p.api.ReviewTicket(ctx, ticket.ID, payload)
	if err != nil {
		p.mu.Lock()
		if p.modal != nil {
			p.modal.Error = ErrorMessage(err)
		}
		p.mu.Unlock()
		return domain.Ticket{}, err
	}

	p.mu.Lock()
	p.tickets, _ = review.MergeTicket(p.tickets, updated)
	p.modal = nil
	p.mu.Unlock()

	// The review is committed; a failed reload only leaves the list banner set.
	_ = p.Reload(ctx)
	return updated, nil
}
