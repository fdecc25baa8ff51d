// Package repotest provides an in-memory implementation of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/repository"
)

// Memory holds every table in maps. The zero value is not usable; call New.
type Memory struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq     int
	clock   time.Time
	tickets map[string]domain.Ticket
	orgs    map[string]domain.Organization
	users   map[string]domain.User
	labels  []domain.FeedbackLabel
	history []domain.TicketHistory

	// ListErr, when set, is returned by every ticket List call.
	ListErr error
	// HistoryErr, when set, is returned by every history Create call.
	HistoryErr error
}

// New returns an empty store whose clock starts at start.
func New(start time.Time) *Memory {
	return &Memory{
		clock:   start,
		tickets: make(map[string]domain.Ticket),
		orgs:    make(map[string]domain.Organization),
		users:   make(map[string]domain.User),
	}
}

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// Repositories returns repositories operating outside any transaction.
func (m *Memory) Repositories() repository.Repositories {
	return repository.Repositories{
		Tickets:       ticketRepo{m},
		Organizations: orgRepo{m},
		Users:         userRepo{m},
		History:       historyRepo{m},
	}
}

// Labels returns the feedback label repository.
func (m *Memory) Labels() repository.FeedbackLabelRepository {
	return labelRepo{m}
}

// WithinTx runs fn serially and restores the previous state when fn fails.
func (m *Memory) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m.Repositories()); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type state struct {
	tickets map[string]domain.Ticket
	orgs    map[string]domain.Organization
	users   map[string]domain.User
	history []domain.TicketHistory
}

func (m *Memory) snapshot() state {
	s := state{
		tickets: make(map[string]domain.Ticket, len(m.tickets)),
		orgs:    make(map[string]domain.Organization, len(m.orgs)),
		users:   make(map[string]domain.User, len(m.users)),
		history: append([]domain.TicketHistory(nil), m.history...),
	}
	for k, v := range m.tickets {
		s.tickets[k] = v
	}
	for k, v := range m.orgs {
		s.orgs[k] = v
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	return s
}

func (m *Memory) restore(s state) {
	m.tickets = s.tickets
	m.orgs = s.orgs
	m.users = s.users
	m.history = s.history
}

// PutTicket stores t as is, assigning an id and creation time when missing.
func (m *Memory) PutTicket(t domain.Ticket) domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = m.nextID("ticket")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.tick()
	}
	m.tickets[t.ID] = t
	return t
}

// PutOrganization stores o, assigning an id when missing.
func (m *Memory) PutOrganization(o domain.Organization) domain.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = m.nextID("org")
	}
	m.orgs[o.ID] = o
	return o
}

// PutUser stores u.
func (m *Memory) PutUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// PutLabel appends a feedback label.
func (m *Memory) PutLabel(l domain.FeedbackLabel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = append(m.labels, l)
}

// Ticket returns the stored ticket.
func (m *Memory) Ticket(id string) (domain.Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	return t, ok
}

// TicketCount reports how many tickets are stored.
func (m *Memory) TicketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// Organization returns the stored organization.
func (m *Memory) Organization(id string) (domain.Organization, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	return o, ok
}

// OrganizationCount returns how many organizations exist.
func (m *Memory) OrganizationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orgs)
}

// User returns the stored user.
func (m *Memory) User(id string) (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok
}

// History returns the audit entries of a ticket in insertion order.
func (m *Memory) History(ticketID string) []domain.TicketHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range m.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out
}

type ticketRepo struct{ m *Memory }

func (r ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = r.m.nextID("ticket")
	t.CreatedAt = r.m.tick()
	r.m.tickets[t.ID] = *t
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r ticketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.ListErr != nil {
		return nil, r.m.ListErr
	}
	var out []domain.Ticket
	for _, t := range r.m.tickets {
		if f.Type != nil && t.Type() != *f.Type {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.SubmitterID != nil && t.SubmitterID != *f.SubmitterID {
			continue
		}
		if f.After != nil && !before(t, *f.After) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[j], repository.Cursor{CreatedAt: out[i].CreatedAt, ID: out[i].ID})
	})
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// before reports whether t sorts after c in (created_at DESC, id DESC) order.
func before(t domain.Ticket, c repository.Cursor) bool {
	if !t.CreatedAt.Equal(c.CreatedAt) {
		return t.CreatedAt.Before(c.CreatedAt)
	}
	return t.ID < c.ID
}

func (r ticketRepo) CountPending(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, t := range r.m.tickets {
		if t.Status == domain.TicketStatusPending {
			n++
		}
	}
	return n, nil
}

func (r ticketRepo) MarkReviewed(_ context.Context, t *domain.Ticket) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.tickets[t.ID]
	if !ok || stored.Status != domain.TicketStatusPending {
		return false, nil
	}
	stored.Status = t.Status
	stored.OrganizationID = t.OrganizationID
	stored.AdminNotes = t.AdminNotes
	stored.ReviewedAt = t.ReviewedAt
	stored.ReviewedBy = t.ReviewedBy
	r.m.tickets[t.ID] = stored
	return true, nil
}

type orgRepo struct{ m *Memory }

func (r orgRepo) Create(_ context.Context, o *domain.Organization) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o.ID = r.m.nextID("org")
	o.CreatedAt = r.m.tick()
	o.UpdatedAt = o.CreatedAt
	r.m.orgs[o.ID] = *o
	return nil
}

func (r orgRepo) AssignManager(_ context.Context, orgID, managerID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orgs[orgID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.ManagerID = &managerID
	r.m.orgs[orgID] = o
	return nil
}

func (r orgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &o, nil
}

func (r orgRepo) List(context.Context) ([]domain.Organization, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]domain.Organization, 0, len(r.m.orgs))
	for _, o := range r.m.orgs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type userRepo struct{ m *Memory }

func (r userRepo) Upsert(_ context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, ok := r.m.users[u.ID]; ok {
		existing.Email = u.Email
		existing.Name = u.Name
		r.m.users[u.ID] = existing
		u.Role = existing.Role
		return nil
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.CreatedAt = r.m.tick()
	u.UpdatedAt = u.CreatedAt
	r.m.users[u.ID] = *u
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	r.m.users[id] = u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r userRepo) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type historyRepo struct{ m *Memory }

func (r historyRepo) Create(_ context.Context, h *domain.TicketHistory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.HistoryErr != nil {
		return r.m.HistoryErr
	}
	h.ID = r.m.nextID("history")
	h.CreatedAt = r.m.tick()
	r.m.history = append(r.m.history, *h)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range r.m.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type labelRepo struct{ m *Memory }

func (r labelRepo) List(context.Context) ([]domain.FeedbackLabel, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]domain.FeedbackLabel(nil), r.m.labels...), nil
}
