package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/domain"
)

// TicketFilter captures list parameters. Nil fields do not filter.
type TicketFilter struct {
	Type        *domain.TicketType
	Status      *domain.TicketStatus
	SubmitterID *string
	After       *Cursor
	Limit       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountPending(ctx context.Context) (int, error)
	MarkReviewed(ctx context.Context, ticket *domain.Ticket) (bool, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, ticket_id, ticket_type, status, organization_name, organization_id,
               submitter_id, submitter_email, details, admin_notes, reviewed_at, reviewed_by, created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	details, err := json.Marshal(ticket.Details)
	if err != nil {
		return fmt.Errorf("encode ticket details: %w", err)
	}
	const query = `
        INSERT INTO tickets (ticket_id, ticket_type, status, organization_name, submitter_id, submitter_email, details)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.Type(),
		ticket.Status,
		ticket.OrganizationName,
		ticket.SubmitterID,
		ticket.SubmitterEmail,
		details,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("ticket_type=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE status='pending'`).Scan(&count)
	return count, err
}

// MarkReviewed persists the review outcome only while the stored row is
// still pending. It reports false when another review got there first.
func (r *ticketRepository) MarkReviewed(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, organization_id=$2, admin_notes=$3, reviewed_at=$4, reviewed_by=$5
        WHERE id=$6 AND status='pending'`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.OrganizationID,
		ticket.AdminNotes,
		ticket.ReviewedAt,
		ticket.ReviewedBy,
		ticket.ID,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		ticketType domain.TicketType
		details    []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticketType,
		&ticket.Status,
		&ticket.OrganizationName,
		&ticket.OrganizationID,
		&ticket.SubmitterID,
		&ticket.SubmitterEmail,
		&details,
		&ticket.AdminNotes,
		&ticket.ReviewedAt,
		&ticket.ReviewedBy,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := domain.DecodeDetails(ticketType, details)
	if err != nil {
		return nil, fmt.Errorf("decode details of ticket %s: %w", ticket.ID, err)
	}
	ticket.Details = decoded
	return &ticket, nil
}
