package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories that share one transaction.
type Repositories struct {
	Tickets       TicketRepository
	Organizations OrganizationRepository
	Users         UserRepository
	History       TicketHistoryRepository
}

// Store runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// NewRepositories binds every repository to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:       NewTicketRepository(db),
		Organizations: NewOrganizationRepository(db),
		Users:         NewUserRepository(db),
		History:       NewTicketHistoryRepository(db),
	}
}
