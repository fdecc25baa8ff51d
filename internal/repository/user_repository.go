package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/domain"
)

// UserRepository persists identity-provider users and their console roles.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// Upsert inserts the user or refreshes email and name. An existing role is kept.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, role)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET email=EXCLUDED.email, name=EXCLUDED.name, updated_at=NOW()
        RETURNING role, created_at, updated_at`

	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		role,
	).Scan(&user.Role, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`, role, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, role, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, email, name, role, created_at, updated_at
        FROM users WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
