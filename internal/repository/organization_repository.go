package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kidsact/admin-console/internal/domain"
)

// OrganizationRepository manages organization persistence.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	AssignManager(ctx context.Context, orgID, managerID string) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

type organizationRepository struct {
	db DBTX
}

// NewOrganizationRepository builds the repository.
func NewOrganizationRepository(db DBTX) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (name, description, district, address, lat, lng, manager_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		org.Name,
		org.Description,
		org.District,
		org.Address,
		org.Lat,
		org.Lng,
		org.ManagerID,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) AssignManager(ctx context.Context, orgID, managerID string) error {
	const query = `UPDATE organizations SET manager_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, managerID, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
        SELECT id, name, description, district, address, lat, lng, manager_id, created_at, updated_at
        FROM organizations WHERE id=$1`
	var org domain.Organization
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.District,
		&org.Address,
		&org.Lat,
		&org.Lng,
		&org.ManagerID,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	const query = `
        SELECT id, name, description, district, address, lat, lng, manager_id, created_at, updated_at
        FROM organizations ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.District, &org.Address,
			&org.Lat, &org.Lng, &org.ManagerID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}
