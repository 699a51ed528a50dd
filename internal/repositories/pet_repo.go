package repositories

import (
	"context"
	"fmt"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PetRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Pet, error)
	GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Pet, error)
	Update(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error
	SetPhoto(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, customerID *uuid.UUID, limit, offset int) ([]*models.Pet, int, error)
	CountOwnedBy(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, petIDs []uuid.UUID) (int, error)
}

type petRepo struct {
	db DB
}

func NewPetRepo(db DB) PetRepository {
	return &petRepo{db: db}
}

const petColumns = `id, tenant_id, customer_id, name, species, breed, birth_date, weight_kg, medical_notes,
	photo_object_key, external_id, is_active, created_at, updated_at`

func scanPet(row pgx.Row) (*models.Pet, error) {
	p := &models.Pet{}
	err := row.Scan(&p.ID, &p.TenantID, &p.CustomerID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.WeightKg,
		&p.MedicalNotes, &p.PhotoObjectKey, &p.ExternalID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *petRepo) Create(ctx context.Context, scope tenancy.Scope, p *models.Pet) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	p.TenantID = tenantID
	query := `
		INSERT INTO pets (id, tenant_id, customer_id, name, species, breed, birth_date, weight_kg, medical_notes,
		                  external_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, p.ID, tenantID, p.CustomerID, p.Name, p.Species, p.Breed, p.BirthDate, p.WeightKg,
		p.MedicalNotes, p.ExternalID, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err, common.ErrPetNotFound)
}

func (r *petRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Pet, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p, err := scanPet(r.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrPetNotFound)
	}
	return p, nil
}

func (r *petRepo) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Pet, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p, err := scanPet(r.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID))
	if err != nil {
		return nil, mapErr(err, common.ErrPetNotFound)
	}
	return p, nil
}

func (r *petRepo) Update(ctx context.Context, scope tenancy.Scope, p *models.Pet) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE pets
		SET customer_id = $1, name = $2, species = $3, breed = $4, birth_date = $5, weight_kg = $6,
		    medical_notes = $7, is_active = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
	`
	tag, err := r.db.Exec(ctx, query, p.CustomerID, p.Name, p.Species, p.Breed, p.BirthDate, p.WeightKg,
		p.MedicalNotes, p.IsActive, tenantID, p.ID)
	if err != nil {
		return mapErr(err, common.ErrPetNotFound)
	}
	return affected(tag, common.ErrPetNotFound)
}

func (r *petRepo) SetPhoto(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE pets SET photo_object_key = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		objectKey, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrPetNotFound)
}

func (r *petRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE pets SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrPetNotFound)
}

func (r *petRepo) List(ctx context.Context, scope tenancy.Scope, customerID *uuid.UUID, limit, offset int) ([]*models.Pet, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	where := `WHERE tenant_id = $1 AND is_active = TRUE`
	args := []any{tenantID}
	if customerID != nil {
		args = append(args, *customerID)
		where += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pets `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM pets %s ORDER BY name, id LIMIT $%d OFFSET $%d`, petColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pets := []*models.Pet{}
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, 0, err
		}
		pets = append(pets, p)
	}
	return pets, total, rows.Err()
}

// CountOwnedBy counts how many of petIDs are active pets of the customer.
func (r *petRepo) CountOwnedBy(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, petIDs []uuid.UUID) (int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pets WHERE tenant_id = $1 AND customer_id = $2 AND id = ANY($3) AND is_active = TRUE`,
		tenantID, customerID, petIDs).Scan(&n)
	return n, err
}
