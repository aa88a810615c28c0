package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación de CompanyRepository (usable con pool o tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene una empresa por ID; nil, nil si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, nif, address, city, country, phone, email, software_validation_number, status, created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	var address, city, phone, email, swNumber *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.NIF, &address, &city, &c.Country, &phone, &email, &swNumber, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.Address = derefStr(address)
	c.City = derefStr(city)
	c.Phone = derefStr(phone)
	c.Email = derefStr(email)
	c.SoftwareValidationNumber = derefStr(swNumber)
	return &c, nil
}

// Save inserta o actualiza la empresa por ID.
func (r *CompanyRepo) Save(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, nif, address, city, country, phone, email, software_validation_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, nif = EXCLUDED.nif, address = EXCLUDED.address, city = EXCLUDED.city,
			country = EXCLUDED.country, phone = EXCLUDED.phone, email = EXCLUDED.email,
			software_validation_number = EXCLUDED.software_validation_number, status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.NIF, nullIfEmpty(c.Address), nullIfEmpty(c.City), c.Country,
		nullIfEmpty(c.Phone), nullIfEmpty(c.Email), nullIfEmpty(c.SoftwareValidationNumber), c.Status,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: NIF %s", domain.ErrDuplicate, c.NIF)
		}
		return fmt.Errorf("save company: %w", err)
	}
	return nil
}
