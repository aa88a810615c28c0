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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, company_id, name, tax_id, address, city, country, email, phone, created_at, updated_at`

// Create inserta un cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name, c.TaxID, nullIfEmpty(c.Address), nullIfEmpty(c.City), c.Country,
		nullIfEmpty(c.Email), nullIfEmpty(c.Phone), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cliente %s", domain.ErrDuplicate, c.TaxID)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByTaxID busca un cliente por NIF; nil, nil si no existe.
func (r *CustomerRepo) GetByTaxID(ctx context.Context, tenantID, taxID string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND tax_id = $2 LIMIT 1`
	c, err := scanCustomer(r.q.QueryRow(ctx, query, tenantID, taxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// List clientes de la empresa ordenados por nombre.
func (r *CustomerRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	return r.list(ctx, query, tenantID, limit, offset)
}

// GetByID obtiene un cliente de la empresa; nil, nil si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND id = $2`
	c, err := scanCustomer(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListByIDs devuelve los clientes encontrados ordenados por nombre.
func (r *CustomerRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND id = ANY($2) ORDER BY name`
	return r.list(ctx, query, tenantID, ids)
}

func (r *CustomerRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Customer, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	var address, city, email, phone *string
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &address, &city, &c.Country, &email, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.Address = derefStr(address)
	c.City = derefStr(city)
	c.Email = derefStr(email)
	c.Phone = derefStr(phone)
	return &c, nil
}
