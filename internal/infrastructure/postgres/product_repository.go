package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, code, type, description, COALESCE(barcode, ''), COALESCE(unit_measure, ''),
	price, COALESCE(tax_code, ''), tax_rate, created_at, updated_at`

// Create inserta un producto; código duplicado en la empresa: domain.ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, company_id, code, type, description, barcode, unit_measure, price, tax_code, tax_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Code, p.Type, p.Description, nullIfEmpty(p.Barcode), nullIfEmpty(p.UnitMeasure),
		p.Price, nullIfEmpty(p.TaxCode), p.TaxRate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// ListByCodes devuelve los productos de la empresa con esos códigos, ordenados por código.
func (r *ProductRepo) ListByCodes(ctx context.Context, tenantID string, codes []string) ([]*entity.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE company_id = $1 AND code = ANY($2) ORDER BY code`
	rows, err := r.q.Query(ctx, query, tenantID, codes)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

// List productos de la empresa ordenados por código.
func (r *ProductRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE company_id = $1 ORDER BY code LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Type, &p.Description, &p.Barcode, &p.UnitMeasure,
			&p.Price, &p.TaxCode, &p.TaxRate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
