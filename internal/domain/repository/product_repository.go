package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	// Create devuelve domain.ErrDuplicate si el código ya existe en la empresa.
	Create(ctx context.Context, p *entity.Product) error
	// ListByCodes devuelve los productos de la empresa con esos códigos.
	ListByCodes(ctx context.Context, tenantID string, codes []string) ([]*entity.Product, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error)
}
