package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Customer, error)
	// GetByTaxID devuelve nil, nil si la empresa no tiene un cliente con ese NIF.
	GetByTaxID(ctx context.Context, tenantID, taxID string) (*entity.Customer, error)
	// ListByIDs devuelve los clientes encontrados; los IDs inexistentes se omiten.
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Customer, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error)
}
