package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company.
type CompanyRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	// Save crea o actualiza la empresa (upsert por ID). NIF duplicado: domain.ErrDuplicate.
	Save(ctx context.Context, c *entity.Company) error
}
