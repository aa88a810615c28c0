package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// SeriesRepository define el puerto de persistencia para FiscalSeries.
type SeriesRepository interface {
	Create(ctx context.Context, s *entity.FiscalSeries) error
	// Get devuelve nil, nil si la serie no existe.
	Get(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error)
	// GetForUpdate lee la serie tomando un lock exclusivo de fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error)
	// Advance es un compare-and-swap: solo actualiza si LastHash/LastNumber siguen siendo los
	// esperados. Si otro escritor avanzó la serie devuelve domain.ErrChainConflict.
	Advance(ctx context.Context, tenantID, code, expectedHash string, expectedNumber int64, newHash string, newNumber int64) error
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.FiscalSeries, error)
}
