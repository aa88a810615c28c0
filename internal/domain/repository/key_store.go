package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// KeyStore guarda el KeyPair de cada empresa fuera de la base de datos de negocio
// (archivo protegido, gestor de secretos...).
type KeyStore interface {
	// Get devuelve nil, nil si la empresa no tiene llaves.
	Get(ctx context.Context, tenantID string) (*entity.KeyPair, error)
	// Create guarda el par; devuelve domain.ErrAlreadyExists si ya existe (nunca sobrescribe).
	Create(ctx context.Context, kp *entity.KeyPair) error
}
