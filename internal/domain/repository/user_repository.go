package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User. El email es único en todo el sistema.
type UserRepository interface {
	// Create devuelve domain.ErrDuplicate si el email ya existe.
	Create(ctx context.Context, u *entity.User) error
	// FindByEmail devuelve nil, nil si no existe.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error)
}
