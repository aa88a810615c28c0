package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository, indexada por email.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

// NewUserRepo construye el repositorio vacío.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]entity.User)}
}

// Create registra un usuario nuevo.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return fmt.Errorf("%w: email %s", domain.ErrDuplicate, u.Email)
	}
	r.users[u.Email] = *u
	return nil
}

// FindByEmail obtiene un usuario; nil, nil si no existe.
func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// ListByCompany usuarios de la empresa ordenados por email.
func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	r.mu.RLock()
	var all []*entity.User
	for _, u := range r.users {
		if u.CompanyID == companyID {
			u := u
			all = append(all, &u)
		}
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), nil
}
