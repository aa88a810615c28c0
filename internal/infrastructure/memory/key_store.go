package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.KeyStore = (*KeyStore)(nil)

// KeyStore guarda los pares de llaves en memoria (pruebas y modo offline del CLI).
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]entity.KeyPair
}

// NewKeyStore crea el store vacío.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]entity.KeyPair)}
}

// Get devuelve nil, nil si la empresa no tiene llaves.
func (s *KeyStore) Get(_ context.Context, tenantID string) (*entity.KeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kp, ok := s.keys[tenantID]
	if !ok {
		return nil, nil
	}
	return &kp, nil
}

// Create guarda el par; nunca sobrescribe.
func (s *KeyStore) Create(_ context.Context, kp *entity.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[kp.TenantID]; ok {
		return fmt.Errorf("%w: llaves de %s", domain.ErrAlreadyExists, kp.TenantID)
	}
	s.keys[kp.TenantID] = *kp
	return nil
}
