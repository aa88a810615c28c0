package fiscal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// KeyManager genera y expone el par de llaves RSA de cada empresa. Nunca sobrescribe
// un par existente: rotar llaves rompería la verificación de los documentos ya firmados.
type KeyManager struct {
	keys repository.KeyStore
	bits int
	log  *logger.Logger
}

// NewKeyManager crea el gestor. bits por debajo del mínimo se elevan a signer.MinKeyBits.
func NewKeyManager(keys repository.KeyStore, bits int, log *logger.Logger) *KeyManager {
	if bits < signer.MinKeyBits {
		bits = signer.MinKeyBits
	}
	return &KeyManager{keys: keys, bits: bits, log: log}
}

// Generate crea el par de la empresa. Si ya existe devuelve el par existente junto con
// un error que cumple errors.Is(err, domain.ErrAlreadyExists).
func (m *KeyManager) Generate(ctx context.Context, tenantID string) (*entity.KeyPair, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := m.keys.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("leer llaves: %w", err)
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: la empresa %s ya tiene llaves", domain.ErrAlreadyExists, tenantID)
	}

	kp, err := signer.GenerateKeyPair(tenantID, m.bits)
	if err != nil {
		return nil, err
	}
	if err := m.keys.Create(ctx, kp); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// otra petición generó el par entre Get y Create
			winner, getErr := m.keys.Get(ctx, tenantID)
			if getErr != nil {
				return nil, fmt.Errorf("leer llaves: %w", getErr)
			}
			return winner, err
		}
		return nil, fmt.Errorf("guardar llaves: %w", err)
	}
	m.log.Info().Str("tenant_id", tenantID).Int("bits", m.bits).Msg("par de llaves generado")
	return kp, nil
}

// Import registra un par existente desde un contenedor PKCS#12 (.p12/.pfx).
// Misma regla que Generate: nunca reemplaza un par ya registrado.
func (m *KeyManager) Import(ctx context.Context, tenantID string, p12 []byte, password string) (*entity.KeyPair, error) {
	if tenantID == "" || len(p12) == 0 {
		return nil, domain.ErrInvalidInput
	}
	kp, err := signer.KeyPairFromP12(tenantID, p12, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := m.keys.Create(ctx, kp); err != nil {
		return nil, err
	}
	m.log.Info().Str("tenant_id", tenantID).Msg("par de llaves importado desde p12")
	return kp, nil
}

// PublicKey devuelve el PEM de la llave pública de la empresa.
func (m *KeyManager) PublicKey(ctx context.Context, tenantID string) ([]byte, error) {
	kp, err := m.keys.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("leer llaves: %w", err)
	}
	if kp == nil {
		return nil, fmt.Errorf("%w: la empresa %s no tiene llaves", domain.ErrNotFound, tenantID)
	}
	return kp.PublicKeyPEM, nil
}
