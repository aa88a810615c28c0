// Package keystore guarda las llaves de firma de cada empresa en archivos, fuera de la base
// de datos de negocio: {dir}/{tenant}/private.pem (0600) y public.pem. Acepta también un
// keystore.p12 protegido con password cuando la empresa no tiene PEM.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
)

var _ repository.KeyStore = (*FileStore)(nil)

const (
	privateFile = "private.pem"
	publicFile  = "public.pem"
	p12File     = "keystore.p12"

	dirPerm     os.FileMode = 0o700
	privatePerm os.FileMode = 0o600
	publicPerm  os.FileMode = 0o644
)

// FileStore KeyStore sobre un sistema de archivos (afero: disco en producción, memoria en pruebas).
type FileStore struct {
	fs          afero.Fs
	dir         string
	p12Password string
}

// NewFileStore crea el store en dir del disco local.
func NewFileStore(dir, p12Password string) *FileStore {
	return NewFileStoreFs(afero.NewOsFs(), dir, p12Password)
}

// NewFileStoreFs crea el store sobre un afero.Fs arbitrario.
func NewFileStoreFs(fs afero.Fs, dir, p12Password string) *FileStore {
	return &FileStore{fs: fs, dir: dir, p12Password: p12Password}
}

// Get lee el par de la empresa; nil, nil si no tiene llaves.
func (s *FileStore) Get(_ context.Context, tenantID string) (*entity.KeyPair, error) {
	dir, err := s.tenantDir(tenantID)
	if err != nil {
		return nil, err
	}
	privPath := filepath.Join(dir, privateFile)
	priv, err := afero.ReadFile(s.fs, privPath)
	if errors.Is(err, os.ErrNotExist) {
		return s.fromP12(tenantID, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: leer %s: %w", privPath, err)
	}
	pub, err := afero.ReadFile(s.fs, filepath.Join(dir, publicFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("keystore: leer llave pública: %w", err)
	}
	if len(pub) == 0 {
		// public.pem se deriva de la privada si falta
		if pub, err = derivePublic(priv); err != nil {
			return nil, err
		}
	}
	kp := &entity.KeyPair{TenantID: tenantID, PrivateKeyPEM: priv, PublicKeyPEM: pub}
	if info, err := s.fs.Stat(privPath); err == nil {
		kp.CreatedAt = info.ModTime().UTC()
	}
	return kp, nil
}

// Create escribe el par; domain.ErrAlreadyExists si la empresa ya tiene llaves.
// La llave privada se crea con O_EXCL: dos procesos no pueden escribir la misma empresa.
func (s *FileStore) Create(ctx context.Context, kp *entity.KeyPair) error {
	if kp == nil || len(kp.PrivateKeyPEM) == 0 {
		return fmt.Errorf("%w: par de llaves vacío", domain.ErrInvalidInput)
	}
	dir, err := s.tenantDir(kp.TenantID)
	if err != nil {
		return err
	}
	if exists, err := afero.Exists(s.fs, filepath.Join(dir, p12File)); err == nil && exists {
		return fmt.Errorf("%w: llaves de %s (p12)", domain.ErrAlreadyExists, kp.TenantID)
	}
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("keystore: crear directorio: %w", err)
	}

	f, err := s.fs.OpenFile(filepath.Join(dir, privateFile), os.O_WRONLY|os.O_CREATE|os.O_EXCL, privatePerm)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: llaves de %s", domain.ErrAlreadyExists, kp.TenantID)
	}
	if err != nil {
		return fmt.Errorf("keystore: crear llave privada: %w", err)
	}
	if _, err := f.Write(kp.PrivateKeyPEM); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(filepath.Join(dir, privateFile))
		return fmt.Errorf("keystore: escribir llave privada: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("keystore: cerrar llave privada: %w", err)
	}

	pub := kp.PublicKeyPEM
	if len(pub) == 0 {
		if pub, err = derivePublic(kp.PrivateKeyPEM); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(s.fs, filepath.Join(dir, publicFile), pub, publicPerm); err != nil {
		return fmt.Errorf("keystore: escribir llave pública: %w", err)
	}
	return nil
}

// fromP12 usa keystore.p12 si la empresa no tiene PEM.
func (s *FileStore) fromP12(tenantID, dir string) (*entity.KeyPair, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(dir, p12File))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: leer p12: %w", err)
	}
	kp, err := signer.KeyPairFromP12(tenantID, data, s.p12Password)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	return kp, nil
}

// tenantDir rechaza ids que escapen del directorio base.
func (s *FileStore) tenantDir(tenantID string) (string, error) {
	if tenantID == "" || tenantID == "." || tenantID == ".." || strings.ContainsAny(tenantID, `/\`) {
		return "", fmt.Errorf("%w: tenant %q", domain.ErrInvalidInput, tenantID)
	}
	return filepath.Join(s.dir, tenantID), nil
}

func derivePublic(privPEM []byte) ([]byte, error) {
	priv, err := signer.ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	return signer.EncodePublicKeyPEM(&priv.PublicKey)
}
