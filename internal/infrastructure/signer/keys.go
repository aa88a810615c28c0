// Generación y carga de llaves RSA: PEM (PKCS#8 / PKCS#1) y contenedores .p12 (PKCS#12).

package signer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// ErrInvalidKey la llave no es RSA, está corrupta o es demasiado corta.
var ErrInvalidKey = errors.New("agt: llave RSA inválida")

// GenerateKeyPair genera un par RSA de bits (mínimo MinKeyBits) y lo devuelve en PEM:
// privada en PKCS#8, pública en SubjectPublicKeyInfo.
func GenerateKeyPair(tenantID string, bits int) (*entity.KeyPair, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	if bits < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits, mínimo %d", ErrInvalidKey, bits, MinKeyBits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("agt: generar llave: %w", err)
	}
	privPEM, err := EncodePrivateKeyPEM(priv)
	if err != nil {
		return nil, err
	}
	pubPEM, err := EncodePublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &entity.KeyPair{
		TenantID:      tenantID,
		PrivateKeyPEM: privPEM,
		PublicKeyPEM:  pubPEM,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// EncodePrivateKeyPEM serializa la llave privada en PKCS#8.
func EncodePrivateKeyPEM(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("agt: serializar llave privada: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKeyPKCS8, Bytes: der}), nil
}

// EncodePublicKeyPEM serializa la llave pública (SubjectPublicKeyInfo), formato que se
// entrega a la AGT al certificar el software.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("agt: serializar llave pública: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// ParsePrivateKeyPEM acepta PKCS#8 y PKCS#1.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: PEM no encontrado", ErrInvalidKey)
	}
	var priv *rsa.PrivateKey
	switch block.Type {
	case pemPrivateKeyPKCS8:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: la llave no es RSA", ErrInvalidKey)
		}
		priv = rk
	case pemPrivateKeyPKCS1:
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		priv = k
	default:
		return nil, fmt.Errorf("%w: bloque PEM %q no soportado", ErrInvalidKey, block.Type)
	}
	if priv.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits, mínimo %d", ErrInvalidKey, priv.N.BitLen(), MinKeyBits)
	}
	return priv, nil
}

// ParsePublicKeyPEM acepta SubjectPublicKeyInfo y PKCS#1.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: PEM no encontrado", ErrInvalidKey)
	}
	switch block.Type {
	case pemPublicKey:
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		pub, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: la llave no es RSA", ErrInvalidKey)
		}
		return pub, nil
	case pemPublicKeyPKCS1:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: bloque PEM %q no soportado", ErrInvalidKey, block.Type)
	}
}

// KeyPairFromP12 importa la llave de un contenedor .p12/.pfx (el password puede ser vacío).
// El certificado del contenedor se descarta: la AGT solo registra la llave pública.
func KeyPairFromP12(tenantID string, data []byte, password string) (*entity.KeyPair, error) {
	k, _, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("agt: decodificar p12: %w", err)
	}
	priv, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: el p12 no contiene una llave RSA", ErrInvalidKey)
	}
	privPEM, err := EncodePrivateKeyPEM(priv)
	if err != nil {
		return nil, err
	}
	pubPEM, err := EncodePublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &entity.KeyPair{TenantID: tenantID, PrivateKeyPEM: privPEM, PublicKeyPEM: pubPEM, CreatedAt: time.Now().UTC()}, nil
}
