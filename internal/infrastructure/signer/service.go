// Servicio de firma del hash encadenado de documentos AGT.

package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/jhoicas/fiscal-ao/pkg/agt"
)

// PSSSigner implementa agt.HashSigner con RSA-PSS / SHA-256.
// Lo que se firma es el SHA-256 de los bytes UTF-8 del hash base64 del documento.
type PSSSigner struct{}

var _ agt.HashSigner = (*PSSSigner)(nil)

// NewPSSSigner crea el servicio.
func NewPSSSigner() *PSSSigner {
	return &PSSSigner{}
}

// Sign firma hash y devuelve la firma en base64.
func (s *PSSSigner) Sign(priv *rsa.PrivateKey, hash string) (string, error) {
	if priv == nil {
		return "", fmt.Errorf("%w: llave privada nula", ErrInvalidKey)
	}
	if hash == "" {
		return "", fmt.Errorf("agt: hash vacío")
	}
	digest := sha256.Sum256([]byte(hash))
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], signOptions)
	if err != nil {
		return "", fmt.Errorf("agt: firmar hash: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify indica si signature (base64) corresponde a hash.
func (s *PSSSigner) Verify(pub *rsa.PublicKey, hash, signature string) bool {
	if pub == nil || hash == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(hash))
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, verifyOptions) == nil
}
