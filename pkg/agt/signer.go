// Package agt: interfaz para firma digital del hash de documentos fiscales.

package agt

import "crypto/rsa"

// HashSigner firma el hash encadenado de un documento con la llave privada de la empresa.
type HashSigner interface {
	// Sign devuelve la firma en base64 del hash (texto base64 del SHA-256 del documento).
	Sign(priv *rsa.PrivateKey, hash string) (string, error)
	// Verify indica si signature corresponde a hash con la llave pública.
	Verify(pub *rsa.PublicKey, hash, signature string) bool
}
