package entity

import "time"

// KeyPair es el par de llaves RSA de una empresa. La llave privada es confidencial:
// la guarda un KeyStore (archivo / gestor de secretos), nunca la base de datos de negocio.
type KeyPair struct {
	TenantID      string
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
	CreatedAt     time.Time
}
