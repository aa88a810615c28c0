// Parámetros de la firma AGT: RSA-PSS con SHA-256 y MGF1-SHA256.

package signer

import "crypto/rsa"

// Tamaño mínimo y por defecto de las llaves RSA de las empresas.
const (
	MinKeyBits     = 2048
	DefaultKeyBits = 2048
)

// Tipos de bloque PEM que se escriben y aceptan.
const (
	pemPrivateKeyPKCS8 = "PRIVATE KEY"
	pemPrivateKeyPKCS1 = "RSA PRIVATE KEY"
	pemPublicKey       = "PUBLIC KEY"
	pemPublicKeyPKCS1  = "RSA PUBLIC KEY"
)

// signOptions: al firmar el salt mide lo mismo que el digest (32 bytes).
var signOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}

// verifyOptions: al verificar se detecta el largo del salt, así se aceptan también
// firmas emitidas con salt máximo.
var verifyOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto}
