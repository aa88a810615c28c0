package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "aqCtYNzim9bErCTM/YwsfFX5FLLROHHv41amhfEJsjA="

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func fixtureKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		kp, err := GenerateKeyPair("t1", DefaultKeyBits)
		require.NoError(t, err)
		testKey, err = ParsePrivateKeyPEM(kp.PrivateKeyPEM)
		require.NoError(t, err)
	})
	return testKey
}

func TestPSSSigner_RoundTrip(t *testing.T) {
	priv := fixtureKey(t)
	s := NewPSSSigner()

	sig, err := s.Sign(priv, testHash)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.Len(t, raw, priv.Size())

	assert.True(t, s.Verify(&priv.PublicKey, testHash, sig))
}

func TestPSSSigner_BitAlteradoInvalidaFirma(t *testing.T) {
	priv := fixtureKey(t)
	s := NewPSSSigner()
	sig, err := s.Sign(priv, testHash)
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(sig)
	raw[10] ^= 0x01
	assert.False(t, s.Verify(&priv.PublicKey, testHash, base64.StdEncoding.EncodeToString(raw)))

	otherHash := "A" + testHash[1:]
	assert.False(t, s.Verify(&priv.PublicKey, otherHash, sig))
	assert.False(t, s.Verify(&priv.PublicKey, testHash, "no-es-base64!"))
}

func TestPSSSigner_FirmaConSaltMaximoEsAceptada(t *testing.T) {
	priv := fixtureKey(t)
	digest := sha256.Sum256([]byte(testHash))
	raw, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto})
	require.NoError(t, err)

	assert.True(t, NewPSSSigner().Verify(&priv.PublicKey, testHash, base64.StdEncoding.EncodeToString(raw)))
}

func TestPSSSigner_OtraLlaveNoVerifica(t *testing.T) {
	priv := fixtureKey(t)
	other, err := GenerateKeyPair("t2", DefaultKeyBits)
	require.NoError(t, err)
	otherPub, err := ParsePublicKeyPEM(other.PublicKeyPEM)
	require.NoError(t, err)

	sig, err := NewPSSSigner().Sign(priv, testHash)
	require.NoError(t, err)
	assert.False(t, NewPSSSigner().Verify(otherPub, testHash, sig))
}

func TestPSSSigner_EntradasInvalidas(t *testing.T) {
	s := NewPSSSigner()
	_, err := s.Sign(nil, testHash)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = s.Sign(fixtureKey(t), "")
	assert.Error(t, err)
	assert.False(t, s.Verify(nil, testHash, "x"))
}

func TestParsePrivateKeyPEM_PKCS1(t *testing.T) {
	priv := fixtureKey(t)
	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: pemPrivateKeyPKCS1, Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	parsed, err := ParsePrivateKeyPEM(pkcs1)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(priv))

	pubPKCS1 := pem.EncodeToMemory(&pem.Block{Type: pemPublicKeyPKCS1, Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)})
	pub, err := ParsePublicKeyPEM(pubPKCS1)
	require.NoError(t, err)
	assert.True(t, pub.Equal(&priv.PublicKey))
}

func TestParsePrivateKeyPEM_Corrupta(t *testing.T) {
	_, err := ParsePrivateKeyPEM([]byte("basura"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: pemPrivateKeyPKCS8, Bytes: []byte{1, 2, 3}}))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGenerateKeyPair_RechazaLlaveCorta(t *testing.T) {
	_, err := GenerateKeyPair("t1", 1024)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeyPairFromP12_Invalido(t *testing.T) {
	_, err := KeyPairFromP12("t1", []byte("no es p12"), "")
	assert.Error(t, err)
}
