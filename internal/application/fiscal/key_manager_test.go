package fiscal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/memory"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

func TestKeyManager_GenerateNoSobrescribe(t *testing.T) {
	ctx := context.Background()
	km := fiscal.NewKeyManager(memory.NewKeyStore(), 1024, logger.Nop())

	kp, err := km.Generate(ctx, "t9")
	require.NoError(t, err)
	priv, err := signer.ParsePrivateKeyPEM(kp.PrivateKeyPEM)
	require.NoError(t, err)
	assert.Equal(t, signer.MinKeyBits, priv.N.BitLen(), "bits por debajo del mínimo se elevan")

	again, err := km.Generate(ctx, "t9")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	require.NotNil(t, again)
	assert.Equal(t, kp.PublicKeyPEM, again.PublicKeyPEM)

	pub, err := km.PublicKey(ctx, "t9")
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKeyPEM, pub)
}

func TestKeyManager_Errores(t *testing.T) {
	ctx := context.Background()
	km := fiscal.NewKeyManager(memory.NewKeyStore(), 2048, logger.Nop())

	_, err := km.PublicKey(ctx, "sin-llaves")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = km.Generate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = km.Import(ctx, "t9", []byte("no es un p12"), "secreto")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
