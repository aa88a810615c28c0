package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SAFT_PRODUCT_ID", "Farmacia/ACME")
	t.Setenv("SIGNING_LOCK_TTL_SECONDS", "10")
	t.Setenv("SIGNING_KEY_BITS", "3072")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "Farmacia/ACME", cfg.SAFT.ProductID)
	assert.Equal(t, 10*time.Second, cfg.Signing.LockTTL)
	assert.Equal(t, 3072, cfg.Signing.KeyBits)
}

func TestLoad_RechazaLlavesCortas(t *testing.T) {
	t.Setenv("SIGNING_KEY_BITS", "1024")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "fiscal", Password: "p@ss/word", DBName: "fiscal_ao", SSLMode: "disable"}
	assert.Equal(t, "postgres://fiscal:p%40ss%2Fword@db:5432/fiscal_ao?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgresql://x"
	assert.Equal(t, "postgresql://x", c.ConnectionString())
}
