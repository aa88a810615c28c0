package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/auth"
	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/memory"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/saft"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

const tenant = "t1"

var (
	keyOnce sync.Once
	keyPair *entity.KeyPair
	keyErr  error
)

type cliEnv struct {
	store *memory.Store
	docs  *fiscal.DocumentUseCase
	users *auth.AuthUseCase
}

// setup instala dependencias en memoria y un sistema de archivos MemMapFs.
func setup(t *testing.T) *cliEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	store.PutCompany(&entity.Company{
		ID: tenant, Name: "Farmácia Kianda Lda", NIF: "5000123456",
		Address: "Rua Amílcar Cabral 12", City: "Luanda", Country: "AO", SoftwareValidationNumber: "123/AGT/2024",
	})
	store.PutCustomer(&entity.Customer{ID: "c1", CompanyID: tenant, Name: "Consumidor final", TaxID: agt.ConsumerFinalNIF, Country: "AO"})
	store.PutProduct(&entity.Product{ID: "p1", CompanyID: tenant, Code: "PARA500", Type: entity.ProductTypeGoods, Description: "Paracetamol 500mg"})
	require.NoError(t, store.Series().Create(ctx, &entity.FiscalSeries{
		ID: "s1", TenantID: tenant, Code: "FT24", DocumentType: entity.DocTypeFatura, ValidationCode: "AGTFT24", Active: true,
	}))

	keyOnce.Do(func() { keyPair, keyErr = signer.GenerateKeyPair(tenant, signer.DefaultKeyBits) })
	require.NoError(t, keyErr)
	keys := memory.NewKeyStore()
	require.NoError(t, keys.Create(ctx, keyPair))

	log := logger.Nop()
	ds := fiscal.NewDocumentSigner(keys, store, memory.NewKeyedMutex(), signer.NewPSSSigner(), log)
	exp := saft.NewExporter(store.Companies(), store.Customers(), store.Products(), store.Documents(),
		saft.ProducerInfo{ProductID: "FiscalAO/JHOICAS", ProductVersion: "1.0.0", ProductCompanyNIF: "5000999999"})
	svc := &Services{
		Docs:   fiscal.NewDocumentUseCase(store.Series(), store.Documents(), store.Customers(), keys, store, ds, log),
		Export: fiscal.NewExportUseCase(exp, saft.NewValidator(), store.Documents(), log),
		Users:  auth.NewAuthUseCase(memory.NewUserRepo(), auth.JWTConfig{Secret: "cli-secret", ExpMinutes: 5}, log),
	}

	SetDeps(Deps{
		Keys: func() (*fiscal.KeyManager, error) { return fiscal.NewKeyManager(keys, signer.DefaultKeyBits, log), nil },
		Services: func(context.Context) (*Services, func(), error) {
			return svc, func() {}, nil
		},
	})
	prevFs := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() {
		fs = prevFs
		SetDeps(Deps{})
	})
	return &cliEnv{store: store, docs: svc.Docs, users: svc.Users}
}

func (e *cliEnv) emitInvoice(t *testing.T, day int, price int64) entity.FiscalDocument {
	t.Helper()
	doc := &entity.FaturaCredito{DocumentHeader: entity.DocumentHeader{
		SeriesCode: "FT24",
		Date:       dayOf(day),
		CustomerID: "c1",
		Lines: []entity.DocumentLine{{
			LineNumber: 1, ProductCode: "PARA500", Description: "Paracetamol 500mg",
			Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(price),
			TaxType: agt.TaxTypeIVA, TaxCode: agt.TaxCodeNormal, TaxPercentage: decimal.NewFromInt(14),
		}},
	}}
	out, err := e.docs.EmitDocument(context.Background(), tenant, "pos-1", doc)
	require.NoError(t, err)
	return out
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestExportYValidate(t *testing.T) {
	e := setup(t)
	e.emitInvoice(t, 3, 100)
	e.emitInvoice(t, 4, 40)

	out, err := run(t, "export", "--tenant", tenant, "--from", "2024-01-01", "--to", "2024-01-31", "--out", "/tmp/saft.xml")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Documentos: 2")
	assert.Contains(t, out, "VÁLIDO")

	exists, err := afero.Exists(fs, "/tmp/saft.xml")
	require.NoError(t, err)
	require.True(t, exists)

	validateJSON = false
	out, err = run(t, "validate", "/tmp/saft.xml")
	require.NoError(t, err, out)
	assert.Contains(t, out, "/tmp/saft.xml: VÁLIDO")
	assert.Contains(t, out, "Digest:")
}

func TestValidate_ArchivoInvalido(t *testing.T) {
	e := setup(t)
	e.emitInvoice(t, 3, 100)
	_, err := run(t, "export", "--tenant", tenant, "--from", "2024-01-01", "--to", "2024-01-31", "--out", "ok.xml")
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, "ok.xml")
	require.NoError(t, err)
	broken := strings.Replace(string(raw), "<CurrencyCode>AOA</CurrencyCode>", "", 1)
	require.NoError(t, afero.WriteFile(fs, "roto.xml", []byte(broken), 0o644))

	validateJSON = true
	defer func() { validateJSON = false }()
	out, err := run(t, "validate", "roto.xml", "--json")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, out, `"valid": false`)
	assert.Contains(t, out, "CurrencyCode")

	_, err = run(t, "validate", "no-existe.xml")
	assert.Error(t, err)
}

func TestVerifyChain(t *testing.T) {
	e := setup(t)
	e.emitInvoice(t, 3, 100)
	second := e.emitInvoice(t, 4, 40)

	out, err := run(t, "verify-chain", "--tenant", tenant, "--series", "FT24")
	require.NoError(t, err, out)
	assert.Contains(t, out, "cadena íntegra (2 documentos)")

	// documento insertado por fuera del firmador
	ctx := context.Background()
	forged := &entity.FaturaCredito{DocumentHeader: entity.DocumentHeader{
		ID: "forged", TenantID: tenant, SeriesCode: "FT24", Number: 3,
		DocumentNo: "FT FT24/3", Date: dayOf(6), CustomerID: "c1",
		GrossTotal: decimal.NewFromInt(1), Status: entity.DocumentStatusNormal,
		Hash: "bm8gZXMgdW4gaGFzaCBkZSB2ZXJkYWQgZGUgdmVyZGFkIQ==", PreviousHash: second.Header().Hash, Signature: "eA==",
	}}
	require.NoError(t, e.store.Documents().Create(ctx, forged))
	require.NoError(t, e.store.Series().Advance(ctx, tenant, "FT24", second.Header().Hash, 2, forged.Hash, 3))

	out, err = run(t, "verify-chain", "--tenant", tenant, "--series", "FT24")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, out, "cadena ROTA en FT FT24/3")
}

func TestKeygen_NoReemplazaLlaves(t *testing.T) {
	setup(t)
	out, err := run(t, "keygen", "--tenant", tenant)
	require.NoError(t, err)
	assert.Contains(t, out, "ya tiene llaves")
	assert.Contains(t, out, string(keyPair.PublicKeyPEM))
}

func TestExport_FechaInvalida(t *testing.T) {
	setup(t)
	_, err := run(t, "export", "--tenant", tenant, "--from", "01/01/2024", "--to", "2024-01-31", "--out", "x.xml")
	assert.Error(t, err)
}

func TestUseradd_PrimerAdmin(t *testing.T) {
	e := setup(t)
	out, err := run(t, "useradd", "--tenant", tenant, "--email", "admin@kianda.ao", "--password", "segredo123")
	require.NoError(t, err, out)
	assert.Contains(t, out, "admin@kianda.ao (admin) creado en t1")

	login, err := e.users.Login(context.Background(), dto.LoginRequest{Email: "admin@kianda.ao", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, "admin", login.User.Role)

	_, err = run(t, "useradd", "--tenant", tenant, "--email", "admin@kianda.ao", "--password", "segredo123")
	assert.Error(t, err, "el email ya existe")
}

func TestHelp_ListaComandos(t *testing.T) {
	setup(t)
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, short := range []string{
		"Exporta el SAF-T AO de un período",
		"Genera el par de llaves RSA de firma de una empresa",
		"Crea un usuario de una empresa",
		"Valida un archivo XML SAF-T AO",
		"Verifica la cadena de hash y las firmas de una serie",
	} {
		assert.Contains(t, out, short)
	}
}

func dayOf(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}
