package fiscal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

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
	sharedKeyOnce sync.Once
	sharedKey     *entity.KeyPair
	sharedKeyErr  error
)

// testKeyPair reutiliza un par RSA entre pruebas: generar 2048 bits por prueba es lento.
func testKeyPair(t *testing.T, tenantID string) *entity.KeyPair {
	t.Helper()
	sharedKeyOnce.Do(func() {
		sharedKey, sharedKeyErr = signer.GenerateKeyPair("shared", signer.DefaultKeyBits)
	})
	require.NoError(t, sharedKeyErr)
	kp := *sharedKey
	kp.TenantID = tenantID
	return &kp
}

type testEnv struct {
	store  *memory.Store
	keys   *memory.KeyStore
	signer *fiscal.DocumentSigner
	docs   *fiscal.DocumentUseCase
	series *fiscal.SeriesUseCase
	export *fiscal.ExportUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	store.PutCompany(&entity.Company{
		ID: tenant, Name: "Farmácia Kianda Lda", NIF: "5000123456",
		Address: "Rua Amílcar Cabral 12", City: "Luanda", Country: "AO", SoftwareValidationNumber: "123/AGT/2024",
	})
	store.PutCustomer(&entity.Customer{ID: "c1", CompanyID: tenant, Name: "Consumidor final", TaxID: agt.ConsumerFinalNIF, Country: "AO"})
	store.PutProduct(&entity.Product{ID: "p1", CompanyID: tenant, Code: "PARA500", Type: entity.ProductTypeGoods, Description: "Paracetamol 500mg"})

	keys := memory.NewKeyStore()
	require.NoError(t, keys.Create(context.Background(), testKeyPair(t, tenant)))

	log := logger.Nop()
	ds := fiscal.NewDocumentSigner(keys, store, memory.NewKeyedMutex(), signer.NewPSSSigner(), log)
	exp := saft.NewExporter(store.Companies(), store.Customers(), store.Products(), store.Documents(),
		saft.ProducerInfo{ProductID: "FiscalAO/JHOICAS", ProductVersion: "1.0.0", ProductCompanyNIF: "5000999999"})

	return &testEnv{
		store:  store,
		keys:   keys,
		signer: ds,
		docs:   fiscal.NewDocumentUseCase(store.Series(), store.Documents(), store.Customers(), keys, store, ds, log),
		series: fiscal.NewSeriesUseCase(store.Series(), log),
		export: fiscal.NewExportUseCase(exp, saft.NewValidator(), store.Documents(), log),
	}
}

func (e *testEnv) addSeries(t *testing.T, code string, docType entity.DocumentType) {
	t.Helper()
	require.NoError(t, e.store.Series().Create(context.Background(), &entity.FiscalSeries{
		ID: code, TenantID: tenant, Code: code, DocumentType: docType, ValidationCode: "AGT" + code, Active: true,
	}))
}

func saleLine(qty, price int64) entity.DocumentLine {
	return entity.DocumentLine{
		ProductCode: "PARA500", Description: "Paracetamol 500mg",
		Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price),
		TaxType: agt.TaxTypeIVA, TaxCode: agt.TaxCodeNormal, TaxPercentage: decimal.NewFromInt(14),
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func header(series string, d int, lines ...entity.DocumentLine) entity.DocumentHeader {
	return entity.DocumentHeader{SeriesCode: series, Date: day(d), CustomerID: "c1", Lines: lines}
}
