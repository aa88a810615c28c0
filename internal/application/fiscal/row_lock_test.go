package fiscal_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/memory"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// lockRecorder anota los documentos leídos con bloqueo de fila dentro de la transacción.
type lockRecorder struct {
	repository.DocumentRepository
	mu     *sync.Mutex
	locked *[]string
	plain  *[]string
}

func (r lockRecorder) GetByNumberForUpdate(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	r.mu.Lock()
	*r.locked = append(*r.locked, documentNo)
	r.mu.Unlock()
	return r.DocumentRepository.GetByNumberForUpdate(ctx, tenantID, documentNo)
}

func (r lockRecorder) GetByNumber(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	r.mu.Lock()
	*r.plain = append(*r.plain, documentNo)
	r.mu.Unlock()
	return r.DocumentRepository.GetByNumber(ctx, tenantID, documentNo)
}

type recordingTx struct {
	store  *memory.Store
	mu     sync.Mutex
	locked []string
	plain  []string
}

func (t *recordingTx) RunFiscal(ctx context.Context, fn func(repository.SeriesRepository, repository.DocumentRepository) error) error {
	return t.store.RunFiscal(ctx, func(s repository.SeriesRepository, d repository.DocumentRepository) error {
		return fn(s, lockRecorder{DocumentRepository: d, mu: &t.mu, locked: &t.locked, plain: &t.plain})
	})
}

func (t *recordingTx) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked, t.plain = nil, nil
}

func TestReglasEntreDocumentos_BloqueanLaFilaReferenciada(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	e.addSeries(t, "NC24", entity.DocTypeNotaCredito)
	e.addSeries(t, "RC24", entity.DocTypeRecibo)
	e.addSeries(t, "GT24", entity.DocTypeDocumentoTransporte)

	tx := &recordingTx{store: e.store}
	log := logger.Nop()
	ds := fiscal.NewDocumentSigner(e.keys, tx, memory.NewKeyedMutex(), signer.NewPSSSigner(), log)
	docs := fiscal.NewDocumentUseCase(e.store.Series(), e.store.Documents(), e.store.Customers(), e.keys, tx, ds, log)

	ft1, err := docs.Emit(ctx, tenant, "op", saleRequest("FT", "FT24", 1, 100))
	require.NoError(t, err)
	ft2, err := docs.Emit(ctx, tenant, "op", saleRequest("FT", "FT24", 1, 100))
	require.NoError(t, err)

	tx.reset()
	nc := saleRequest("NC", "NC24", 1, 10)
	nc.ReferenceNo = ft1.DocumentNo
	nc.ReferenceReason = "Desconto"
	_, err = docs.Emit(ctx, tenant, "op", nc)
	require.NoError(t, err)
	assert.Equal(t, []string{ft1.DocumentNo}, tx.locked)

	tx.reset()
	rc := dto.EmitDocumentRequest{
		Type: "RC", SeriesCode: "RC24", Date: "2024-01-10", CustomerID: "c1", PaymentMechanism: entity.PaymentTransfer,
		Settlements: []dto.SettlementRequest{
			{DocumentNo: ft2.DocumentNo, Amount: decimal.NewFromInt(10)},
			{DocumentNo: ft1.DocumentNo, Amount: decimal.NewFromInt(10)},
		},
	}
	_, err = docs.Emit(ctx, tenant, "op", rc)
	require.NoError(t, err)
	assert.Equal(t, []string{ft1.DocumentNo, ft2.DocumentNo}, tx.locked, "orden fijo de bloqueo")

	tx.reset()
	gt := saleRequest("GT", "GT24", 1, 0)
	gt.LoadAddress = "Armazém Viana"
	gt.DeliveryAddress = "Farmácia Maianga"
	gt.MovementStart = "2024-01-05T08:00:00Z"
	gt.SourceDocumentNo = ft2.DocumentNo
	_, err = docs.Emit(ctx, tenant, "op", gt)
	require.NoError(t, err)
	assert.Equal(t, []string{ft2.DocumentNo}, tx.locked)

	tx.reset()
	_, err = docs.Cancel(ctx, tenant, ft1.ID, "Erro")
	require.Error(t, err, "referenciada por NC y RC activos")
	assert.Equal(t, []string{ft1.DocumentNo}, tx.locked)
	assert.Empty(t, tx.plain, "ninguna regla lee el documento referenciado sin bloqueo")
}
