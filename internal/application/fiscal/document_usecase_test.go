package fiscal_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	domfiscal "github.com/jhoicas/fiscal-ao/internal/domain/fiscal"
)

func saleRequest(docType, series string, qty, price int64) dto.EmitDocumentRequest {
	return dto.EmitDocumentRequest{
		Type: docType, SeriesCode: series, Date: "2024-01-05", CustomerID: "c1",
		PaymentMechanism: entity.PaymentCash,
		Lines: []dto.DocumentLineRequest{{
			ProductCode: "PARA500", Description: "Paracetamol 500mg",
			Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price),
			TaxType: "iva", TaxCode: "nor", TaxPercentage: decimal.NewFromInt(14),
		}},
	}
}

func emitInvoice(t *testing.T, e *testEnv, qty, price int64) *dto.DocumentResponse {
	t.Helper()
	out, err := e.docs.Emit(context.Background(), tenant, "operador1", saleRequest("FT", "FT24", qty, price))
	require.NoError(t, err)
	return out
}

func TestEmit_VendaFirmada(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FR24", entity.DocTypeFaturaRecibo)

	out, err := e.docs.Emit(ctx, tenant, "operador1", saleRequest("FR", "FR24", 2, 50))
	require.NoError(t, err)

	assert.Equal(t, "FR FR24/1", out.DocumentNo)
	assert.Equal(t, "AGTFR24-1", out.ATCUD)
	assert.Equal(t, "", out.PreviousHash)
	assert.Len(t, out.Hash, 44)
	assert.NotEmpty(t, out.Signature)
	assert.Equal(t, "114.00", domfiscal.FormatAmount(out.GrossTotal))
	assert.Equal(t, entity.DocumentStatusNormal, out.Status)

	got, err := e.docs.Get(ctx, tenant, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Hash, got.Hash)
	assert.Equal(t, "IVA", got.Lines[0].TaxType)

	_, err = e.docs.Get(ctx, "otra", out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmit_RechazosAntesDeFirmar(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FR24", entity.DocTypeFaturaRecibo)

	_, err := e.docs.Emit(ctx, tenant, "op", saleRequest("FT", "FR24", 1, 10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tipo distinto al de la serie")

	req := saleRequest("FR", "FR24", 1, 10)
	req.Lines = nil
	_, err = e.docs.Emit(ctx, tenant, "op", req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domfiscal.ErrInvalidDocument)

	req = saleRequest("FR", "FR24", 1, 10)
	req.CustomerID = "desconocido"
	_, err = e.docs.Emit(ctx, tenant, "op", req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req = saleRequest("FR", "FR24", 1, 10)
	req.Date = "05/01/2024"
	_, err = e.docs.Emit(ctx, tenant, "op", req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.docs.Emit(ctx, tenant, "op", saleRequest("XX", "FR24", 1, 10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.docs.Emit(ctx, tenant, "op", saleRequest("FR", "NOPE", 1, 10))
	assert.ErrorIs(t, err, domain.ErrSeriesNotFound)

	s, err := e.store.Series().Get(ctx, tenant, "FR24")
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.LastNumber)
}

func TestEmit_NotaCreditoNoSuperaElOrigen(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	e.addSeries(t, "NC24", entity.DocTypeNotaCredito)
	inv := emitInvoice(t, e, 1, 100) // 114.00

	nc := saleRequest("NC", "NC24", 1, 50) // 57.00
	nc.ReferenceNo = inv.DocumentNo
	nc.ReferenceReason = "Devolução parcial"
	out, err := e.docs.Emit(ctx, tenant, "op", nc)
	require.NoError(t, err)
	assert.Equal(t, inv.DocumentNo, out.ReferenceNo)

	nc2 := saleRequest("NC", "NC24", 1, 60) // 68.40, acumulado 125.40
	nc2.ReferenceNo = inv.DocumentNo
	nc2.ReferenceReason = "Devolução"
	_, err = e.docs.Emit(ctx, tenant, "op", nc2)
	require.ErrorIs(t, err, domain.ErrAmountExceeded)

	s, err := e.store.Series().Get(ctx, tenant, "NC24")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.LastNumber, "la NC rechazada no consume número")

	nc3 := saleRequest("NC", "NC24", 1, 10)
	nc3.ReferenceNo = "FT FT24/99"
	nc3.ReferenceReason = "Erro"
	_, err = e.docs.Emit(ctx, tenant, "op", nc3)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestEmit_ReciboLiquidaSaldoPendiente(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	e.addSeries(t, "RC24", entity.DocTypeRecibo)
	inv := emitInvoice(t, e, 1, 100) // 114.00

	rc := dto.EmitDocumentRequest{
		Type: "RC", SeriesCode: "RC24", Date: "2024-01-10", CustomerID: "c1", PaymentMechanism: entity.PaymentTransfer,
		Settlements: []dto.SettlementRequest{{DocumentNo: inv.DocumentNo, Amount: decimal.NewFromInt(100)}},
	}
	out, err := e.docs.Emit(ctx, tenant, "op", rc)
	require.NoError(t, err)
	assert.Equal(t, "100.00", domfiscal.FormatAmount(out.GrossTotal))

	// saldo 14.00: dos liquidaciones de 10 sobre la misma fatura suman 20
	rc.Settlements = []dto.SettlementRequest{
		{DocumentNo: inv.DocumentNo, Amount: decimal.NewFromInt(10)},
		{DocumentNo: inv.DocumentNo, Amount: decimal.NewFromInt(10)},
	}
	_, err = e.docs.Emit(ctx, tenant, "op", rc)
	assert.ErrorIs(t, err, domain.ErrAmountExceeded)

	rc.Settlements = []dto.SettlementRequest{{DocumentNo: inv.DocumentNo, Amount: decimal.NewFromInt(14)}}
	_, err = e.docs.Emit(ctx, tenant, "op", rc)
	assert.NoError(t, err)
}

func TestEmit_GuiaDeTransporte(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	e.addSeries(t, "GT24", entity.DocTypeDocumentoTransporte)
	inv := emitInvoice(t, e, 3, 20)

	gt := saleRequest("GT", "GT24", 3, 0)
	gt.LoadAddress = "Armazém Viana"
	gt.DeliveryAddress = "Farmácia Maianga"
	gt.MovementStart = "2024-01-05T08:00:00Z"
	gt.SourceDocumentNo = inv.DocumentNo
	out, err := e.docs.Emit(ctx, tenant, "op", gt)
	require.NoError(t, err)
	assert.Equal(t, "GT GT24/1", out.DocumentNo)
	assert.Equal(t, "0.00", domfiscal.FormatAmount(out.GrossTotal))

	gt.SourceDocumentNo = "FT FT24/42"
	_, err = e.docs.Emit(ctx, tenant, "op", gt)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	e.addSeries(t, "NC24", entity.DocTypeNotaCredito)
	inv := emitInvoice(t, e, 1, 100)

	nc := saleRequest("NC", "NC24", 1, 10)
	nc.ReferenceNo = inv.DocumentNo
	nc.ReferenceReason = "Desconto"
	ncOut, err := e.docs.Emit(ctx, tenant, "op", nc)
	require.NoError(t, err)

	_, err = e.docs.Cancel(ctx, tenant, inv.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.docs.Cancel(ctx, tenant, inv.ID, "Erro de digitação")
	assert.ErrorIs(t, err, domain.ErrConflict, "referenciada por una NC activa")

	_, err = e.docs.Cancel(ctx, tenant, ncOut.ID, "Emitida por engano")
	require.NoError(t, err)

	out, err := e.docs.Cancel(ctx, tenant, inv.ID, "Erro de digitação")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusCanceled, out.Status)
	assert.Equal(t, "Erro de digitação", out.StatusReason)
	assert.Equal(t, inv.Hash, out.Hash)

	_, err = e.docs.Cancel(ctx, tenant, inv.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrDocumentCanceled)

	_, err = e.docs.Cancel(ctx, tenant, "no-existe", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	report, err := e.docs.VerifyChain(ctx, tenant, "FT24")
	require.NoError(t, err)
	assert.True(t, report.Valid, "anular no altera la cadena")
}

func TestVerifyChain(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)

	report, err := e.docs.VerifyChain(ctx, tenant, "FT24")
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.Documents)

	emitInvoice(t, e, 1, 100)
	last := emitInvoice(t, e, 2, 30)

	report, err = e.docs.VerifyChain(ctx, tenant, "FT24")
	require.NoError(t, err)
	assert.True(t, report.Valid, report.Reason)
	assert.Equal(t, 2, report.Documents)

	// documento insertado por fuera del firmador
	forged := &entity.FaturaCredito{DocumentHeader: entity.DocumentHeader{
		ID: "forged", TenantID: tenant, SeriesCode: "FT24", Number: 3,
		DocumentNo: "FT FT24/3", Date: day(6), CustomerID: "c1",
		Lines:      []entity.DocumentLine{saleLine(1, 1)},
		GrossTotal: decimal.NewFromInt(1), Status: entity.DocumentStatusNormal,
		Hash: "bm8gZXMgdW4gaGFzaCBkZSB2ZXJkYWQgZGUgdmVyZGFkIQ==", PreviousHash: last.Hash, Signature: "eA==",
	}}
	require.NoError(t, e.store.Documents().Create(ctx, forged))
	require.NoError(t, e.store.Series().Advance(ctx, tenant, "FT24", last.Hash, 2, forged.Hash, 3))

	report, err = e.docs.VerifyChain(ctx, tenant, "FT24")
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "FT FT24/3", report.BrokenAt)

	_, err = e.docs.VerifyChain(ctx, tenant, "NOPE")
	assert.ErrorIs(t, err, domain.ErrSeriesNotFound)
}

func TestVerifyChain_SerieDesalineada(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "FT24", entity.DocTypeFatura)
	inv := emitInvoice(t, e, 1, 100)

	require.NoError(t, e.store.Series().Advance(ctx, tenant, "FT24", inv.Hash, 1, "otro", 2))

	report, err := e.docs.VerifyChain(ctx, tenant, "FT24")
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "FT24", report.BrokenAt)
}
