package fiscal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	domfiscal "github.com/jhoicas/fiscal-ao/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

const dateLayout = "2006-01-02"

// DocumentUseCase ciclo de vida de los documentos fiscales: emisión firmada, anulación,
// consulta y verificación de la cadena de una serie.
type DocumentUseCase struct {
	series    repository.SeriesRepository
	docs      repository.DocumentRepository
	customers repository.CustomerRepository
	keys      repository.KeyStore
	tx        FiscalTxRunner
	signer    *DocumentSigner
	log       *logger.Logger
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	series repository.SeriesRepository,
	docs repository.DocumentRepository,
	customers repository.CustomerRepository,
	keys repository.KeyStore,
	tx FiscalTxRunner,
	signer *DocumentSigner,
	log *logger.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		series:    series,
		docs:      docs,
		customers: customers,
		keys:      keys,
		tx:        tx,
		signer:    signer,
		log:       log,
	}
}

// Emit arma el documento desde el request y lo emite.
func (uc *DocumentUseCase) Emit(ctx context.Context, tenantID, sourceID string, in dto.EmitDocumentRequest) (*dto.DocumentResponse, error) {
	doc, err := buildDocument(in)
	if err != nil {
		return nil, err
	}
	signed, err := uc.EmitDocument(ctx, tenantID, sourceID, doc)
	if err != nil {
		return nil, err
	}
	return dto.ToDocumentResponse(signed), nil
}

// EmitDocument valida, calcula totales, firma y persiste el documento en una sola
// transacción. Las reglas entre documentos (saldo de la fatura, crédito acumulado) se
// evalúan dentro de la transacción de firma.
func (uc *DocumentUseCase) EmitDocument(ctx context.Context, tenantID, sourceID string, doc entity.FiscalDocument) (entity.FiscalDocument, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	h := doc.Header()
	h.ID = uuid.New().String()
	h.TenantID = tenantID
	h.SourceID = sourceID
	h.Status = entity.DocumentStatusNormal
	h.SystemEntryDate = now
	h.Number, h.DocumentNo = 0, ""
	h.Hash, h.PreviousHash, h.Signature, h.ATCUD = "", "", "", ""

	if rc, ok := doc.(*entity.Recibo); ok {
		total := decimal.Zero
		for _, s := range rc.Settlements {
			total = total.Add(s.Amount)
		}
		h.NetTotal = total.Round(2)
		h.TaxTotal = decimal.Zero
		h.GrossTotal = h.NetTotal
	} else {
		h.ComputeTotals()
	}

	if err := domfiscal.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	series, err := uc.series.Get(ctx, tenantID, h.SeriesCode)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, h.SeriesCode)
	}
	if series.DocumentType != doc.Type() {
		return nil, fmt.Errorf("%w: la serie %s es de %s, no de %s", domain.ErrInvalidInput, series.Code, series.DocumentType, doc.Type())
	}
	customer, err := uc.customers.GetByID(ctx, tenantID, h.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, h.CustomerID)
	}

	persist := func(ctx context.Context, res *entity.SignedResult, docRepo repository.DocumentRepository) error {
		if err := checkLinkedDocuments(ctx, tenantID, doc, docRepo); err != nil {
			return err
		}
		h.Number = res.Number
		h.DocumentNo = entity.FormatDocumentNo(doc.Type(), series.Code, res.Number)
		h.Hash = res.Hash
		h.PreviousHash = res.PreviousHash
		h.Signature = res.Signature
		h.ATCUD = res.ATCUD
		h.CreatedAt = now
		return docRepo.Create(ctx, doc)
	}
	if _, err := uc.signer.Sign(ctx, tenantID, series.Code, domfiscal.FieldsOf(doc), persist); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("document_no", h.DocumentNo).
		Str("atcud", h.ATCUD).
		Str("gross_total", domfiscal.FormatAmount(h.GrossTotal)).
		Msg("documento emitido")
	return doc, nil
}

// checkLinkedDocuments aplica las reglas que dependen de otros documentos de la empresa.
func checkLinkedDocuments(ctx context.Context, tenantID string, doc entity.FiscalDocument, docRepo repository.DocumentRepository) error {
	switch d := doc.(type) {
	case *entity.NotaCredito:
		return checkReference(ctx, tenantID, doc, d.Reference.DocumentNo, docRepo)
	case *entity.NotaDebito:
		return checkReference(ctx, tenantID, doc, d.Reference.DocumentNo, docRepo)
	case *entity.Recibo:
		// un recibo puede traer varias líneas para la misma fatura
		totals := make(map[string]decimal.Decimal)
		var order []string
		for _, s := range d.Settlements {
			if _, ok := totals[s.DocumentNo]; !ok {
				order = append(order, s.DocumentNo)
			}
			totals[s.DocumentNo] = totals[s.DocumentNo].Add(s.Amount)
		}
		// orden fijo de bloqueo entre recibos concurrentes
		sort.Strings(order)
		for _, no := range order {
			invoice, err := docRepo.GetByNumberForUpdate(ctx, tenantID, no)
			if err != nil {
				return err
			}
			var related []entity.FiscalDocument
			if invoice != nil {
				if related, err = docRepo.ListReferencing(ctx, tenantID, no); err != nil {
					return err
				}
			}
			s := entity.Settlement{DocumentNo: no, Amount: totals[no]}
			if err := domfiscal.ValidateSettlement(tenantID, s, invoice, related); err != nil {
				return err
			}
		}
	case *entity.DocumentoTransporte:
		if d.SourceDocumentNo == "" {
			return nil
		}
		source, err := docRepo.GetByNumberForUpdate(ctx, tenantID, d.SourceDocumentNo)
		if err != nil {
			return err
		}
		return domfiscal.ValidateTransportSource(tenantID, source)
	}
	return nil
}

func checkReference(ctx context.Context, tenantID string, doc entity.FiscalDocument, originNo string, docRepo repository.DocumentRepository) error {
	origin, err := docRepo.GetByNumberForUpdate(ctx, tenantID, originNo)
	if err != nil {
		return err
	}
	var previous []entity.FiscalDocument
	if origin != nil {
		if previous, err = docRepo.ListReferencing(ctx, tenantID, originNo); err != nil {
			return err
		}
	}
	return domfiscal.ValidateReference(doc, origin, previous)
}

// Cancel anula un documento firmado (estado A). El hash y los campos fiscales no cambian.
func (uc *DocumentUseCase) Cancel(ctx context.Context, tenantID, id, reason string) (*dto.DocumentResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motivo de anulación requerido", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	var canceled entity.FiscalDocument
	err := uc.tx.RunFiscal(ctx, func(_ repository.SeriesRepository, docRepo repository.DocumentRepository) error {
		doc, err := docRepo.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
		}
		// bloquea la fila frente a NC, ND, RC o GT que la referencien en paralelo
		if no := doc.Header().DocumentNo; no != "" {
			if doc, err = docRepo.GetByNumberForUpdate(ctx, tenantID, no); err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
			}
		}
		h := doc.Header()
		referencing, err := docRepo.ListReferencing(ctx, tenantID, h.DocumentNo)
		if err != nil {
			return err
		}
		if err := domfiscal.CanCancel(doc, referencing); err != nil {
			return err
		}
		if err := docRepo.UpdateStatus(ctx, tenantID, id, entity.DocumentStatusCanceled, reason, now); err != nil {
			return err
		}
		h.Status = entity.DocumentStatusCanceled
		h.StatusReason = reason
		h.StatusDate = now
		canceled = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("document_no", canceled.Header().DocumentNo).
		Str("atcud", canceled.Header().ATCUD).
		Msg("documento anulado")
	return dto.ToDocumentResponse(canceled), nil
}

// Get obtiene un documento de la empresa.
func (uc *DocumentUseCase) Get(ctx context.Context, tenantID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.docs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
	}
	return dto.ToDocumentResponse(doc), nil
}

// VerifyChain recorre la serie desde el primer documento: numeración consecutiva,
// enlace previous_hash, hash recalculado y firma. Informa el primer documento roto.
func (uc *DocumentUseCase) VerifyChain(ctx context.Context, tenantID, seriesCode string) (*dto.ChainReport, error) {
	series, err := uc.series.Get(ctx, tenantID, seriesCode)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, seriesCode)
	}
	docs, err := uc.docs.ListBySeries(ctx, tenantID, seriesCode)
	if err != nil {
		return nil, err
	}
	report := &dto.ChainReport{SeriesCode: seriesCode, Documents: len(docs), Valid: true}
	if len(docs) == 0 && series.LastNumber == 0 {
		return report, nil
	}

	kp, err := uc.keys.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if kp == nil {
		return nil, fmt.Errorf("%w: la empresa %s no tiene llave pública", domain.ErrNotFound, tenantID)
	}
	pub, err := signer.ParsePublicKeyPEM(kp.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}

	broken := func(at, reason string) (*dto.ChainReport, error) {
		report.Valid = false
		report.BrokenAt = at
		report.Reason = reason
		uc.log.Warn().Str("tenant_id", tenantID).Str("series", seriesCode).Str("broken_at", at).Msg(reason)
		return report, nil
	}

	prev := ""
	for i, doc := range docs {
		h := doc.Header()
		switch {
		case h.Number != int64(i+1):
			return broken(h.DocumentNo, fmt.Sprintf("numeración no consecutiva: se esperaba %d", i+1))
		case h.PreviousHash != prev:
			return broken(h.DocumentNo, "previous_hash no coincide con el documento anterior")
		case domfiscal.HashOf(doc) != h.Hash:
			return broken(h.DocumentNo, "el hash no corresponde a los campos fiscales")
		case !uc.signer.Verify(pub, h.Hash, h.Signature):
			return broken(h.DocumentNo, "firma inválida")
		}
		prev = h.Hash
	}
	if series.LastHash != prev || series.LastNumber != int64(len(docs)) {
		return broken(series.Code, "la serie no apunta al último documento firmado")
	}
	return report, nil
}

// buildDocument traduce el request a la variante según su tipo.
func buildDocument(in dto.EmitDocumentRequest) (entity.FiscalDocument, error) {
	docType := entity.DocumentType(strings.ToUpper(strings.TrimSpace(in.Type)))
	doc, err := entity.NewDocument(docType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	h := doc.Header()
	h.SeriesCode = strings.TrimSpace(in.SeriesCode)
	h.Date = date
	h.CustomerID = in.CustomerID
	for i, l := range in.Lines {
		h.Lines = append(h.Lines, entity.DocumentLine{
			LineNumber:      i + 1,
			ProductCode:     l.ProductCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitOfMeasure:   l.UnitOfMeasure,
			UnitPrice:       l.UnitPrice,
			TaxType:         strings.ToUpper(l.TaxType),
			TaxCode:         strings.ToUpper(l.TaxCode),
			TaxPercentage:   l.TaxPercentage,
			ExemptionCode:   l.ExemptionCode,
			ExemptionReason: l.ExemptionReason,
		})
	}

	switch d := doc.(type) {
	case *entity.Venda:
		d.PaymentMechanism = in.PaymentMechanism
	case *entity.FaturaCredito:
		if in.DueDate != "" {
			if d.DueDate, err = parseDate("due_date", in.DueDate); err != nil {
				return nil, err
			}
		}
	case *entity.Recibo:
		d.PaymentMechanism = in.PaymentMechanism
		for _, s := range in.Settlements {
			d.Settlements = append(d.Settlements, entity.Settlement{DocumentNo: strings.TrimSpace(s.DocumentNo), Amount: s.Amount})
		}
	case *entity.NotaCredito:
		d.Reference = entity.Reference{DocumentNo: strings.TrimSpace(in.ReferenceNo), Reason: in.ReferenceReason}
	case *entity.NotaDebito:
		d.Reference = entity.Reference{DocumentNo: strings.TrimSpace(in.ReferenceNo), Reason: in.ReferenceReason}
	case *entity.DocumentoTransporte:
		d.LoadAddress = in.LoadAddress
		d.DeliveryAddress = in.DeliveryAddress
		d.SourceDocumentNo = strings.TrimSpace(in.SourceDocumentNo)
		if in.MovementStart != "" {
			if d.MovementStart, err = time.Parse(time.RFC3339, in.MovementStart); err != nil {
				return nil, fmt.Errorf("%w: movement_start debe ser RFC 3339", domain.ErrInvalidInput)
			}
		}
	}
	return doc, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s debe tener formato YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return t, nil
}
