package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
// Las líneas y liquidaciones van en JSONB; refs guarda los números de documento a los
// que apunta el documento (NC/ND/RC/GT) para ListReferencing.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// lineRecord forma JSONB de una línea.
type lineRecord struct {
	LineNumber      int             `json:"line_number"`
	ProductCode     string          `json:"product_code"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitOfMeasure   string          `json:"unit_of_measure,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TaxType         string          `json:"tax_type"`
	TaxCode         string          `json:"tax_code"`
	TaxPercentage   decimal.Decimal `json:"tax_percentage"`
	ExemptionCode   string          `json:"exemption_code,omitempty"`
	ExemptionReason string          `json:"exemption_reason,omitempty"`
}

type settlementRecord struct {
	DocumentNo string          `json:"document_no"`
	Amount     decimal.Decimal `json:"amount"`
}

const documentColumns = `id, company_id, type, series_code, number, document_no, date, system_entry_date,
	customer_id, source_id, lines, net_total, tax_total, gross_total,
	status, status_reason, status_date, hash, previous_hash, signature, atcud,
	payment_mechanism, due_date, reference_no, reference_reason, settlements,
	load_address, delivery_address, movement_start, source_document_no, refs, created_at`

// Create persiste un documento firmado.
func (r *DocumentRepo) Create(ctx context.Context, doc entity.FiscalDocument) error {
	h := doc.Header()
	var (
		paymentMechanism, referenceNo, referenceReason string
		loadAddress, deliveryAddress, sourceDocumentNo string
		dueDate, movementStart                         time.Time
		settlements                                    []settlementRecord
	)
	switch d := doc.(type) {
	case *entity.Venda:
		paymentMechanism = d.PaymentMechanism
	case *entity.FaturaCredito:
		dueDate = d.DueDate
	case *entity.Recibo:
		paymentMechanism = d.PaymentMechanism
		for _, s := range d.Settlements {
			settlements = append(settlements, settlementRecord{DocumentNo: s.DocumentNo, Amount: s.Amount})
		}
	case *entity.NotaCredito:
		referenceNo, referenceReason = d.Reference.DocumentNo, d.Reference.Reason
	case *entity.NotaDebito:
		referenceNo, referenceReason = d.Reference.DocumentNo, d.Reference.Reason
	case *entity.DocumentoTransporte:
		loadAddress, deliveryAddress = d.LoadAddress, d.DeliveryAddress
		movementStart = d.MovementStart
		sourceDocumentNo = d.SourceDocumentNo
	}
	lines := make([]lineRecord, 0, len(h.Lines))
	for _, l := range h.Lines {
		lines = append(lines, lineRecord(l))
	}
	refs := entity.ReferencedDocuments(doc)
	if refs == nil {
		refs = []string{}
	}

	query := `INSERT INTO fiscal_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`
	_, err := r.q.Exec(ctx, query,
		h.ID, h.TenantID, string(doc.Type()), h.SeriesCode, h.Number, h.DocumentNo, h.Date, h.SystemEntryDate,
		h.CustomerID, h.SourceID, lines, h.NetTotal, h.TaxTotal, h.GrossTotal,
		h.Status, nullIfEmpty(h.StatusReason), nullTime(h.StatusDate), h.Hash, h.PreviousHash, h.Signature, h.ATCUD,
		nullIfEmpty(paymentMechanism), nullTime(dueDate), nullIfEmpty(referenceNo), nullIfEmpty(referenceReason), settlements,
		nullIfEmpty(loadAddress), nullIfEmpty(deliveryAddress), nullTime(movementStart), nullIfEmpty(sourceDocumentNo), refs, h.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: documento %s", domain.ErrDuplicate, h.DocumentNo)
		}
		return fmt.Errorf("insert fiscal_document: %w", err)
	}
	return nil
}

// GetByID obtiene un documento de la empresa; nil, nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, tenantID, id string) (entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE company_id = $1 AND id = $2`
	return r.getOne(ctx, query, tenantID, id)
}

// GetByNumber obtiene un documento por su número ("FT 2024A/12"); nil, nil si no existe.
func (r *DocumentRepo) GetByNumber(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE company_id = $1 AND document_no = $2`
	return r.getOne(ctx, query, tenantID, documentNo)
}

// GetByNumberForUpdate lee el documento con FOR UPDATE; solo tiene efecto dentro de RunFiscal.
func (r *DocumentRepo) GetByNumberForUpdate(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE company_id = $1 AND document_no = $2 FOR UPDATE`
	return r.getOne(ctx, query, tenantID, documentNo)
}

// ListByPeriod documentos con fecha en [from, to], ordenados por fecha, serie y número.
func (r *DocumentRepo) ListByPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE company_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date, series_code, number`
	return r.list(ctx, query, tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// ListBySeries documentos firmados de la serie por número ascendente.
func (r *DocumentRepo) ListBySeries(ctx context.Context, tenantID, seriesCode string) ([]entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE company_id = $1 AND series_code = $2 AND hash <> ''
		ORDER BY number`
	return r.list(ctx, query, tenantID, seriesCode)
}

// ListReferencing documentos que apuntan a documentNo.
func (r *DocumentRepo) ListReferencing(ctx context.Context, tenantID, documentNo string) ([]entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE company_id = $1 AND $2 = ANY(refs)
		ORDER BY created_at`
	return r.list(ctx, query, tenantID, documentNo)
}

// UpdateStatus cambia solo el estado del documento.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, tenantID, id, status, reason string, at time.Time) error {
	query := `
		UPDATE fiscal_documents SET status = $3, status_reason = $4, status_date = $5
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query, tenantID, id, status, nullIfEmpty(reason), at)
	if err != nil {
		return fmt.Errorf("update fiscal_document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (entity.FiscalDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) list(ctx context.Context, query string, args ...any) ([]entity.FiscalDocument, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fiscal_documents: %w", err)
	}
	defer rows.Close()
	var out []entity.FiscalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (entity.FiscalDocument, error) {
	var (
		h                                              entity.DocumentHeader
		docType                                        string
		lines                                          []lineRecord
		statusReason, paymentMechanism                 *string
		referenceNo, referenceReason                   *string
		loadAddress, deliveryAddress, sourceDocumentNo *string
		statusDate, dueDate, movementStart             *time.Time
		settlements                                    []settlementRecord
		refs                                           []string
	)
	err := row.Scan(
		&h.ID, &h.TenantID, &docType, &h.SeriesCode, &h.Number, &h.DocumentNo, &h.Date, &h.SystemEntryDate,
		&h.CustomerID, &h.SourceID, &lines, &h.NetTotal, &h.TaxTotal, &h.GrossTotal,
		&h.Status, &statusReason, &statusDate, &h.Hash, &h.PreviousHash, &h.Signature, &h.ATCUD,
		&paymentMechanism, &dueDate, &referenceNo, &referenceReason, &settlements,
		&loadAddress, &deliveryAddress, &movementStart, &sourceDocumentNo, &refs, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan fiscal_document: %w", err)
	}
	h.StatusReason = derefStr(statusReason)
	h.StatusDate = derefTime(statusDate)
	h.Date = h.Date.UTC()
	for _, l := range lines {
		h.Lines = append(h.Lines, entity.DocumentLine(l))
	}

	doc, err := entity.NewDocument(entity.DocumentType(docType))
	if err != nil {
		return nil, err
	}
	*doc.Header() = h
	switch d := doc.(type) {
	case *entity.Venda:
		d.PaymentMechanism = derefStr(paymentMechanism)
	case *entity.FaturaCredito:
		d.DueDate = derefTime(dueDate)
	case *entity.Recibo:
		d.PaymentMechanism = derefStr(paymentMechanism)
		for _, s := range settlements {
			d.Settlements = append(d.Settlements, entity.Settlement{DocumentNo: s.DocumentNo, Amount: s.Amount})
		}
	case *entity.NotaCredito:
		d.Reference = entity.Reference{DocumentNo: derefStr(referenceNo), Reason: derefStr(referenceReason)}
	case *entity.NotaDebito:
		d.Reference = entity.Reference{DocumentNo: derefStr(referenceNo), Reason: derefStr(referenceReason)}
	case *entity.DocumentoTransporte:
		d.LoadAddress = derefStr(loadAddress)
		d.DeliveryAddress = derefStr(deliveryAddress)
		d.MovementStart = derefTime(movementStart)
		d.SourceDocumentNo = derefStr(sourceDocumentNo)
	}
	return doc, nil
}
