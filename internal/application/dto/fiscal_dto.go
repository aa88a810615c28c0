package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// KeyResponse llave pública de la empresa (la privada nunca sale del KeyStore).
type KeyResponse struct {
	TenantID     string    `json:"tenant_id"`
	PublicKeyPEM string    `json:"public_key_pem"`
	CreatedAt    time.Time `json:"created_at"`
	Existing     bool      `json:"existing,omitempty"` // true si ya existía y no se generó
}

// CreateSeriesRequest body para POST /api/series.
type CreateSeriesRequest struct {
	Code           string `json:"code"`
	DocumentType   string `json:"document_type"` // FR, FT, RC, NC, ND, GT
	ValidationCode string `json:"validation_code"`
}

// SeriesResponse serie fiscal en respuestas.
type SeriesResponse struct {
	Code           string `json:"code"`
	DocumentType   string `json:"document_type"`
	ValidationCode string `json:"validation_code"`
	LastNumber     int64  `json:"last_number"`
	LastHash       string `json:"last_hash"`
	Active         bool   `json:"active"`
}

// DocumentLineRequest línea de un documento a emitir.
type DocumentLineRequest struct {
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

// SettlementRequest liquidación de una fatura dentro de un recibo.
type SettlementRequest struct {
	DocumentNo string          `json:"document_no"`
	Amount     decimal.Decimal `json:"amount"`
}

// EmitDocumentRequest body para POST /api/documents. Los campos de cada variante solo
// aplican a su tipo: payment_mechanism (FR, RC), due_date (FT), reference (NC, ND),
// settlements (RC), direcciones y source_document_no (GT).
type EmitDocumentRequest struct {
	Type             string                `json:"type"`
	SeriesCode       string                `json:"series_code"`
	Date             string                `json:"date"` // YYYY-MM-DD
	CustomerID       string                `json:"customer_id"`
	Lines            []DocumentLineRequest `json:"lines"`
	PaymentMechanism string                `json:"payment_mechanism,omitempty"`
	DueDate          string                `json:"due_date,omitempty"`
	ReferenceNo      string                `json:"reference_no,omitempty"`
	ReferenceReason  string                `json:"reference_reason,omitempty"`
	Settlements      []SettlementRequest   `json:"settlements,omitempty"`
	LoadAddress      string                `json:"load_address,omitempty"`
	DeliveryAddress  string                `json:"delivery_address,omitempty"`
	MovementStart    string                `json:"movement_start,omitempty"` // RFC 3339
	SourceDocumentNo string                `json:"source_document_no,omitempty"`
}

// DocumentResponse documento firmado.
type DocumentResponse struct {
	ID               string                `json:"id"`
	Type             string                `json:"type"`
	DocumentNo       string                `json:"document_no"`
	SeriesCode       string                `json:"series_code"`
	Number           int64                 `json:"number"`
	Date             string                `json:"date"`
	CustomerID       string                `json:"customer_id"`
	SourceID         string                `json:"source_id,omitempty"`
	NetTotal         decimal.Decimal       `json:"net_total"`
	TaxTotal         decimal.Decimal       `json:"tax_total"`
	GrossTotal       decimal.Decimal       `json:"gross_total"`
	Status           string                `json:"status"`
	StatusReason     string                `json:"status_reason,omitempty"`
	Hash             string                `json:"hash"`
	PreviousHash     string                `json:"previous_hash"`
	Signature        string                `json:"signature"`
	ATCUD            string                `json:"atcud"`
	Lines            []DocumentLineRequest `json:"lines,omitempty"`
	ReferenceNo      string                `json:"reference_no,omitempty"`
	Settlements      []SettlementRequest   `json:"settlements,omitempty"`
	SourceDocumentNo string                `json:"source_document_no,omitempty"`
}

// CancelDocumentRequest body para POST /api/documents/:id/cancel.
type CancelDocumentRequest struct {
	Reason string `json:"reason"`
}

// ChainReport resultado de verificar la cadena de una serie.
type ChainReport struct {
	SeriesCode string `json:"series_code"`
	Documents  int    `json:"documents"`
	Valid      bool   `json:"valid"`
	BrokenAt   string `json:"broken_at,omitempty"` // número del primer documento inválido
	Reason     string `json:"reason,omitempty"`
}

// SaftValidationResponse resultado de validar un SAF-T.
type SaftValidationResponse struct {
	entity.ValidationResult
	Digest string `json:"digest,omitempty"`
}

// ToDocumentResponse arma la respuesta desde cualquier variante.
func ToDocumentResponse(doc entity.FiscalDocument) *DocumentResponse {
	h := doc.Header()
	out := &DocumentResponse{
		ID:           h.ID,
		Type:         string(doc.Type()),
		DocumentNo:   h.DocumentNo,
		SeriesCode:   h.SeriesCode,
		Number:       h.Number,
		Date:         h.Date.Format("2006-01-02"),
		CustomerID:   h.CustomerID,
		SourceID:     h.SourceID,
		NetTotal:     h.NetTotal,
		TaxTotal:     h.TaxTotal,
		GrossTotal:   h.GrossTotal,
		Status:       h.Status,
		StatusReason: h.StatusReason,
		Hash:         h.Hash,
		PreviousHash: h.PreviousHash,
		Signature:    h.Signature,
		ATCUD:        h.ATCUD,
	}
	for _, l := range h.Lines {
		out.Lines = append(out.Lines, DocumentLineRequest{
			ProductCode: l.ProductCode, Description: l.Description, Quantity: l.Quantity,
			UnitOfMeasure: l.UnitOfMeasure, UnitPrice: l.UnitPrice, TaxType: l.TaxType, TaxCode: l.TaxCode,
			TaxPercentage: l.TaxPercentage, ExemptionCode: l.ExemptionCode, ExemptionReason: l.ExemptionReason,
		})
	}
	switch d := doc.(type) {
	case *entity.NotaCredito:
		out.ReferenceNo = d.Reference.DocumentNo
	case *entity.NotaDebito:
		out.ReferenceNo = d.Reference.DocumentNo
	case *entity.Recibo:
		for _, s := range d.Settlements {
			out.Settlements = append(out.Settlements, SettlementRequest{DocumentNo: s.DocumentNo, Amount: s.Amount})
		}
	case *entity.DocumentoTransporte:
		out.SourceDocumentNo = d.SourceDocumentNo
	}
	return out
}
