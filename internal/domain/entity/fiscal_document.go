package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tipo de documento fiscal AGT (InvoiceType / MovementType / PaymentType del SAF-T).
type DocumentType string

const (
	DocTypeFaturaRecibo        DocumentType = "FR" // Venda (POS, pagada en el acto)
	DocTypeFatura              DocumentType = "FT" // Fatura a crédito
	DocTypeRecibo              DocumentType = "RC"
	DocTypeNotaCredito         DocumentType = "NC"
	DocTypeNotaDebito          DocumentType = "ND"
	DocTypeDocumentoTransporte DocumentType = "GT" // Guia de Transporte
)

// IsSalesInvoice indica si el tipo va en SourceDocuments/SalesInvoices.
func (t DocumentType) IsSalesInvoice() bool {
	switch t {
	case DocTypeFaturaRecibo, DocTypeFatura, DocTypeNotaCredito, DocTypeNotaDebito:
		return true
	}
	return false
}

// Valid indica si el tipo es uno de los soportados.
func (t DocumentType) Valid() bool {
	return t.IsSalesInvoice() || t == DocTypeRecibo || t == DocTypeDocumentoTransporte
}

// Estado del documento (InvoiceStatus / MovementStatus / PaymentStatus).
const (
	DocumentStatusNormal   = "N"
	DocumentStatusCanceled = "A" // Anulado
)

// Mecanismos de pago SAF-T AO (PaymentMechanism).
const (
	PaymentCash     = "NU" // Numerário
	PaymentCard     = "CC" // Cartão de crédito
	PaymentDebit    = "CD" // Cartão de débito
	PaymentTransfer = "TB" // Transferência bancária
	PaymentCheque   = "CH"
	PaymentOther    = "OU"
)

// DocumentHeader contiene los campos comunes a todas las variantes de documento fiscal.
// Los campos fiscales (fecha, tipo, serie, número, totales) y el Hash son inmutables una
// vez firmado: cualquier corrección se hace con un documento nuevo (NC/ND).
type DocumentHeader struct {
	ID              string
	TenantID        string
	SeriesCode      string
	Number          int64
	DocumentNo      string // "{TIPO} {SERIE}/{NÚMERO}", ej: "FT 2024A/12"
	Date            time.Time
	SystemEntryDate time.Time
	CustomerID      string
	SourceID        string // operador que emitió el documento
	Lines           []DocumentLine
	NetTotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	GrossTotal      decimal.Decimal

	Status       string
	StatusReason string
	StatusDate   time.Time

	Hash         string // vacío = no firmado (borrador), excluido del SAF-T
	PreviousHash string
	Signature    string
	ATCUD        string
	CreatedAt    time.Time
}

// IsSigned indica si el documento completó la firma.
func (h *DocumentHeader) IsSigned() bool { return h.Hash != "" }

// IsCanceled indica si el documento está anulado.
func (h *DocumentHeader) IsCanceled() bool { return h.Status == DocumentStatusCanceled }

// ComputeTotals recalcula NetTotal, TaxTotal y GrossTotal desde las líneas (2 decimales).
func (h *DocumentHeader) ComputeTotals() {
	var net, tax decimal.Decimal
	for i := range h.Lines {
		net = net.Add(h.Lines[i].Net())
		tax = tax.Add(h.Lines[i].Tax())
	}
	h.NetTotal = net.Round(2)
	h.TaxTotal = tax.Round(2)
	h.GrossTotal = h.NetTotal.Add(h.TaxTotal)
}

// FormatDocumentNo arma el número de documento AGT.
func FormatDocumentNo(t DocumentType, seriesCode string, number int64) string {
	return fmt.Sprintf("%s %s/%d", t, seriesCode, number)
}

// FiscalDocument es la unión cerrada de los documentos fiscales firmables.
// Las variantes se resuelven con type switch, nunca por reflexión.
type FiscalDocument interface {
	Header() *DocumentHeader
	Type() DocumentType
	fiscalDocument()
}

// Reference vincula un documento de corrección (NC/ND) con su documento de origen.
type Reference struct {
	DocumentNo string
	Reason     string
}

// Settlement liquidación de una fatura dentro de un Recibo.
type Settlement struct {
	DocumentNo string
	Amount     decimal.Decimal
}

// Venda fatura-recibo emitida en el POS (pagada en el acto).
type Venda struct {
	DocumentHeader
	PaymentMechanism string
}

// FaturaCredito fatura con pago diferido.
type FaturaCredito struct {
	DocumentHeader
	DueDate time.Time
}

// Recibo liquida una o varias FaturaCredito.
type Recibo struct {
	DocumentHeader
	PaymentMechanism string
	Settlements      []Settlement
}

// NotaCredito corrige (a la baja) una FT/FR ya firmada.
type NotaCredito struct {
	DocumentHeader
	Reference Reference
}

// NotaDebito corrige (al alza) una FT/FR ya firmada.
type NotaDebito struct {
	DocumentHeader
	Reference Reference
}

// DocumentoTransporte guía de transporte de mercancía.
type DocumentoTransporte struct {
	DocumentHeader
	LoadAddress      string
	DeliveryAddress  string
	MovementStart    time.Time
	SourceDocumentNo string // FT/FR que origina el transporte (opcional)
}

func (d *Venda) Header() *DocumentHeader               { return &d.DocumentHeader }
func (d *FaturaCredito) Header() *DocumentHeader       { return &d.DocumentHeader }
func (d *Recibo) Header() *DocumentHeader              { return &d.DocumentHeader }
func (d *NotaCredito) Header() *DocumentHeader         { return &d.DocumentHeader }
func (d *NotaDebito) Header() *DocumentHeader          { return &d.DocumentHeader }
func (d *DocumentoTransporte) Header() *DocumentHeader { return &d.DocumentHeader }

func (*Venda) Type() DocumentType               { return DocTypeFaturaRecibo }
func (*FaturaCredito) Type() DocumentType       { return DocTypeFatura }
func (*Recibo) Type() DocumentType              { return DocTypeRecibo }
func (*NotaCredito) Type() DocumentType         { return DocTypeNotaCredito }
func (*NotaDebito) Type() DocumentType          { return DocTypeNotaDebito }
func (*DocumentoTransporte) Type() DocumentType { return DocTypeDocumentoTransporte }

func (*Venda) fiscalDocument()               {}
func (*FaturaCredito) fiscalDocument()       {}
func (*Recibo) fiscalDocument()              {}
func (*NotaCredito) fiscalDocument()         {}
func (*NotaDebito) fiscalDocument()          {}
func (*DocumentoTransporte) fiscalDocument() {}

// NewDocument crea la variante vacía para un tipo (usado por los repositorios al leer).
func NewDocument(t DocumentType) (FiscalDocument, error) {
	switch t {
	case DocTypeFaturaRecibo:
		return &Venda{}, nil
	case DocTypeFatura:
		return &FaturaCredito{}, nil
	case DocTypeRecibo:
		return &Recibo{}, nil
	case DocTypeNotaCredito:
		return &NotaCredito{}, nil
	case DocTypeNotaDebito:
		return &NotaDebito{}, nil
	case DocTypeDocumentoTransporte:
		return &DocumentoTransporte{}, nil
	default:
		return nil, fmt.Errorf("tipo de documento desconocido %q", t)
	}
}

// ReferencedDocuments devuelve los números de documento a los que apunta doc (NC/ND/RC/GT).
func ReferencedDocuments(doc FiscalDocument) []string {
	switch d := doc.(type) {
	case *NotaCredito:
		return []string{d.Reference.DocumentNo}
	case *NotaDebito:
		return []string{d.Reference.DocumentNo}
	case *Recibo:
		refs := make([]string, 0, len(d.Settlements))
		for _, s := range d.Settlements {
			refs = append(refs, s.DocumentNo)
		}
		return refs
	case *DocumentoTransporte:
		if d.SourceDocumentNo != "" {
			return []string{d.SourceDocumentNo}
		}
	}
	return nil
}
