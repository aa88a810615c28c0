package fiscal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
)

// ErrInvalidDocument agrupa errores de validación de un documento antes de firmar.
var ErrInvalidDocument = errors.New("documento fiscal inválido")

// ValidateDocument valida la estructura del documento según su variante.
// No consulta otros documentos: las reglas entre documentos están en ValidateReference y
// ValidateSettlement.
func ValidateDocument(doc entity.FiscalDocument) error {
	if doc == nil || doc.Header() == nil {
		return fmt.Errorf("%w: documento nulo", ErrInvalidDocument)
	}
	h := doc.Header()
	var errs []error

	if h.TenantID == "" {
		errs = append(errs, errors.New("empresa requerida"))
	}
	if h.SeriesCode == "" {
		errs = append(errs, errors.New("serie requerida"))
	}
	if h.Date.IsZero() {
		errs = append(errs, errors.New("fecha del documento requerida"))
	}
	if h.CustomerID == "" {
		errs = append(errs, errors.New("cliente requerido"))
	}

	switch d := doc.(type) {
	case *entity.Recibo:
		if len(d.Settlements) == 0 {
			errs = append(errs, errors.New("el recibo debe liquidar al menos una fatura"))
		}
		for i, s := range d.Settlements {
			if strings.TrimSpace(s.DocumentNo) == "" {
				errs = append(errs, fmt.Errorf("liquidación %d: documento requerido", i+1))
			}
			if !s.Amount.GreaterThan(decimal.Zero) {
				errs = append(errs, fmt.Errorf("liquidación %d: importe debe ser positivo", i+1))
			}
		}
		if !agt.ValidPaymentMechanism(d.PaymentMechanism) {
			errs = append(errs, fmt.Errorf("mecanismo de pago %q inválido", d.PaymentMechanism))
		}
	case *entity.Venda:
		errs = append(errs, validateLines(h.Lines, false)...)
		if !agt.ValidPaymentMechanism(d.PaymentMechanism) {
			errs = append(errs, fmt.Errorf("mecanismo de pago %q inválido", d.PaymentMechanism))
		}
	case *entity.FaturaCredito:
		errs = append(errs, validateLines(h.Lines, false)...)
		if !d.DueDate.IsZero() && d.DueDate.Before(h.Date) {
			errs = append(errs, errors.New("la fecha de vencimiento es anterior a la fecha del documento"))
		}
	case *entity.NotaCredito:
		errs = append(errs, validateLines(h.Lines, false)...)
		errs = append(errs, validateReferenceFields(d.Reference)...)
	case *entity.NotaDebito:
		errs = append(errs, validateLines(h.Lines, false)...)
		errs = append(errs, validateReferenceFields(d.Reference)...)
	case *entity.DocumentoTransporte:
		errs = append(errs, validateLines(h.Lines, true)...)
		if strings.TrimSpace(d.LoadAddress) == "" || strings.TrimSpace(d.DeliveryAddress) == "" {
			errs = append(errs, errors.New("direcciones de carga y descarga requeridas"))
		}
		if !d.MovementStart.IsZero() && d.MovementStart.Before(h.Date) {
			errs = append(errs, errors.New("el inicio del transporte es anterior a la fecha del documento"))
		}
	default:
		errs = append(errs, fmt.Errorf("variante de documento no soportada: %T", doc))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDocument}, errs...)...)
	}
	return nil
}

func validateReferenceFields(ref entity.Reference) []error {
	var errs []error
	if strings.TrimSpace(ref.DocumentNo) == "" {
		errs = append(errs, errors.New("documento de origen requerido"))
	}
	if strings.TrimSpace(ref.Reason) == "" {
		errs = append(errs, errors.New("motivo de la corrección requerido"))
	}
	return errs
}

// validateLines: en guías de transporte el precio puede ser cero.
func validateLines(lines []entity.DocumentLine, allowZeroPrice bool) []error {
	if len(lines) == 0 {
		return []error{errors.New("el documento debe tener al menos una línea")}
	}
	var errs []error
	for i, l := range lines {
		n := i + 1
		if strings.TrimSpace(l.ProductCode) == "" {
			errs = append(errs, fmt.Errorf("línea %d: código de producto requerido", n))
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			errs = append(errs, fmt.Errorf("línea %d: cantidad debe ser positiva", n))
		}
		if l.UnitPrice.IsNegative() || (!allowZeroPrice && l.UnitPrice.IsZero()) {
			errs = append(errs, fmt.Errorf("línea %d: precio unitario inválido", n))
		}
		if !agt.ValidTaxType(l.TaxType) {
			errs = append(errs, fmt.Errorf("línea %d: tipo de imposto %q inválido", n, l.TaxType))
		}
		if l.TaxPercentage.IsNegative() {
			errs = append(errs, fmt.Errorf("línea %d: porcentaje de imposto negativo", n))
		}
		if l.TaxPercentage.IsZero() && !agt.ValidExemptionCode(l.ExemptionCode) {
			errs = append(errs, fmt.Errorf("línea %d: línea isenta requiere código de isenção válido", n))
		}
	}
	return errs
}

// ValidateReference valida una NC/ND contra el documento de origen y las correcciones previas.
// origin debe ser una FT/FR firmada, no anulada, de la misma empresa. Para NC, la suma de
// notas de crédito activas más la nueva no puede superar el total bruto del origen.
func ValidateReference(doc entity.FiscalDocument, origin entity.FiscalDocument, previous []entity.FiscalDocument) error {
	if origin == nil {
		return fmt.Errorf("%w: no existe", domain.ErrInvalidReference)
	}
	oh := origin.Header()
	if oh.TenantID != doc.Header().TenantID {
		return fmt.Errorf("%w: pertenece a otra empresa", domain.ErrInvalidReference)
	}
	if t := origin.Type(); t != entity.DocTypeFatura && t != entity.DocTypeFaturaRecibo {
		return fmt.Errorf("%w: %s no admite correcciones", domain.ErrInvalidReference, t)
	}
	if !oh.IsSigned() {
		return fmt.Errorf("%w: %s no está firmado", domain.ErrInvalidReference, oh.DocumentNo)
	}
	if oh.IsCanceled() {
		return fmt.Errorf("%w: %s está anulado", domain.ErrInvalidReference, oh.DocumentNo)
	}
	if doc.Type() != entity.DocTypeNotaCredito {
		return nil
	}
	credited := doc.Header().GrossTotal
	for _, p := range previous {
		if p.Type() == entity.DocTypeNotaCredito && !p.Header().IsCanceled() {
			credited = credited.Add(p.Header().GrossTotal)
		}
	}
	if credited.GreaterThan(oh.GrossTotal) {
		return fmt.Errorf("%w: crédito acumulado %s sobre total %s de %s",
			domain.ErrAmountExceeded, FormatAmount(credited), FormatAmount(oh.GrossTotal), oh.DocumentNo)
	}
	return nil
}

// Outstanding saldo pendiente de una FT: bruto - NC + ND - recibos, considerando solo
// documentos activos. related son los documentos que referencian a invoice.
func Outstanding(invoice entity.FiscalDocument, related []entity.FiscalDocument) decimal.Decimal {
	h := invoice.Header()
	balance := h.GrossTotal
	for _, r := range related {
		rh := r.Header()
		if rh.IsCanceled() || !rh.IsSigned() {
			continue
		}
		switch d := r.(type) {
		case *entity.NotaCredito:
			balance = balance.Sub(rh.GrossTotal)
		case *entity.NotaDebito:
			balance = balance.Add(rh.GrossTotal)
		case *entity.Recibo:
			for _, s := range d.Settlements {
				if s.DocumentNo == h.DocumentNo {
					balance = balance.Sub(s.Amount)
				}
			}
		}
	}
	return balance
}

// ValidateSettlement valida una liquidación de recibo contra la fatura a crédito y sus
// documentos relacionados.
func ValidateSettlement(tenantID string, s entity.Settlement, invoice entity.FiscalDocument, related []entity.FiscalDocument) error {
	if invoice == nil {
		return fmt.Errorf("%w: %s no existe", domain.ErrInvalidReference, s.DocumentNo)
	}
	ih := invoice.Header()
	if ih.TenantID != tenantID {
		return fmt.Errorf("%w: %s pertenece a otra empresa", domain.ErrInvalidReference, s.DocumentNo)
	}
	if invoice.Type() != entity.DocTypeFatura {
		return fmt.Errorf("%w: solo se liquidan faturas a crédito (FT), no %s", domain.ErrInvalidReference, invoice.Type())
	}
	if !ih.IsSigned() || ih.IsCanceled() {
		return fmt.Errorf("%w: %s no está firmada o está anulada", domain.ErrInvalidReference, s.DocumentNo)
	}
	if out := Outstanding(invoice, related); s.Amount.GreaterThan(out) {
		return fmt.Errorf("%w: %s tiene saldo %s, se intentó liquidar %s",
			domain.ErrAmountExceeded, s.DocumentNo, FormatAmount(out), FormatAmount(s.Amount))
	}
	return nil
}

// ValidateTransportSource valida que la guía apunte a una FT/FR firmada y activa.
func ValidateTransportSource(tenantID string, source entity.FiscalDocument) error {
	if source == nil {
		return fmt.Errorf("%w: documento de origen de la guía no existe", domain.ErrInvalidReference)
	}
	sh := source.Header()
	if sh.TenantID != tenantID {
		return fmt.Errorf("%w: pertenece a otra empresa", domain.ErrInvalidReference)
	}
	if t := source.Type(); t != entity.DocTypeFatura && t != entity.DocTypeFaturaRecibo {
		return fmt.Errorf("%w: una guía solo puede originarse en FT/FR, no %s", domain.ErrInvalidReference, t)
	}
	if !sh.IsSigned() || sh.IsCanceled() {
		return fmt.Errorf("%w: %s no está firmado o está anulado", domain.ErrInvalidReference, sh.DocumentNo)
	}
	return nil
}

// CanCancel indica si un documento firmado puede anularse: no puede tener documentos activos
// que lo referencien (corrija primero anulando la NC/ND/RC/GT dependiente).
func CanCancel(doc entity.FiscalDocument, referencing []entity.FiscalDocument) error {
	h := doc.Header()
	if !h.IsSigned() {
		return fmt.Errorf("%w: %s no está firmado", ErrInvalidDocument, h.DocumentNo)
	}
	if h.IsCanceled() {
		return fmt.Errorf("%w: %s ya está anulado", domain.ErrDocumentCanceled, h.DocumentNo)
	}
	for _, r := range referencing {
		if !r.Header().IsCanceled() {
			return fmt.Errorf("%w: %s está referenciado por %s", domain.ErrConflict, h.DocumentNo, r.Header().DocumentNo)
		}
	}
	return nil
}
