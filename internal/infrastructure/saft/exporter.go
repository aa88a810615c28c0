package saft

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
)

// ProducerInfo identifica el software productor en el Header.
type ProducerInfo struct {
	ProductID         string
	ProductVersion    string
	ProductCompanyNIF string
}

// Exporter construye el SAF-T AO de una empresa para un período.
type Exporter struct {
	companies repository.CompanyRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	docs      repository.DocumentRepository
	producer  ProducerInfo
	now       func() time.Time
}

// NewExporter construye el exportador.
func NewExporter(
	companies repository.CompanyRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	docs repository.DocumentRepository,
	producer ProducerInfo,
) *Exporter {
	return &Exporter{
		companies: companies,
		customers: customers,
		products:  products,
		docs:      docs,
		producer:  producer,
		now:       time.Now,
	}
}

// exportData todo lo que entra en el ficheiro, ya filtrado.
type exportData struct {
	company   *entity.Company
	start     time.Time
	end       time.Time
	created   time.Time
	customers []*entity.Customer
	products  []*entity.Product
	taxes     []taxEntry
	invoices  []entity.FiscalDocument // FR, FT, NC, ND
	movements []*entity.DocumentoTransporte
	payments  []*entity.Recibo
	// invoiceDates fecha de cada factura liquidada por un RC, por DocumentNo.
	invoiceDates map[string]time.Time
}

type taxEntry struct {
	taxType string
	code    string
	pct     decimal.Decimal
}

// Export genera el XML (UTF-8) con los documentos firmados de [start, end].
// Los documentos sin hash (borradores) no entran nunca en el ficheiro.
func (e *Exporter) Export(ctx context.Context, tenantID string, start, end time.Time) ([]byte, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: período %s > %s", domain.ErrInvalidInput, start.Format(dateLayout), end.Format(dateLayout))
	}
	company, err := e.companies.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("saft: cargar empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("saft: empresa %s: %w", tenantID, domain.ErrNotFound)
	}
	all, err := e.docs.ListByPeriod(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("saft: listar documentos: %w", err)
	}

	data := &exportData{company: company, start: start, end: end, created: e.now()}
	for _, d := range all {
		if !d.Header().IsSigned() {
			continue
		}
		switch v := d.(type) {
		case *entity.DocumentoTransporte:
			data.movements = append(data.movements, v)
		case *entity.Recibo:
			data.payments = append(data.payments, v)
		default:
			if d.Type().IsSalesInvoice() {
				data.invoices = append(data.invoices, d)
			}
		}
	}
	if err := e.loadMasterFiles(ctx, tenantID, data); err != nil {
		return nil, err
	}
	if err := e.resolveInvoiceDates(ctx, tenantID, all, data); err != nil {
		return nil, err
	}
	return build(data, e.producer)
}

// resolveInvoiceDates busca la fecha de las facturas que liquidan los recibos.
// Las del período ya están cargadas; las anteriores se leen por número.
func (e *Exporter) resolveInvoiceDates(ctx context.Context, tenantID string, all []entity.FiscalDocument, data *exportData) error {
	data.invoiceDates = make(map[string]time.Time)
	if len(data.payments) == 0 {
		return nil
	}
	for _, d := range all {
		h := d.Header()
		data.invoiceDates[h.DocumentNo] = h.Date
	}
	for _, p := range data.payments {
		for _, s := range p.Settlements {
			if _, ok := data.invoiceDates[s.DocumentNo]; ok {
				continue
			}
			inv, err := e.docs.GetByNumber(ctx, tenantID, s.DocumentNo)
			if err != nil {
				return fmt.Errorf("saft: cargar factura %s: %w", s.DocumentNo, err)
			}
			if inv == nil {
				return fmt.Errorf("saft: factura %s liquidada por %s: %w", s.DocumentNo, p.DocumentNo, domain.ErrNotFound)
			}
			data.invoiceDates[s.DocumentNo] = inv.Header().Date
		}
	}
	return nil
}

func (e *Exporter) loadMasterFiles(ctx context.Context, tenantID string, data *exportData) error {
	var customerIDs, productCodes []string
	seenCustomer := map[string]bool{}
	seenProduct := map[string]bool{}
	seenTax := map[string]bool{}
	collect := func(h *entity.DocumentHeader) {
		if !seenCustomer[h.CustomerID] {
			seenCustomer[h.CustomerID] = true
			customerIDs = append(customerIDs, h.CustomerID)
		}
		for _, l := range h.Lines {
			if !seenProduct[l.ProductCode] {
				seenProduct[l.ProductCode] = true
				productCodes = append(productCodes, l.ProductCode)
			}
			k := l.TaxType + "|" + l.TaxCode + "|" + l.TaxPercentage.String()
			if !seenTax[k] {
				seenTax[k] = true
				data.taxes = append(data.taxes, taxEntry{taxType: l.TaxType, code: l.TaxCode, pct: l.TaxPercentage})
			}
		}
	}
	for _, d := range data.invoices {
		collect(d.Header())
	}
	for _, d := range data.movements {
		collect(d.Header())
	}
	for _, d := range data.payments {
		collect(d.Header())
	}

	customers, err := e.customers.ListByIDs(ctx, tenantID, customerIDs)
	if err != nil {
		return fmt.Errorf("saft: cargar clientes: %w", err)
	}
	if len(customers) != len(customerIDs) {
		found := map[string]bool{}
		for _, c := range customers {
			found[c.ID] = true
		}
		for _, id := range customerIDs {
			if !found[id] {
				return fmt.Errorf("saft: cliente %s referenciado por un documento: %w", id, domain.ErrNotFound)
			}
		}
	}
	data.customers = customers

	products, err := e.products.ListByCodes(ctx, tenantID, productCodes)
	if err != nil {
		return fmt.Errorf("saft: cargar productos: %w", err)
	}
	// Un producto dado de baja sigue en los documentos: se reconstruye desde la línea.
	found := map[string]bool{}
	for _, p := range products {
		found[p.Code] = true
	}
	for _, code := range productCodes {
		if !found[code] {
			products = append(products, productFromLines(code, data))
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	data.products = products

	sort.Slice(data.taxes, func(i, j int) bool {
		a, b := data.taxes[i], data.taxes[j]
		if a.taxType != b.taxType {
			return a.taxType < b.taxType
		}
		if a.code != b.code {
			return a.code < b.code
		}
		return a.pct.LessThan(b.pct)
	})
	return nil
}

func productFromLines(code string, data *exportData) *entity.Product {
	p := &entity.Product{Code: code, Type: entity.ProductTypeGoods, Description: code}
	find := func(h *entity.DocumentHeader) bool {
		for _, l := range h.Lines {
			if l.ProductCode == code && l.Description != "" {
				p.Description = l.Description
				return true
			}
		}
		return false
	}
	for _, d := range data.invoices {
		if find(d.Header()) {
			return p
		}
	}
	for _, d := range data.movements {
		if find(d.Header()) {
			return p
		}
	}
	return p
}

func build(data *exportData, producer ProducerInfo) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "AuditFile"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: agt.Namespace},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeHeader(enc, data, producer)
	writeMasterFiles(enc, data)
	openEl(enc, "SourceDocuments")
	writeSalesInvoices(enc, data.invoices)
	if len(data.movements) > 0 {
		writeMovementOfGoods(enc, data.movements)
	}
	if len(data.payments) > 0 {
		writePayments(enc, data.payments, data.invoiceDates)
	}
	closeEl(enc, "SourceDocuments")

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeHeader(enc *xml.Encoder, data *exportData, producer ProducerInfo) {
	c := data.company
	country := c.Country
	if country == "" {
		country = agt.CountryCode
	}
	openEl(enc, "Header")
	writeEl(enc, "AuditFileVersion", agt.SchemaVersion)
	writeEl(enc, "CompanyID", c.NIF)
	writeEl(enc, "TaxRegistrationNumber", c.NIF)
	writeEl(enc, "TaxAccountingBasis", agt.TaxAccountingBasisBilling)
	writeEl(enc, "CompanyName", c.Name)
	openEl(enc, "CompanyAddress")
	writeEl(enc, "AddressDetail", orUnknown(c.Address))
	writeEl(enc, "City", orUnknown(c.City))
	writeEl(enc, "Country", country)
	closeEl(enc, "CompanyAddress")
	writeEl(enc, "FiscalYear", strconv.Itoa(data.start.Year()))
	writeDate(enc, "StartDate", data.start)
	writeDate(enc, "EndDate", data.end)
	writeEl(enc, "CurrencyCode", agt.CurrencyCode)
	writeDate(enc, "DateCreated", data.created)
	writeEl(enc, "TaxEntity", agt.TaxEntityGlobal)
	writeEl(enc, "ProductCompanyTaxID", producer.ProductCompanyNIF)
	writeEl(enc, "SoftwareValidationNumber", c.SoftwareValidationNumber)
	writeEl(enc, "ProductID", producer.ProductID)
	writeEl(enc, "ProductVersion", producer.ProductVersion)
	writeOpt(enc, "Telephone", c.Phone)
	writeOpt(enc, "Email", c.Email)
	closeEl(enc, "Header")
}

func writeMasterFiles(enc *xml.Encoder, data *exportData) {
	openEl(enc, "MasterFiles")
	for _, c := range data.customers {
		country := c.Country
		if country == "" {
			country = agt.CountryCode
		}
		taxID := c.TaxID
		if taxID == "" {
			taxID = agt.ConsumerFinalNIF
		}
		openEl(enc, "Customer")
		writeEl(enc, "CustomerID", c.ID)
		writeEl(enc, "AccountID", "Desconhecido")
		writeEl(enc, "CustomerTaxID", taxID)
		writeEl(enc, "CompanyName", c.Name)
		openEl(enc, "BillingAddress")
		writeEl(enc, "AddressDetail", orUnknown(c.Address))
		writeEl(enc, "City", orUnknown(c.City))
		writeEl(enc, "Country", country)
		closeEl(enc, "BillingAddress")
		writeOpt(enc, "Telephone", c.Phone)
		writeOpt(enc, "Email", c.Email)
		writeEl(enc, "SelfBillingIndicator", "0")
		closeEl(enc, "Customer")
	}
	for _, p := range data.products {
		productType := p.Type
		if productType == "" {
			productType = entity.ProductTypeGoods
		}
		numberCode := p.Barcode
		if numberCode == "" {
			numberCode = p.Code
		}
		openEl(enc, "Product")
		writeEl(enc, "ProductType", productType)
		writeEl(enc, "ProductCode", p.Code)
		writeEl(enc, "ProductDescription", p.Description)
		writeEl(enc, "ProductNumberCode", numberCode)
		closeEl(enc, "Product")
	}
	if len(data.taxes) > 0 {
		openEl(enc, "TaxTable")
		for _, t := range data.taxes {
			desc := agt.TaxCodeDescriptions[t.code]
			if desc == "" {
				desc = t.code
			}
			openEl(enc, "TaxTableEntry")
			writeEl(enc, "TaxType", t.taxType)
			writeEl(enc, "TaxCountryRegion", agt.CountryCode)
			writeEl(enc, "TaxCode", t.code)
			writeEl(enc, "Description", desc)
			writeAmount(enc, "TaxPercentage", t.pct)
			closeEl(enc, "TaxTableEntry")
		}
		closeEl(enc, "TaxTable")
	}
	closeEl(enc, "MasterFiles")
}

// writeSalesInvoices: los anulados se exportan con estado A pero no suman en los totales de
// control. Las NC van a débito; FR, FT y ND a crédito.
func writeSalesInvoices(enc *xml.Encoder, invoices []entity.FiscalDocument) {
	var debit, credit decimal.Decimal
	for _, d := range invoices {
		h := d.Header()
		if h.IsCanceled() {
			continue
		}
		if d.Type() == entity.DocTypeNotaCredito {
			debit = debit.Add(h.NetTotal)
		} else {
			credit = credit.Add(h.NetTotal)
		}
	}
	openEl(enc, "SalesInvoices")
	writeEl(enc, "NumberOfEntries", strconv.Itoa(len(invoices)))
	writeAmount(enc, "TotalDebit", debit)
	writeAmount(enc, "TotalCredit", credit)
	for _, d := range invoices {
		writeInvoice(enc, d)
	}
	closeEl(enc, "SalesInvoices")
}

func writeInvoice(enc *xml.Encoder, d entity.FiscalDocument) {
	h := d.Header()
	openEl(enc, "Invoice")
	writeEl(enc, "InvoiceNo", h.DocumentNo)
	writeEl(enc, "ATCUD", h.ATCUD)
	openEl(enc, "DocumentStatus")
	writeEl(enc, "InvoiceStatus", h.Status)
	writeDateTime(enc, "InvoiceStatusDate", statusDate(h))
	writeOpt(enc, "Reason", h.StatusReason)
	writeEl(enc, "SourceID", h.SourceID)
	writeEl(enc, "SourceBilling", agt.SourceBillingProgram)
	closeEl(enc, "DocumentStatus")
	writeEl(enc, "Hash", h.Hash)
	writeEl(enc, "HashControl", agt.HashControlVersion)
	writeEl(enc, "Period", strconv.Itoa(int(h.Date.Month())))
	writeDate(enc, "InvoiceDate", h.Date)
	writeEl(enc, "InvoiceType", string(d.Type()))
	openEl(enc, "SpecialRegimes")
	writeEl(enc, "SelfBillingIndicator", "0")
	writeEl(enc, "CashVATSchemeIndicator", "0")
	writeEl(enc, "ThirdPartiesBillingIndicator", "0")
	closeEl(enc, "SpecialRegimes")
	writeEl(enc, "SourceID", h.SourceID)
	writeDateTime(enc, "SystemEntryDate", h.SystemEntryDate)
	writeEl(enc, "CustomerID", h.CustomerID)

	var ref *entity.Reference
	switch v := d.(type) {
	case *entity.NotaCredito:
		ref = &v.Reference
	case *entity.NotaDebito:
		ref = &v.Reference
	}
	amountEl := "CreditAmount"
	if d.Type() == entity.DocTypeNotaCredito {
		amountEl = "DebitAmount"
	}
	for _, l := range h.Lines {
		openEl(enc, "Line")
		writeEl(enc, "LineNumber", strconv.Itoa(l.LineNumber))
		if ref != nil {
			openEl(enc, "References")
			writeEl(enc, "Reference", ref.DocumentNo)
			writeEl(enc, "Reason", ref.Reason)
			closeEl(enc, "References")
		}
		writeLineBody(enc, l, h.Date, amountEl)
		closeEl(enc, "Line")
	}

	openEl(enc, "DocumentTotals")
	writeAmount(enc, "TaxPayable", h.TaxTotal)
	writeAmount(enc, "NetTotal", h.NetTotal)
	writeAmount(enc, "GrossTotal", h.GrossTotal)
	if v, ok := d.(*entity.Venda); ok {
		openEl(enc, "Payment")
		writeEl(enc, "PaymentMechanism", v.PaymentMechanism)
		writeAmount(enc, "PaymentAmount", h.GrossTotal)
		writeDate(enc, "PaymentDate", h.Date)
		closeEl(enc, "Payment")
	}
	closeEl(enc, "DocumentTotals")
	closeEl(enc, "Invoice")
}

func writeLineBody(enc *xml.Encoder, l entity.DocumentLine, taxPoint time.Time, amountEl string) {
	unit := l.UnitOfMeasure
	if unit == "" {
		unit = "UN"
	}
	writeEl(enc, "ProductCode", l.ProductCode)
	writeEl(enc, "ProductDescription", l.Description)
	writeQty(enc, "Quantity", l.Quantity)
	writeEl(enc, "UnitOfMeasure", unit)
	writeAmount(enc, "UnitPrice", l.UnitPrice)
	writeDate(enc, "TaxPointDate", taxPoint)
	writeEl(enc, "Description", l.Description)
	writeAmount(enc, amountEl, l.Net())
	openEl(enc, "Tax")
	writeEl(enc, "TaxType", l.TaxType)
	writeEl(enc, "TaxCountryRegion", agt.CountryCode)
	writeEl(enc, "TaxCode", l.TaxCode)
	writeAmount(enc, "TaxPercentage", l.TaxPercentage)
	closeEl(enc, "Tax")
	if l.TaxPercentage.IsZero() {
		reason := l.ExemptionReason
		if reason == "" {
			reason = agt.ExemptionReasons[l.ExemptionCode]
		}
		writeEl(enc, "TaxExemptionReason", reason)
		writeEl(enc, "TaxExemptionCode", l.ExemptionCode)
	}
	writeEl(enc, "SettlementAmount", "0.00")
}

func writeMovementOfGoods(enc *xml.Encoder, movements []*entity.DocumentoTransporte) {
	lines := 0
	qty := decimal.Zero
	for _, m := range movements {
		if m.IsCanceled() {
			continue
		}
		lines += len(m.Lines)
		for _, l := range m.Lines {
			qty = qty.Add(l.Quantity)
		}
	}
	openEl(enc, "MovementOfGoods")
	writeEl(enc, "NumberOfMovementLines", strconv.Itoa(lines))
	writeQty(enc, "TotalQuantityIssued", qty)
	for _, m := range movements {
		h := &m.DocumentHeader
		start := m.MovementStart
		if start.IsZero() {
			start = h.Date
		}
		openEl(enc, "StockMovement")
		writeEl(enc, "DocumentNumber", h.DocumentNo)
		writeEl(enc, "ATCUD", h.ATCUD)
		openEl(enc, "DocumentStatus")
		writeEl(enc, "MovementStatus", h.Status)
		writeDateTime(enc, "MovementStatusDate", statusDate(h))
		writeOpt(enc, "Reason", h.StatusReason)
		writeEl(enc, "SourceID", h.SourceID)
		writeEl(enc, "SourceBilling", agt.SourceBillingProgram)
		closeEl(enc, "DocumentStatus")
		writeEl(enc, "Hash", h.Hash)
		writeEl(enc, "HashControl", agt.HashControlVersion)
		writeEl(enc, "Period", strconv.Itoa(int(h.Date.Month())))
		writeDate(enc, "MovementDate", h.Date)
		writeEl(enc, "MovementType", agt.MovementTypeGT)
		writeDateTime(enc, "SystemEntryDate", h.SystemEntryDate)
		writeEl(enc, "CustomerID", h.CustomerID)
		writeEl(enc, "SourceID", h.SourceID)
		openEl(enc, "ShipTo")
		writeAddress(enc, m.DeliveryAddress)
		closeEl(enc, "ShipTo")
		openEl(enc, "ShipFrom")
		writeAddress(enc, m.LoadAddress)
		closeEl(enc, "ShipFrom")
		writeDateTime(enc, "MovementStartTime", start)
		for _, l := range h.Lines {
			openEl(enc, "Line")
			writeEl(enc, "LineNumber", strconv.Itoa(l.LineNumber))
			if m.SourceDocumentNo != "" {
				openEl(enc, "OrderReferences")
				writeEl(enc, "OriginatingON", m.SourceDocumentNo)
				closeEl(enc, "OrderReferences")
			}
			writeLineBody(enc, l, h.Date, "CreditAmount")
			closeEl(enc, "Line")
		}
		openEl(enc, "DocumentTotals")
		writeAmount(enc, "TaxPayable", h.TaxTotal)
		writeAmount(enc, "NetTotal", h.NetTotal)
		writeAmount(enc, "GrossTotal", h.GrossTotal)
		closeEl(enc, "DocumentTotals")
		closeEl(enc, "StockMovement")
	}
	closeEl(enc, "MovementOfGoods")
}

func writeAddress(enc *xml.Encoder, detail string) {
	openEl(enc, "Address")
	writeEl(enc, "AddressDetail", orUnknown(detail))
	writeEl(enc, "City", "Desconhecido")
	writeEl(enc, "Country", agt.CountryCode)
	closeEl(enc, "Address")
}

func writePayments(enc *xml.Encoder, payments []*entity.Recibo, invoiceDates map[string]time.Time) {
	credit := decimal.Zero
	for _, p := range payments {
		if !p.IsCanceled() {
			credit = credit.Add(p.GrossTotal)
		}
	}
	openEl(enc, "Payments")
	writeEl(enc, "NumberOfEntries", strconv.Itoa(len(payments)))
	writeAmount(enc, "TotalDebit", decimal.Zero)
	writeAmount(enc, "TotalCredit", credit)
	for _, p := range payments {
		h := &p.DocumentHeader
		openEl(enc, "Payment")
		writeEl(enc, "PaymentRefNo", h.DocumentNo)
		writeEl(enc, "ATCUD", h.ATCUD)
		writeEl(enc, "Period", strconv.Itoa(int(h.Date.Month())))
		writeDate(enc, "TransactionDate", h.Date)
		writeEl(enc, "PaymentType", agt.PaymentTypeRG)
		openEl(enc, "DocumentStatus")
		writeEl(enc, "PaymentStatus", h.Status)
		writeDateTime(enc, "PaymentStatusDate", statusDate(h))
		writeOpt(enc, "Reason", h.StatusReason)
		writeEl(enc, "SourceID", h.SourceID)
		writeEl(enc, "SourcePayment", agt.SourceBillingProgram)
		closeEl(enc, "DocumentStatus")
		openEl(enc, "PaymentMethod")
		writeEl(enc, "PaymentMechanism", p.PaymentMechanism)
		writeAmount(enc, "PaymentAmount", h.GrossTotal)
		writeDate(enc, "PaymentDate", h.Date)
		closeEl(enc, "PaymentMethod")
		writeEl(enc, "SourceID", h.SourceID)
		writeDateTime(enc, "SystemEntryDate", h.SystemEntryDate)
		writeEl(enc, "CustomerID", h.CustomerID)
		for i, s := range p.Settlements {
			openEl(enc, "Line")
			writeEl(enc, "LineNumber", strconv.Itoa(i+1))
			openEl(enc, "SourceDocumentID")
			writeEl(enc, "OriginatingON", s.DocumentNo)
			writeDate(enc, "InvoiceDate", invoiceDates[s.DocumentNo])
			closeEl(enc, "SourceDocumentID")
			writeAmount(enc, "CreditAmount", s.Amount)
			closeEl(enc, "Line")
		}
		openEl(enc, "DocumentTotals")
		writeAmount(enc, "TaxPayable", decimal.Zero)
		writeAmount(enc, "NetTotal", h.GrossTotal)
		writeAmount(enc, "GrossTotal", h.GrossTotal)
		closeEl(enc, "DocumentTotals")
		closeEl(enc, "Payment")
	}
	closeEl(enc, "Payments")
}

func statusDate(h *entity.DocumentHeader) time.Time {
	if !h.StatusDate.IsZero() {
		return h.StatusDate
	}
	return h.SystemEntryDate
}

func orUnknown(s string) string {
	if s == "" {
		return "Desconhecido"
	}
	return s
}
