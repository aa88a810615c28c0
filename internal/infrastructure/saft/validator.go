package saft

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
)

// Códigos de las incidencias de validación.
const (
	CodeMalformed        = "XML_MALFORMED"
	CodeNamespace        = "NAMESPACE_MISMATCH"
	CodeMissingSection   = "SECTION_MISSING"
	CodeMissingField     = "HEADER_FIELD_MISSING"
	CodeVersion          = "AUDIT_FILE_VERSION"
	CodeCurrency         = "CURRENCY_CODE"
	CodeMasterFilesEmpty = "MASTER_FILES_EMPTY"
	CodeCountry          = "COUNTRY_CODE"
	CodeEntriesMismatch  = "NUMBER_OF_ENTRIES"
	CodeMissingHash      = "HASH_MISSING"
	CodeForeignCustomer  = "FOREIGN_CUSTOMER"
)

// RequiredHeaderFields campos obligatorios del Header, en el orden en que se reportan.
var RequiredHeaderFields = []string{
	"AuditFileVersion", "CompanyID", "TaxRegistrationNumber", "CompanyName", "FiscalYear",
	"StartDate", "EndDate", "CurrencyCode", "DateCreated", "ProductID", "ProductVersion",
}

// masterTables sub-tablas conocidas de MasterFiles.
var masterTables = []string{"GeneralLedgerAccounts", "Customer", "Supplier", "Product", "TaxTable"}

// Validator revisa la estructura de un SAF-T antes de enviarlo. No lanza errores: todo
// se reporta en el ValidationResult y el caller decide.
type Validator struct {
	namespace string
	version   string
}

// NewValidator crea el validador para el esquema fijado en agt.
func NewValidator() *Validator {
	return &Validator{namespace: agt.Namespace, version: agt.SchemaVersion}
}

type collector struct {
	res entity.ValidationResult
}

func (c *collector) fail(code, field, format string, args ...any) {
	c.res.Errors = append(c.res.Errors, entity.ValidationIssue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warn(code, field, format string, args ...any) {
	c.res.Warnings = append(c.res.Warnings, entity.ValidationIssue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate aplica los chequeos en orden acumulando todas las incidencias. Solo un XML mal
// formado corta la validación.
func (v *Validator) Validate(xmlBytes []byte) entity.ValidationResult {
	c := &collector{res: entity.ValidationResult{Errors: []entity.ValidationIssue{}, Warnings: []entity.ValidationIssue{}}}

	if err := wellFormed(xmlBytes); err != nil {
		c.fail(CodeMalformed, "", "XML mal formado: %v", err)
		return c.result()
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		c.fail(CodeMalformed, "", "XML mal formado: %v", err)
		return c.result()
	}
	root := doc.Root()
	if root == nil {
		c.fail(CodeMalformed, "", "XML sin elemento raíz")
		return c.result()
	}

	// 2. namespace
	if ns := namespaceOf(root); ns != v.namespace {
		c.fail(CodeNamespace, root.Tag, "namespace %q, se esperaba %q", ns, v.namespace)
	}

	// 3. secciones
	header := root.SelectElement("Header")
	if header == nil {
		c.fail(CodeMissingSection, "Header", "falta la sección Header")
	}
	master := root.SelectElement("MasterFiles")
	if master == nil {
		c.fail(CodeMissingSection, "MasterFiles", "falta la sección MasterFiles")
	}

	if header != nil {
		// 4. campos obligatorios
		for _, f := range RequiredHeaderFields {
			if text(header, f) == "" {
				c.fail(CodeMissingField, "Header/"+f, "Header/%s ausente o vacío", f)
			}
		}
		// 5. versión
		if ver := text(header, "AuditFileVersion"); ver != "" && ver != v.version {
			c.fail(CodeVersion, "Header/AuditFileVersion", "AuditFileVersion %q, se esperaba %q", ver, v.version)
		}
		// 6. moneda
		if cur := text(header, "CurrencyCode"); cur != "" && cur != agt.CurrencyCode {
			c.fail(CodeCurrency, "Header/CurrencyCode", "CurrencyCode %q, se esperaba %q", cur, agt.CurrencyCode)
		}
	}

	// 7. MasterFiles con al menos una sub-tabla conocida
	if master != nil && !hasAnyChild(master, masterTables) {
		c.fail(CodeMasterFilesEmpty, "MasterFiles", "MasterFiles no contiene ninguna tabla (%s)", strings.Join(masterTables, ", "))
	}

	// 8. país: emisor y tabla de impuestos deben ser AO; un cliente extranjero es válido
	// pero se advierte.
	if header != nil {
		if country := text(header, "CompanyAddress/Country"); country != "" && country != agt.CountryCode {
			c.fail(CodeCountry, "Header/CompanyAddress/Country", "país del emisor %q, se esperaba %q", country, agt.CountryCode)
		}
	}
	for _, el := range root.FindElements("//TaxCountryRegion") {
		if val := strings.TrimSpace(el.Text()); val != "" && val != agt.CountryCode {
			c.fail(CodeCountry, pathOf(el), "TaxCountryRegion %q, se esperaba %q", val, agt.CountryCode)
		}
	}
	if master != nil {
		for _, cust := range master.SelectElements("Customer") {
			if country := text(cust, "BillingAddress/Country"); country != "" && country != agt.CountryCode {
				c.warn(CodeForeignCustomer, "MasterFiles/Customer/BillingAddress/Country",
					"cliente %s con país %q", text(cust, "CustomerID"), country)
			}
		}
	}

	v.checkSourceDocuments(root, c)
	return c.result()
}

// checkSourceDocuments advertencias de coherencia: NumberOfEntries y facturas sin Hash.
func (v *Validator) checkSourceDocuments(root *etree.Element, c *collector) {
	sales := root.FindElement("SourceDocuments/SalesInvoices")
	if sales == nil {
		return
	}
	invoices := sales.SelectElements("Invoice")
	if declared := text(sales, "NumberOfEntries"); declared != "" {
		n, err := strconv.Atoi(declared)
		if err != nil || n != len(invoices) {
			c.warn(CodeEntriesMismatch, "SourceDocuments/SalesInvoices/NumberOfEntries",
				"NumberOfEntries %q, el ficheiro contiene %d Invoice", declared, len(invoices))
		}
	}
	for _, inv := range invoices {
		if text(inv, "Hash") == "" {
			c.warn(CodeMissingHash, "SourceDocuments/SalesInvoices/Invoice/Hash",
				"Invoice %s sin Hash", text(inv, "InvoiceNo"))
		}
	}
}

// wellFormed recorre los tokens con el decoder estricto de encoding/xml, que verifica el
// anidamiento de etiquetas hasta el final del documento.
func wellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *collector) result() entity.ValidationResult {
	c.res.Valid = len(c.res.Errors) == 0
	return c.res
}

func text(el *etree.Element, path string) string {
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

// namespaceOf namespace del elemento: el del prefijo si lo tiene, si no el xmlns por defecto.
func namespaceOf(el *etree.Element) string {
	if el.Space != "" {
		return el.SelectAttrValue("xmlns:"+el.Space, "")
	}
	return el.SelectAttrValue("xmlns", "")
}

func hasAnyChild(el *etree.Element, tags []string) bool {
	for _, t := range tags {
		if el.SelectElement(t) != nil {
			return true
		}
	}
	return false
}

func pathOf(el *etree.Element) string {
	var parts []string
	for e := el; e != nil && e.Tag != ""; e = e.Parent() {
		parts = append([]string{e.Tag}, parts...)
	}
	// Sin el AuditFile raíz.
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, "/")
}

// charsetReader acepta ficheiros declarados en ISO-8859-1 / Windows-1252, habituales en
// exportaciones de otros programas certificados.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("saft: codificación %q no soportada", label)
	}
}

// ValidateBytes atajo para validar sin construir el Validator.
func ValidateBytes(xmlBytes []byte) entity.ValidationResult {
	return NewValidator().Validate(bytes.TrimSpace(xmlBytes))
}
