package saft_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/saft"
)

const validXML = `<?xml version="1.0" encoding="UTF-8"?>
<AuditFile xmlns="urn:OECD:StandardAuditFile-Tax:AO_1.01_01">
  <Header>
    <AuditFileVersion>1.01_01</AuditFileVersion>
    <CompanyID>5000123456</CompanyID>
    <TaxRegistrationNumber>5000123456</TaxRegistrationNumber>
    <TaxAccountingBasis>F</TaxAccountingBasis>
    <CompanyName>Farmácia Kianda Lda</CompanyName>
    <CompanyAddress>
      <AddressDetail>Rua Amílcar Cabral 12</AddressDetail>
      <City>Luanda</City>
      <Country>AO</Country>
    </CompanyAddress>
    <FiscalYear>2024</FiscalYear>
    <StartDate>2024-01-01</StartDate>
    <EndDate>2024-01-31</EndDate>
    <CurrencyCode>AOA</CurrencyCode>
    <DateCreated>2024-02-01</DateCreated>
    <ProductID>FiscalAO/JHOICAS</ProductID>
    <ProductVersion>1.0.0</ProductVersion>
  </Header>
  <MasterFiles>
    <Customer>
      <CustomerID>c1</CustomerID>
      <BillingAddress><Country>AO</Country></BillingAddress>
    </Customer>
    <TaxTable>
      <TaxTableEntry>
        <TaxType>IVA</TaxType>
        <TaxCountryRegion>AO</TaxCountryRegion>
        <TaxCode>NOR</TaxCode>
        <TaxPercentage>14.00</TaxPercentage>
      </TaxTableEntry>
    </TaxTable>
  </MasterFiles>
  <SourceDocuments>
    <SalesInvoices>
      <NumberOfEntries>1</NumberOfEntries>
      <Invoice>
        <InvoiceNo>FT 2024A/1</InvoiceNo>
        <Hash>aqCtYNzim9bErCTM/YwsfFX5FLLROHHv41amhfEJsjA=</Hash>
      </Invoice>
    </SalesInvoices>
  </SourceDocuments>
</AuditFile>`

func codes(issues []entity.ValidationIssue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidate_Valido(t *testing.T) {
	res := saft.NewValidator().Validate([]byte(validXML))
	assert.True(t, res.Valid, "%v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidate_SinCurrencyCode(t *testing.T) {
	xml := strings.Replace(validXML, "<CurrencyCode>AOA</CurrencyCode>", "", 1)
	res := saft.NewValidator().Validate([]byte(xml))

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, saft.CodeMissingField, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "CurrencyCode")
}

func TestValidate_XMLMalFormadoCortaLaValidacion(t *testing.T) {
	for name, input := range map[string]string{
		"etiqueta sin cerrar": `<AuditFile xmlns="urn:OECD:StandardAuditFile-Tax:AO_1.01_01"><Header>`,
		"cruce de etiquetas":  `<AuditFile><Header></AuditFile></Header>`,
		"vacío":               ``,
	} {
		t.Run(name, func(t *testing.T) {
			res := saft.NewValidator().Validate([]byte(input))
			assert.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, saft.CodeMalformed, res.Errors[0].Code)
		})
	}
}

func TestValidate_AcumulaErrores(t *testing.T) {
	xml := validXML
	xml = strings.Replace(xml, "AO_1.01_01\"", "AO_1.04_01\"", 1)
	xml = strings.Replace(xml, "<AuditFileVersion>1.01_01</AuditFileVersion>", "<AuditFileVersion>1.04_01</AuditFileVersion>", 1)
	xml = strings.Replace(xml, "<CurrencyCode>AOA</CurrencyCode>", "<CurrencyCode>EUR</CurrencyCode>", 1)
	xml = strings.Replace(xml, "<CompanyName>Farmácia Kianda Lda</CompanyName>", "<CompanyName> </CompanyName>", 1)
	xml = strings.Replace(xml, "<Country>AO</Country>\n    </CompanyAddress>", "<Country>PT</Country>\n    </CompanyAddress>", 1)
	xml = strings.Replace(xml, "<TaxCountryRegion>AO</TaxCountryRegion>", "<TaxCountryRegion>PT</TaxCountryRegion>", 1)

	res := saft.NewValidator().Validate([]byte(xml))
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		saft.CodeNamespace,
		saft.CodeMissingField,
		saft.CodeVersion,
		saft.CodeCurrency,
		saft.CodeCountry,
		saft.CodeCountry,
	}, codes(res.Errors))
	assert.Equal(t, "Header/CompanyName", res.Errors[1].Field)
	assert.Equal(t, "MasterFiles/TaxTable/TaxTableEntry/TaxCountryRegion", res.Errors[5].Field)
}

func TestValidate_SeccionesAusentes(t *testing.T) {
	res := saft.NewValidator().Validate([]byte(`<AuditFile xmlns="urn:OECD:StandardAuditFile-Tax:AO_1.01_01"></AuditFile>`))
	assert.False(t, res.Valid)
	assert.Equal(t, []string{saft.CodeMissingSection, saft.CodeMissingSection}, codes(res.Errors))

	empty := `<AuditFile xmlns="urn:OECD:StandardAuditFile-Tax:AO_1.01_01"><MasterFiles/></AuditFile>`
	res = saft.NewValidator().Validate([]byte(empty))
	assert.Equal(t, []string{saft.CodeMissingSection, saft.CodeMasterFilesEmpty}, codes(res.Errors))
}

func TestValidate_Advertencias(t *testing.T) {
	xml := validXML
	xml = strings.Replace(xml, "<NumberOfEntries>1</NumberOfEntries>", "<NumberOfEntries>2</NumberOfEntries>", 1)
	xml = strings.Replace(xml, "<Hash>aqCtYNzim9bErCTM/YwsfFX5FLLROHHv41amhfEJsjA=</Hash>", "<Hash></Hash>", 1)
	xml = strings.Replace(xml, "<BillingAddress><Country>AO</Country></BillingAddress>", "<BillingAddress><Country>PT</Country></BillingAddress>", 1)

	res := saft.NewValidator().Validate([]byte(xml))
	assert.True(t, res.Valid, "las advertencias no invalidan el ficheiro")
	assert.Equal(t, []string{saft.CodeForeignCustomer, saft.CodeEntriesMismatch, saft.CodeMissingHash}, codes(res.Warnings))
}

func TestValidate_Latin1(t *testing.T) {
	utf8 := strings.Replace(validXML, `encoding="UTF-8"`, `encoding="ISO-8859-1"`, 1)
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8)
	require.NoError(t, err)

	res := saft.NewValidator().Validate([]byte(latin1))
	assert.True(t, res.Valid, "%v", res.Errors)
}
