// Package agt contiene catálogos y validaciones alineados al SAF-T AO y a las reglas de
// facturación de la AGT (Administração Geral Tributária, Angola).
package agt

// =============================================================================
// Estructura de auditoría SAF-T AO
// =============================================================================

const (
	// SchemaVersion versión del esquema SAF-T AO (AuditFileVersion).
	SchemaVersion = "1.01_01"
	// Namespace del elemento raíz AuditFile.
	Namespace = "urn:OECD:StandardAuditFile-Tax:AO_1.01_01"
	// CurrencyCode moneda obligatoria en el Header.
	CurrencyCode = "AOA"
	// CountryCode país de la empresa emisora y de la tabla de impuestos.
	CountryCode = "AO"
	// TaxAccountingBasisBilling "F" = Facturação.
	TaxAccountingBasisBilling = "F"
	// TaxEntityGlobal el ficheiro cubre toda la empresa.
	TaxEntityGlobal = "Global"
	// HashControlVersion versión de la llave usada para firmar (HashControl).
	HashControlVersion = "1"
	// SourceBillingProgram documento producido por el propio programa.
	SourceBillingProgram = "P"
	// MovementTypeGT tipo de guía de transporte.
	MovementTypeGT = "GT"
	// PaymentTypeRG recibo emitido en régimen general.
	PaymentTypeRG = "RG"
)

// =============================================================================
// Tipos de imposto (TaxType)
// =============================================================================

const (
	TaxTypeIVA = "IVA" // Imposto sobre o Valor Acrescentado
	TaxTypeIS  = "IS"  // Imposto do Selo
	TaxTypeNS  = "NS"  // Não sujeição
)

var validTaxTypes = map[string]bool{TaxTypeIVA: true, TaxTypeIS: true, TaxTypeNS: true}

// ValidTaxType indica si el tipo de imposto existe.
func ValidTaxType(t string) bool { return validTaxTypes[t] }

// =============================================================================
// Códigos de taxa (TaxCode) con su descripción para la TaxTable
// =============================================================================

const (
	TaxCodeNormal       = "NOR" // Taxa normal (14%)
	TaxCodeIntermediate = "INT" // Taxa intermédia
	TaxCodeReduced      = "RED" // Taxa reduzida
	TaxCodeExempt       = "ISE" // Isento
	TaxCodeOther        = "OUT" // Outros
)

// TaxCodeDescriptions descripción oficial por código de taxa.
var TaxCodeDescriptions = map[string]string{
	TaxCodeNormal:       "Taxa Normal",
	TaxCodeIntermediate: "Taxa Intermédia",
	TaxCodeReduced:      "Taxa Reduzida",
	TaxCodeExempt:       "Isento",
	TaxCodeOther:        "Outros",
}

// =============================================================================
// Motivos de isenção (TaxExemptionCode)
// =============================================================================

// ExemptionReasons motivos de isenção aceptados por la AGT.
var ExemptionReasons = map[string]string{
	"M00": "Regime Transitório",
	"M02": "Transmissão de bens e serviço não sujeita",
	"M04": "IVA – Regime de não sujeição",
	"M10": "Isento nos termos da alínea a) do nº1 do artigo 12.º do CIVA",
	"M11": "Isento nos termos da alínea b) do nº1 do artigo 12.º do CIVA",
	"M12": "Isento nos termos da alínea c) do nº1 do artigo 12.º do CIVA",
	"M13": "Isento nos termos da alínea d) do nº1 do artigo 12.º do CIVA",
	"M14": "Isento nos termos da alínea e) do nº1 do artigo 12.º do CIVA",
	"M15": "Isento nos termos da alínea f) do nº1 do artigo 12.º do CIVA",
	"M17": "Isento nos termos da alínea h) do nº1 do artigo 12.º do CIVA",
	"M18": "Isento nos termos da alínea i) do nº1 do artigo 12.º do CIVA",
	"M19": "Isento nos termos da alínea j) do nº1 do artigo 12.º do CIVA",
	"M20": "Isento nos termos da alínea k) do nº1 do artigo 12.º do CIVA",
	"M30": "Isento nos termos da alínea a) do artigo 15.º do CIVA",
	"M31": "Isento nos termos da alínea b) do artigo 15.º do CIVA",
	"M32": "Isento nos termos da alínea c) do artigo 15.º do CIVA",
	"M33": "Isento nos termos da alínea d) do artigo 15.º do CIVA",
	"M34": "Isento nos termos da alínea e) do artigo 15.º do CIVA",
	"M35": "Isento nos termos da alínea f) do artigo 15.º do CIVA",
	"M36": "Isento nos termos da alínea g) do artigo 15.º do CIVA",
	"M37": "Isento nos termos da alínea h) do artigo 15.º do CIVA",
	"M38": "Isento nos termos da alínea i) do artigo 15.º do CIVA",
	"M90": "Isento nos termos da alínea a) do nº1 do artigo 16.º",
	"M91": "Isento nos termos da alínea b) do nº1 do artigo 16.º",
	"M92": "Isento nos termos da alínea c) do nº1 do artigo 16.º",
	"M93": "Isento nos termos da alínea d) do nº1 do artigo 16.º",
	"M94": "Isento nos termos da alínea e) do nº1 do artigo 16.º",
}

// ValidExemptionCode indica si el código de isenção existe.
func ValidExemptionCode(code string) bool {
	_, ok := ExemptionReasons[code]
	return ok
}

// =============================================================================
// Mecanismos de pago (PaymentMechanism)
// =============================================================================

var validPaymentMechanisms = map[string]bool{
	"CC": true, // Cartão de crédito
	"CD": true, // Cartão de débito
	"CH": true, // Cheque bancário
	"CI": true, // Crédito documentário internacional
	"CO": true, // Cheque ou cartão oferta
	"CS": true, // Compensação de saldos
	"DE": true, // Dinheiro electrónico
	"LC": true, // Letra comercial
	"MB": true, // Multicaixa
	"NU": true, // Numerário
	"OU": true, // Outros
	"PR": true, // Permuta de bens
	"TB": true, // Transferência bancária
}

// ValidPaymentMechanism indica si el mecanismo de pago existe.
func ValidPaymentMechanism(m string) bool { return validPaymentMechanisms[m] }
