package entity

import "time"

// SaftExportJob resultado de una exportación SAF-T para (empresa, período).
// No se persiste: es función pura de los documentos firmados del período.
type SaftExportJob struct {
	TenantID      string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	XML           []byte
	Digest        string // SHA-256 (base64) del XML canonicalizado (C14N)
	DocumentCount int
	Validation    ValidationResult
	CreatedAt     time.Time
}

// ValidationIssue un error o advertencia de validación del SAF-T.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult resultado no bloqueante de validar un SAF-T: el caller decide si lo envía.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// SignedResult resultado de firmar un documento en su serie.
type SignedResult struct {
	Number       int64
	Hash         string
	PreviousHash string
	Signature    string
	ATCUD        string
}
