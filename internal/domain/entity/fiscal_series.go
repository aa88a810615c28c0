package entity

import (
	"fmt"
	"time"
)

// FiscalSeries es el flujo lógico de documentos que comparten una cadena de hash.
// Una serie pertenece a un par (empresa, tipo de documento).
//
// LastHash es siempre el hash del último documento firmado de la serie; solo lo
// modifica el firmador bajo el lock de la serie.
type FiscalSeries struct {
	ID             string
	TenantID       string
	Code           string       // ej: "2024A"
	DocumentType   DocumentType // FT, FR, NC, ND, GT, RC
	ValidationCode string       // código de validación AGT de la serie (prefijo del ATCUD)
	LastHash       string       // vacío antes del primer documento
	LastNumber     int64
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SeriesLockKey construye la llave del lock por (tenant, serie).
func SeriesLockKey(tenantID, seriesCode string) string {
	return fmt.Sprintf("fiscal:series:%s:%s", tenantID, seriesCode)
}

// ATCUD deriva el código único del documento: "{ValidationCode}-{número}".
func (s *FiscalSeries) ATCUD(number int64) string {
	return fmt.Sprintf("%s-%d", s.ValidationCode, number)
}
