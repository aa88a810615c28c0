package entity

import "time"

// Company representa una empresa/tenant (multi-tenant, enfoque Angola).
// Es el emisor de los documentos fiscales y el dueño exclusivo del KeyPair.
type Company struct {
	ID      string
	Name    string
	NIF     string // Número de Identificação Fiscal (AGT)
	Address string
	City    string
	Country string // "AO"
	Phone   string
	Email   string

	// SoftwareValidationNumber es el número de certificación AGT del software emisor.
	SoftwareValidationNumber string
	Status                   string // active, suspended, inactive
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
