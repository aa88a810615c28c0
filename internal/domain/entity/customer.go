package entity

import "time"

// Customer representa un cliente de la empresa (MasterFiles/Customer en el SAF-T).
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // NIF del cliente o agt.ConsumerFinalNIF
	Address   string
	City      string
	Country   string // ISO 3166-1 alpha-2
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
