package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaveCompanyRequest body para PUT /api/company (datos del emisor en el Header del SAF-T).
type SaveCompanyRequest struct {
	Name                     string `json:"name"`
	NIF                      string `json:"nif"`
	Address                  string `json:"address"`
	City                     string `json:"city"`
	Phone                    string `json:"phone,omitempty"`
	Email                    string `json:"email,omitempty"`
	SoftwareValidationNumber string `json:"software_validation_number"`
}

// CompanyResponse empresa emisora.
type CompanyResponse struct {
	ID                       string    `json:"id"`
	Name                     string    `json:"name"`
	NIF                      string    `json:"nif"`
	Address                  string    `json:"address"`
	City                     string    `json:"city"`
	Country                  string    `json:"country"`
	Phone                    string    `json:"phone,omitempty"`
	Email                    string    `json:"email,omitempty"`
	SoftwareValidationNumber string    `json:"software_validation_number"`
	Status                   string    `json:"status"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// CreateCustomerRequest body para POST /api/customers. tax_id vacío = consumidor final.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"` // ISO 3166-1 alpha-2, por defecto AO
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Code        string          `json:"code"`
	Type        string          `json:"type"` // P, S, O
	Description string          `json:"description"`
	Barcode     string          `json:"barcode,omitempty"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	Price       decimal.Decimal `json:"price"`
	TaxCode     string          `json:"tax_code"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Barcode     string          `json:"barcode,omitempty"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	Price       decimal.Decimal `json:"price"`
	TaxCode     string          `json:"tax_code"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}
