package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de producto SAF-T AO (ProductType).
const (
	ProductTypeGoods   = "P" // Produtos
	ProductTypeService = "S" // Serviços
	ProductTypeOther   = "O" // Outros
)

// Product representa un producto o servicio facturable (MasterFiles/Product en el SAF-T).
type Product struct {
	ID          string
	CompanyID   string
	Code        string // código único por empresa (ProductCode)
	Type        string // ver ProductType*
	Description string
	Barcode     string // ProductNumberCode; si vacío se usa Code
	UnitMeasure string
	Price       decimal.Decimal
	TaxCode     string          // NOR, INT, RED, ISE...
	TaxRate     decimal.Decimal // porcentaje (14 = 14%)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
