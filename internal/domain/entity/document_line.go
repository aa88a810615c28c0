package entity

import "github.com/shopspring/decimal"

// DocumentLine línea de un documento fiscal.
type DocumentLine struct {
	LineNumber      int
	ProductCode     string
	Description     string
	Quantity        decimal.Decimal
	UnitOfMeasure   string
	UnitPrice       decimal.Decimal
	TaxType         string          // IVA, IS, NS
	TaxCode         string          // NOR, INT, RED, ISE
	TaxPercentage   decimal.Decimal // 14 = 14%
	ExemptionCode   string          // M00..M99 si TaxPercentage = 0
	ExemptionReason string
}

// Net valor sin impuesto de la línea (cantidad * precio unitario).
func (l DocumentLine) Net() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Tax impuesto de la línea (Net * porcentaje / 100), redondeado a 2 decimales.
func (l DocumentLine) Tax() decimal.Decimal {
	return l.Net().Mul(l.TaxPercentage).Div(decimal.NewFromInt(100)).Round(2)
}
