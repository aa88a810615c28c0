// Package saft genera y valida el ficheiro SAF-T AO (AuditFile) que se entrega a la AGT.
package saft

import (
	"encoding/xml"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ao/internal/domain/fiscal"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
	nsXsi          = "http://www.w3.org/2001/XMLSchema-instance"
)

// Los elementos hijos no llevan Space: heredan el namespace por defecto declarado en AuditFile.
func openEl(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func closeEl(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	openEl(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	closeEl(enc, local)
}

// writeOpt omite el elemento si value está vacío (campos opcionales del esquema).
func writeOpt(enc *xml.Encoder, local, value string) {
	if value != "" {
		writeEl(enc, local, value)
	}
}

func writeAmount(enc *xml.Encoder, local string, d decimal.Decimal) {
	writeEl(enc, local, fiscal.FormatAmount(d))
}

// writeQty cantidades: hasta 6 decimales, sin ceros de relleno.
func writeQty(enc *xml.Encoder, local string, d decimal.Decimal) {
	writeEl(enc, local, d.Round(6).String())
}

func writeDate(enc *xml.Encoder, local string, t time.Time) {
	writeEl(enc, local, t.Format(dateLayout))
}

func writeDateTime(enc *xml.Encoder, local string, t time.Time) {
	writeEl(enc, local, t.Format(dateTimeLayout))
}
