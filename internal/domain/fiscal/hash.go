// Package fiscal: cadena de hash de documentos fiscales AGT (Angola).
// Cada documento enlaza sus campos fiscales con el hash del documento anterior de la serie.

package fiscal

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Llaves de los campos que entran en el hash de cada documento.
const (
	FieldDate         = "date"
	FieldDocumentType = "document_type"
	FieldSeries       = "series"
	FieldSequence     = "sequence"
	FieldTotal        = "total"
	FieldPreviousHash = "previous_hash"
)

// Field par (llave, valor) ya formateado como texto.
type Field struct {
	Key   string
	Value string
}

// Fields lista de campos fiscales. El orden de inserción no importa: ComputeHash ordena por llave.
type Fields []Field

// Str agrega un campo de texto.
func (f Fields) Str(key, value string) Fields {
	return append(f, Field{Key: key, Value: value})
}

// Decimal agrega un monto con exactamente 2 decimales y punto como separador.
func (f Fields) Decimal(key string, d decimal.Decimal) Fields {
	return append(f, Field{Key: key, Value: FormatAmount(d)})
}

// Int agrega un entero.
func (f Fields) Int(key string, n int64) Fields {
	return append(f, Field{Key: key, Value: strconv.FormatInt(n, 10)})
}

// Date agrega una fecha YYYY-MM-DD.
func (f Fields) Date(key string, t time.Time) Fields {
	return append(f, Field{Key: key, Value: t.Format("2006-01-02")})
}

// Set reemplaza (o agrega) el valor de una llave.
func (f Fields) Set(key, value string) Fields {
	out := make(Fields, 0, len(f)+1)
	for _, fl := range f {
		if fl.Key != key {
			out = append(out, fl)
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Get devuelve el valor de una llave.
func (f Fields) Get(key string) (string, bool) {
	for _, fl := range f {
		if fl.Key == key {
			return fl.Value, true
		}
	}
	return "", false
}

// Canonical devuelve la cadena "k1:v1;k2:v2;..." ordenada por llave, incluyendo previous_hash.
// Un previous_hash que venga en fields se ignora: siempre manda el argumento.
func Canonical(fields Fields, previousHash string) string {
	pairs := fields.Set(FieldPreviousHash, previousHash)
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Key + ":" + p.Value
	}
	return strings.Join(parts, ";")
}

// ComputeHash calcula el hash encadenado del documento: SHA-256 sobre los bytes UTF-8 de
// Canonical(fields, previousHash), codificado en base64 (44 caracteres).
// Función pura: mismas entradas, misma salida. previousHash es "" para el primer documento.
func ComputeHash(fields Fields, previousHash string) string {
	sum := sha256.Sum256([]byte(Canonical(fields, previousHash)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// FormatAmount formatea montos: sin separador de miles, punto decimal, 2 decimales (ej: 1500.00).
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
