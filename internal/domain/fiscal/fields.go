package fiscal

import "github.com/jhoicas/fiscal-ao/internal/domain/entity"

// FieldsOf extrae los campos fiscales que entran en el hash de un documento:
// fecha, tipo, serie, número y total bruto. El previous_hash lo agrega ComputeHash.
func FieldsOf(doc entity.FiscalDocument) Fields {
	h := doc.Header()
	return Fields{}.
		Date(FieldDate, h.Date).
		Str(FieldDocumentType, string(doc.Type())).
		Str(FieldSeries, h.SeriesCode).
		Int(FieldSequence, h.Number).
		Decimal(FieldTotal, h.GrossTotal)
}

// HashOf recalcula el hash de un documento ya firmado a partir de sus campos actuales.
// Si el resultado difiere de h.Hash, el documento fue alterado después de la firma.
func HashOf(doc entity.FiscalDocument) string {
	return ComputeHash(FieldsOf(doc), doc.Header().PreviousHash)
}
