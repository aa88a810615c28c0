package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrAlreadyExists = errors.New("el recurso ya existe")
)

// Errores de la cadena fiscal (firma, series y documentos vinculados).
var (
	// ErrSigningUnavailable: llave privada ausente o ilegible. El documento NO debe quedar emitido.
	ErrSigningUnavailable = errors.New("firma no disponible: llave privada ausente o corrupta")
	// ErrChainConflict: otro escritor avanzó la serie entre la lectura y la escritura.
	// El caller debe repetir la firma completa (releyendo el último hash).
	ErrChainConflict    = errors.New("conflicto en la cadena de hash de la serie")
	ErrSeriesNotFound   = errors.New("serie fiscal no encontrada")
	ErrSeriesInactive   = errors.New("serie fiscal inactiva")
	ErrInvalidReference = errors.New("documento de origen inválido")
	ErrAmountExceeded   = errors.New("el importe excede el saldo del documento de origen")
	ErrDocumentCanceled = errors.New("documento anulado")
)
