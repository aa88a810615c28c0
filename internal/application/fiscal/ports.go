package fiscal

import (
	"context"
	"time"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

// FiscalTxRunner ejecuta una función dentro de una transacción con los repositorios de la
// cadena fiscal. Si fn devuelve error la transacción se revierte completa: ni la serie
// avanza ni el documento queda persistido.
type FiscalTxRunner interface {
	RunFiscal(ctx context.Context, fn func(
		seriesRepo repository.SeriesRepository,
		docRepo repository.DocumentRepository,
	) error) error
}

// SeriesLocker serializa la firma por serie entre goroutines y réplicas.
// Lock bloquea hasta obtener el lock o hasta que ctx termine; unlock es idempotente.
type SeriesLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// PersistFunc guarda el documento firmado con los repositorios de la transacción de firma.
// Un error aborta la firma y revierte el avance de la serie.
type PersistFunc func(ctx context.Context, result *entity.SignedResult, docRepo repository.DocumentRepository) error

// SaftExporter genera el SAF-T AO de una empresa para un período.
type SaftExporter interface {
	Export(ctx context.Context, tenantID string, start, end time.Time) ([]byte, error)
}

// SaftValidator valida un SAF-T sin bloquear: el caller decide qué hacer con el resultado.
type SaftValidator interface {
	Validate(xmlBytes []byte) entity.ValidationResult
}
