package fiscal

import (
	"context"
	"time"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/saft"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// ExportUseCase exporta y valida ficheros SAF-T.
type ExportUseCase struct {
	exporter  SaftExporter
	validator SaftValidator
	docs      repository.DocumentRepository
	log       *logger.Logger
}

// NewExportUseCase construye el caso de uso.
func NewExportUseCase(exporter SaftExporter, validator SaftValidator, docs repository.DocumentRepository, log *logger.Logger) *ExportUseCase {
	return &ExportUseCase{exporter: exporter, validator: validator, docs: docs, log: log}
}

// Export genera el SAF-T del período, lo valida y calcula su digest C14N.
// Un resultado con errores de validación no es un error: el job se devuelve igual.
func (uc *ExportUseCase) Export(ctx context.Context, tenantID string, from, to time.Time) (*entity.SaftExportJob, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	xmlBytes, err := uc.exporter.Export(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	docs, err := uc.docs.ListByPeriod(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, d := range docs {
		if d.Header().IsSigned() {
			count++
		}
	}

	job := &entity.SaftExportJob{
		TenantID:      tenantID,
		PeriodStart:   from,
		PeriodEnd:     to,
		XML:           xmlBytes,
		DocumentCount: count,
		Validation:    uc.validator.Validate(xmlBytes),
		CreatedAt:     time.Now().UTC(),
	}
	if job.Digest, err = saft.Digest(xmlBytes); err != nil {
		return nil, err
	}

	ev := uc.log.Info()
	if !job.Validation.Valid {
		ev = uc.log.Warn()
	}
	ev.Str("tenant_id", tenantID).
		Str("from", from.Format(dateLayout)).
		Str("to", to.Format(dateLayout)).
		Int("documents", count).
		Bool("valid", job.Validation.Valid).
		Int("errors", len(job.Validation.Errors)).
		Str("digest", job.Digest).
		Msg("saft exportado")
	return job, nil
}

// Validate valida un SAF-T recibido.
func (uc *ExportUseCase) Validate(xmlBytes []byte) *dto.SaftValidationResponse {
	return ValidateSaft(uc.validator, xmlBytes)
}

// ValidateSaft valida un SAF-T sin tocar la base de datos. El digest solo se informa si el
// XML está bien formado.
func ValidateSaft(v SaftValidator, xmlBytes []byte) *dto.SaftValidationResponse {
	out := &dto.SaftValidationResponse{ValidationResult: v.Validate(xmlBytes)}
	for _, issue := range out.Errors {
		if issue.Code == saft.CodeMalformed {
			return out
		}
	}
	if digest, err := saft.Digest(xmlBytes); err == nil {
		out.Digest = digest
	}
	return out
}
