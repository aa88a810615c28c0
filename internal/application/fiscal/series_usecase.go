package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// SeriesUseCase alta y consulta de series fiscales.
type SeriesUseCase struct {
	repo repository.SeriesRepository
	log  *logger.Logger
}

// NewSeriesUseCase construye el caso de uso.
func NewSeriesUseCase(repo repository.SeriesRepository, log *logger.Logger) *SeriesUseCase {
	return &SeriesUseCase{repo: repo, log: log}
}

// Create registra una serie vacía (LastHash "", LastNumber 0).
func (uc *SeriesUseCase) Create(ctx context.Context, tenantID string, in dto.CreateSeriesRequest) (*dto.SeriesResponse, error) {
	code := strings.TrimSpace(in.Code)
	docType := entity.DocumentType(strings.ToUpper(strings.TrimSpace(in.DocumentType)))
	validation := strings.TrimSpace(in.ValidationCode)
	if tenantID == "" || code == "" || validation == "" {
		return nil, fmt.Errorf("%w: código de serie y código de validación requeridos", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(code, " /") {
		return nil, fmt.Errorf("%w: el código de serie no admite espacios ni '/'", domain.ErrInvalidInput)
	}
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, in.DocumentType)
	}

	now := time.Now().UTC()
	s := &entity.FiscalSeries{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Code:           code,
		DocumentType:   docType,
		ValidationCode: validation,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("series", code).Str("type", string(docType)).Msg("serie creada")
	return toSeriesResponse(s), nil
}

// List series de la empresa.
func (uc *SeriesUseCase) List(ctx context.Context, tenantID string) ([]*dto.SeriesResponse, error) {
	list, err := uc.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SeriesResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSeriesResponse(s))
	}
	return out, nil
}

func toSeriesResponse(s *entity.FiscalSeries) *dto.SeriesResponse {
	return &dto.SeriesResponse{
		Code:           s.Code,
		DocumentType:   string(s.DocumentType),
		ValidationCode: s.ValidationCode,
		LastNumber:     s.LastNumber,
		LastHash:       s.LastHash,
		Active:         s.Active,
	}
}
