package masterdata

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
	"github.com/jhoicas/fiscal-ao/pkg/agt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// ProductUseCase casos de uso para productos y servicios.
type ProductUseCase struct {
	repo repository.ProductRepository
	log  *logger.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, log: log}
}

// Create crea un producto. El código es el ProductCode de las líneas y del SAF-T.
func (uc *ProductUseCase) Create(ctx context.Context, tenantID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(in.Code)
	desc := strings.TrimSpace(in.Description)
	if tenantID == "" || code == "" || desc == "" {
		return nil, fmt.Errorf("%w: código y descripción requeridos", domain.ErrInvalidInput)
	}
	typ := strings.ToUpper(strings.TrimSpace(in.Type))
	switch typ {
	case "":
		typ = entity.ProductTypeGoods
	case entity.ProductTypeGoods, entity.ProductTypeService, entity.ProductTypeOther:
	default:
		return nil, fmt.Errorf("%w: tipo de producto %q (P, S u O)", domain.ErrInvalidInput, in.Type)
	}
	taxCode := strings.ToUpper(strings.TrimSpace(in.TaxCode))
	if taxCode == "" {
		taxCode = agt.TaxCodeNormal
	}
	if _, ok := agt.TaxCodeDescriptions[taxCode]; !ok {
		return nil, fmt.Errorf("%w: código de taxa %q", domain.ErrInvalidInput, in.TaxCode)
	}
	if in.Price.IsNegative() || in.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: precio y taxa no pueden ser negativos", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	p := &entity.Product{
		ID:          uuid.New().String(),
		CompanyID:   tenantID,
		Code:        code,
		Type:        typ,
		Description: desc,
		Barcode:     strings.TrimSpace(in.Barcode),
		UnitMeasure: strings.TrimSpace(in.UnitMeasure),
		Price:       in.Price,
		TaxCode:     taxCode,
		TaxRate:     in.TaxRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("code", code).Msg("producto creado")
	return toProductResponse(p), nil
}

// List lista productos de la empresa.
func (uc *ProductUseCase) List(ctx context.Context, tenantID string, page dto.PageRequest) ([]*dto.ProductResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Type:        p.Type,
		Description: p.Description,
		Barcode:     p.Barcode,
		UnitMeasure: p.UnitMeasure,
		Price:       p.Price,
		TaxCode:     p.TaxCode,
		TaxRate:     p.TaxRate,
	}
}
