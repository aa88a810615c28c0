// Package masterdata datos maestros que alimentan los documentos y el SAF-T: la empresa
// emisora, sus clientes y sus productos.
package masterdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// CompanyUseCase datos de la empresa del token. El ID de la empresa es el tenant.
type CompanyUseCase struct {
	repo repository.CompanyRepository
	log  *logger.Logger
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, log *logger.Logger) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, log: log}
}

// Get devuelve la empresa; domain.ErrNotFound si aún no se registró.
func (uc *CompanyUseCase) Get(ctx context.Context, tenantID string) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, tenantID)
	}
	return toCompanyResponse(c), nil
}

// Save registra la empresa la primera vez y luego la actualiza. El NIF debe ser de persona
// colectiva o singular: el consumidor final no emite.
func (uc *CompanyUseCase) Save(ctx context.Context, tenantID string, in dto.SaveCompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(in.Name)
	nif := agt.NormalizeNIF(in.NIF)
	if tenantID == "" || name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if err := agt.ValidateNIF(nif); err != nil || nif == agt.ConsumerFinalNIF {
		return nil, fmt.Errorf("%w: NIF %q inválido", domain.ErrInvalidInput, in.NIF)
	}

	existing, err := uc.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &entity.Company{ID: tenantID, Country: agt.CountryCode, Status: "active", CreatedAt: now}
	if existing != nil {
		c = existing
	}
	c.Name = name
	c.NIF = nif
	c.Address = strings.TrimSpace(in.Address)
	c.City = strings.TrimSpace(in.City)
	c.Phone = in.Phone
	c.Email = in.Email
	c.SoftwareValidationNumber = strings.TrimSpace(in.SoftwareValidationNumber)
	c.UpdatedAt = now

	if err := uc.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("nif", nif).Bool("created", existing == nil).Msg("empresa guardada")
	return toCompanyResponse(c), nil
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:                       c.ID,
		Name:                     c.Name,
		NIF:                      c.NIF,
		Address:                  c.Address,
		City:                     c.City,
		Country:                  c.Country,
		Phone:                    c.Phone,
		Email:                    c.Email,
		SoftwareValidationNumber: c.SoftwareValidationNumber,
		Status:                   c.Status,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
	}
}
