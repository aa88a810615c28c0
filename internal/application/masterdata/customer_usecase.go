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

// CustomerUseCase casos de uso para clientes.
type CustomerUseCase struct {
	repo repository.CustomerRepository
	log  *logger.Logger
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository, log *logger.Logger) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, log: log}
}

// Create crea un cliente. El NIF se normaliza y es único por empresa, salvo el de
// consumidor final, que puede repetirse.
func (uc *CustomerUseCase) Create(ctx context.Context, tenantID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(in.Name)
	if tenantID == "" || name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	taxID := agt.NormalizeNIF(in.TaxID)
	if taxID == "" {
		taxID = agt.ConsumerFinalNIF
	}
	if err := agt.ValidateNIF(taxID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = agt.CountryCode
	}
	if len(country) != 2 {
		return nil, fmt.Errorf("%w: país debe ser ISO 3166-1 alpha-2", domain.ErrInvalidInput)
	}

	if taxID != agt.ConsumerFinalNIF {
		existing, err := uc.repo.GetByTaxID(ctx, tenantID, taxID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: ya existe un cliente con NIF %s", domain.ErrDuplicate, taxID)
		}
	}

	now := time.Now().UTC()
	c := &entity.Customer{
		ID:        uuid.New().String(),
		CompanyID: tenantID,
		Name:      name,
		TaxID:     taxID,
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		Country:   country,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("customer_id", c.ID).Msg("cliente creado")
	return toCustomerResponse(c), nil
}

// List lista clientes de la empresa.
func (uc *CustomerUseCase) List(ctx context.Context, tenantID string, page dto.PageRequest) ([]*dto.CustomerResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Address:   c.Address,
		City:      c.City,
		Country:   c.Country,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}
