package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/masterdata"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// CompanyHandler maneja los datos de la empresa emisora del token.
type CompanyHandler struct {
	uc  *masterdata.CompanyUseCase
	log *logger.Logger
}

// NewCompanyHandler construye el handler inyectando el caso de uso.
func NewCompanyHandler(uc *masterdata.CompanyUseCase, log *logger.Logger) *CompanyHandler {
	return &CompanyHandler{uc: uc, log: log}
}

// Get devuelve la empresa del token.
// GET /api/company
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Context(), companyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Save registra o actualiza la empresa del token.
// PUT /api/company
func (h *CompanyHandler) Save(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.SaveCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Save(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
