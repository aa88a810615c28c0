package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/masterdata"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// CustomerHandler maneja las peticiones HTTP para clientes.
type CustomerHandler struct {
	uc  *masterdata.CustomerUseCase
	log *logger.Logger
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *masterdata.CustomerUseCase, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{uc: uc, log: log}
}

// Create crea un cliente. Sin tax_id se registra como consumidor final.
// POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List lista clientes con paginación (?limit=&offset=).
// GET /api/customers
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()
	list, err := h.uc.List(c.Context(), companyID, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"items": list, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
