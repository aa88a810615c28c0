package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/masterdata"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// ProductHandler maneja las peticiones HTTP para productos.
type ProductHandler struct {
	uc  *masterdata.ProductUseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *masterdata.ProductUseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Create crea un producto.
// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List lista productos con paginación.
// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
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
