package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// SeriesHandler maneja las series fiscales de la empresa.
type SeriesHandler struct {
	series *fiscal.SeriesUseCase
	docs   *fiscal.DocumentUseCase
	log    *logger.Logger
}

// NewSeriesHandler construye el handler.
func NewSeriesHandler(series *fiscal.SeriesUseCase, docs *fiscal.DocumentUseCase, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{series: series, docs: docs, log: log}
}

// Create registra una serie nueva.
// POST /api/series
func (h *SeriesHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSeriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.series.Create(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List lista las series con su último número y hash.
// GET /api/series
func (h *SeriesHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.series.List(c.Context(), companyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// VerifyChain recalcula la cadena de hash y las firmas de la serie.
// GET /api/series/:code/verify
func (h *SeriesHandler) VerifyChain(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	report, err := h.docs.VerifyChain(c.Context(), companyID, c.Params("code"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(report)
}
