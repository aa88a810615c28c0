package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// DocumentHandler emite, consulta y anula documentos fiscales.
type DocumentHandler struct {
	uc  *fiscal.DocumentUseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *fiscal.DocumentUseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// Emit valida, firma y persiste un documento. El usuario del token queda como SourceID.
// POST /api/documents
func (h *DocumentHandler) Emit(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.EmitDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.Emit(c.Context(), companyID, userID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GetByID detalle de un documento.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	doc, err := h.uc.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(doc)
}

// Cancel anula un documento. La anulación no altera el hash ni la cadena.
// POST /api/documents/:id/cancel
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CancelDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.Cancel(c.Context(), companyID, c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(doc)
}
