package http

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

const periodLayout = "2006-01-02"

// SaftHandler exporta y valida archivos SAF-T AO.
type SaftHandler struct {
	uc  *fiscal.ExportUseCase
	log *logger.Logger
}

// NewSaftHandler construye el handler.
func NewSaftHandler(uc *fiscal.ExportUseCase, log *logger.Logger) *SaftHandler {
	return &SaftHandler{uc: uc, log: log}
}

// Export genera el SAF-T del período como adjunto XML. El resultado de la validación va en
// headers: un archivo inválido se entrega igual para que el contador lo revise.
// GET /api/saft?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *SaftHandler) Export(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, err := time.Parse(periodLayout, c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser YYYY-MM-DD"})
	}
	to, err := time.Parse(periodLayout, c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser YYYY-MM-DD"})
	}
	job, err := h.uc.Export(c.Context(), companyID, from, to)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="SAFT_AO_%s_%s_%s.xml"`,
		companyID, from.Format(periodLayout), to.Format(periodLayout)))
	c.Set("X-Saft-Valid", strconv.FormatBool(job.Validation.Valid))
	c.Set("X-Saft-Errors", strconv.Itoa(len(job.Validation.Errors)))
	c.Set("X-Saft-Documents", strconv.Itoa(job.DocumentCount))
	c.Set("X-Saft-Digest", job.Digest)
	return c.Send(job.XML)
}

// Validate valida un SAF-T recibido como cuerpo crudo o como archivo multipart "file".
// POST /api/saft/validate
func (h *SaftHandler) Validate(c *fiber.Ctx) error {
	body := c.Body()
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badBody(c)
		}
		defer f.Close()
		if body, err = io.ReadAll(f); err != nil {
			return badBody(c)
		}
	}
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "archivo SAF-T requerido"})
	}
	return c.JSON(h.uc.Validate(body))
}
