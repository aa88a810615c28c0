package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// errorMapping status HTTP y código por error de dominio, en orden de prioridad.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrSigningUnavailable, fiber.StatusServiceUnavailable, "SIGNING_UNAVAILABLE"},
	{domain.ErrChainConflict, fiber.StatusConflict, "CHAIN_CONFLICT"},
	{domain.ErrSeriesNotFound, fiber.StatusNotFound, "SERIES_NOT_FOUND"},
	{domain.ErrSeriesInactive, fiber.StatusConflict, "SERIES_INACTIVE"},
	{domain.ErrInvalidReference, fiber.StatusUnprocessableEntity, "INVALID_REFERENCE"},
	{domain.ErrAmountExceeded, fiber.StatusUnprocessableEntity, "AMOUNT_EXCEEDED"},
	{domain.ErrDocumentCanceled, fiber.StatusConflict, "DOCUMENT_CANCELED"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrAlreadyExists, fiber.StatusConflict, "ALREADY_EXISTS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
}

// respondError traduce un error de los casos de uso a la respuesta JSON.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
