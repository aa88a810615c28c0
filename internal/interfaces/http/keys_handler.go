package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// KeysHandler administra el par de llaves RSA de la empresa del token.
type KeysHandler struct {
	km  *fiscal.KeyManager
	log *logger.Logger
}

// NewKeysHandler construye el handler.
func NewKeysHandler(km *fiscal.KeyManager, log *logger.Logger) *KeysHandler {
	return &KeysHandler{km: km, log: log}
}

// Generate genera el par de llaves. Si ya existe responde 200 con la llave vigente.
// POST /api/keys
func (h *KeysHandler) Generate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	kp, err := h.km.Generate(c.Context(), companyID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) && kp != nil {
			return c.JSON(dto.KeyResponse{TenantID: kp.TenantID, PublicKeyPEM: string(kp.PublicKeyPEM), CreatedAt: kp.CreatedAt, Existing: true})
		}
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.KeyResponse{TenantID: kp.TenantID, PublicKeyPEM: string(kp.PublicKeyPEM), CreatedAt: kp.CreatedAt})
}

// PublicKey devuelve la llave pública en PEM, la que se entrega a la AGT.
// GET /api/keys/public
func (h *KeysHandler) PublicKey(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	pem, err := h.km.PublicKey(c.Context(), companyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/x-pem-file")
	return c.Send(pem)
}
