package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/auth"
	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// AuthHandler maneja login y usuarios de la empresa.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// Login emite el token JWT.
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// CreateUser crea un usuario en la empresa del token.
// POST /api/users
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateUser(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListUsers lista usuarios de la empresa.
// GET /api/users
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()
	list, err := h.uc.ListUsers(c.Context(), companyID, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"items": list, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
