// Package auth usuarios y login. El token emitido lleva la empresa y el rol que usan los
// middlewares de la API.
package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/pkg/jwt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// MinPasswordLength largo mínimo del password.
const MinPasswordLength = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: alta de usuarios y login.
type AuthUseCase struct {
	users  repository.UserRepository
	jwtCfg JWTConfig
	log    *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, jwtCfg: jwtCfg, log: log}
}

// CreateUser crea un usuario en la empresa: hashea el password con bcrypt y persiste.
// Email duplicado (en cualquier empresa) → domain.ErrDuplicate.
func (uc *AuthUseCase) CreateUser(ctx context.Context, companyID string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if companyID == "" {
		return nil, fmt.Errorf("%w: empresa requerida", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q", domain.ErrInvalidInput, in.Email)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case jwt.RoleAdmin, jwt.RoleOperador, jwt.RoleAuditor:
	default:
		return nil, fmt.Errorf("%w: rol %q (admin, operador o auditor)", domain.ErrInvalidInput, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash de password: %w", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", companyID).Str("user_id", user.ID).Str("role", role).Msg("usuario creado")
	return toUserResponse(user), nil
}

// Login verifica email/password y genera el JWT. Usuario inexistente y password incorrecto
// responden igual (domain.ErrUnauthorized).
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y password son requeridos", domain.ErrInvalidInput)
	}
	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.log.Warn().Str("user_id", user.ID).Msg("login con password incorrecto")
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrUnauthorized)
	}
	if user.Status != entity.UserStatusActive {
		return nil, fmt.Errorf("%w: cuenta inactiva", domain.ErrForbidden)
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// ListUsers usuarios de la empresa.
func (uc *AuthUseCase) ListUsers(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.UserResponse, error) {
	page.DefaultPage()
	list, err := uc.users.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
