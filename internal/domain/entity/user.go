package entity

import "time"

// User operador del sistema. Role es uno de admin, operador o auditor; el token JWT lo lleva
// junto con CompanyID.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStatusActive usuario habilitado para iniciar sesión.
const UserStatusActive = "active"
