package entity

import "time"

// Business representa el negocio (tenant) al que pertenece todo el estado del
// libro: movimientos, lotes, asignaciones y ubicaciones van scoped por negocio.
type Business struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Roles de usuario.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// User usuario de la aplicación, pertenece a un negocio.
type User struct {
	ID           string
	BusinessID   string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
