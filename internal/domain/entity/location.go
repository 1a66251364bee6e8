package entity

import "time"

// Location representa una ubicación física de inventario (bodega central o
// punto de venta). El libro la crea perezosamente la primera vez que un
// código desconocido se usa en el contexto de un negocio.
type Location struct {
	ID         string
	BusinessID string
	Code       string // único por negocio
	Name       string
	CreatedAt  time.Time
}
