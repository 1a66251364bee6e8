package repository

import (
	"time"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para el libro
// de movimientos (DIP). El orden (movement_date, id) de ListByProduct es el
// orden autoritativo de atribución de costos para el rebuild.
type InventoryMovementRepository interface {
	// Create persiste el movimiento y asigna movement.ID (secuencia).
	Create(movement *entity.InventoryMovement) error
	GetByID(businessID string, id int64) (*entity.InventoryMovement, error)
	Update(movement *entity.InventoryMovement) error
	Delete(businessID string, id int64) error
	// ListByProduct devuelve todos los movimientos del producto ordenados por
	// (movement_date ASC, id ASC).
	ListByProduct(businessID, productID string) ([]*entity.InventoryMovement, error)
	// ListTransferIns devuelve los transfer_in cuya columna transfer_out_id
	// apunta al transfer_out dado.
	ListTransferIns(businessID string, outID int64) ([]*entity.InventoryMovement, error)
	// SearchTransferInsByNote busca transfer_in legados cuyo note contiene el
	// marcador dado (p. ej. "out_id=42").
	SearchTransferInsByNote(businessID, marker string) ([]*entity.InventoryMovement, error)
	// ListTransferInCandidates devuelve transfer_in del producto dentro de la
	// ventana [from, to] (emparejamiento heurístico de datos legados).
	// locationID vacío significa cualquier ubicación.
	ListTransferInCandidates(businessID, productID, locationID string, from, to time.Time) ([]*entity.InventoryMovement, error)
}
