package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// InventoryLotRepository define el puerto de persistencia para lotes FIFO.
type InventoryLotRepository interface {
	// Create persiste el lote y asigna lot.ID (secuencia).
	Create(lot *entity.InventoryLot) error
	GetByCode(businessID, lotCode string) (*entity.InventoryLot, error)
	CodeExists(businessID, lotCode string) (bool, error)
	// FIFOAvailable devuelve los lotes con qty_remaining > 0 del producto en
	// la ubicación, ordenados por (received_at ASC, id ASC).
	FIFOAvailable(businessID, productID, locationID string) ([]*entity.InventoryLot, error)
	// UpdateRemaining fija qty_remaining del lote.
	UpdateRemaining(lotID int64, qtyRemaining decimal.Decimal) error
	// SumRemaining suma qty_remaining del producto; locationID vacío = todas
	// las ubicaciones.
	SumRemaining(businessID, productID, locationID string) (decimal.Decimal, error)
	ListByProduct(businessID, productID string) ([]*entity.InventoryLot, error)
	DeleteByProduct(businessID, productID string) error
	DeleteByMovement(movementID int64) error
}

// MovementAllocationRepository define el puerto para las asignaciones
// movimiento→lote.
type MovementAllocationRepository interface {
	Create(allocation *entity.MovementAllocation) error
	ListByMovement(movementID int64) ([]*entity.MovementAllocation, error)
	DeleteByMovement(movementID int64) error
	// DeleteByProduct borra todas las asignaciones cuyos movimientos
	// pertenecen al producto (paso previo del rebuild).
	DeleteByProduct(businessID, productID string) error
}
