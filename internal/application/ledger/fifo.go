package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// consumedSegment registra cuánto se tomó de un lote durante una asignación
// FIFO. Los traslados lo reutilizan para replicar costo y antigüedad del
// lote de origen en el destino.
type consumedSegment struct {
	Lot      *entity.InventoryLot
	Quantity decimal.Decimal
}

// consumeFIFO descuenta quantity del inventario del producto en la ubicación
// indicada, agotando lotes en orden (received_at ASC, id ASC) y registrando
// una asignación por cada lote tocado. Si el stock no alcanza devuelve
// StockConflictError y la transacción que lo envuelve revierte todo.
func consumeFIFO(
	lotRepo repository.InventoryLotRepository,
	allocRepo repository.MovementAllocationRepository,
	product *entity.Product,
	location *entity.Location,
	movementID int64,
	quantity decimal.Decimal,
) ([]consumedSegment, error) {
	available, err := lotRepo.FIFOAvailable(product.BusinessID, product.ID, location.ID)
	if err != nil {
		return nil, fmt.Errorf("leer lotes disponibles: %w", err)
	}

	remaining := quantity
	segments := make([]consumedSegment, 0, len(available))
	for _, lot := range available {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(lot.QtyRemaining, remaining)
		if take.IsZero() {
			continue
		}
		if err := lotRepo.UpdateRemaining(lot.ID, lot.QtyRemaining.Sub(take)); err != nil {
			return nil, fmt.Errorf("descontar lote %s: %w", lot.LotCode, err)
		}
		if err := allocRepo.Create(&entity.MovementAllocation{
			MovementID: movementID,
			LotID:      lot.ID,
			Quantity:   take,
			UnitCost:   lot.UnitCost,
		}); err != nil {
			return nil, fmt.Errorf("registrar asignación: %w", err)
		}
		segments = append(segments, consumedSegment{Lot: lot, Quantity: take})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, &domain.StockConflictError{
			SKU:          product.SKU,
			LocationCode: location.Code,
			Available:    quantity.Sub(remaining),
			Requested:    quantity,
		}
	}
	return segments, nil
}
