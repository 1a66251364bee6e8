package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType es el conjunto cerrado de tipos de movimiento del libro de
// inventario. El motor de rebuild y el asignador FIFO hacen switch exhaustivo
// sobre estos valores; no se comparan strings sueltos fuera de este tipo.
type MovementType string

const (
	MovementPurchase       MovementType = "purchase"
	MovementSale           MovementType = "sale"
	MovementAdjustment     MovementType = "adjustment"
	MovementTransferOut    MovementType = "transfer_out"
	MovementTransferIn     MovementType = "transfer_in"
	MovementReturnSupplier MovementType = "return_supplier"
)

// Valid indica si el valor pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment,
		MovementTransferOut, MovementTransferIn, MovementReturnSupplier:
		return true
	}
	return false
}

// CreatesLot indica si un movimiento de este tipo con la cantidad dada
// produce un lote FIFO nuevo (entrada con costo).
func (t MovementType) CreatesLot(quantity decimal.Decimal) bool {
	switch t {
	case MovementPurchase, MovementTransferIn:
		return true
	case MovementAdjustment:
		return quantity.GreaterThan(decimal.Zero)
	}
	return false
}

// ConsumesStock indica si un movimiento de este tipo con la cantidad dada
// consume lotes (salida).
func (t MovementType) ConsumesStock(quantity decimal.Decimal) bool {
	switch t {
	case MovementSale, MovementTransferOut, MovementReturnSupplier:
		return true
	case MovementAdjustment:
		return quantity.LessThan(decimal.Zero)
	}
	return false
}

// InventoryMovement es una fila del libro mayor de inventario: el registro
// inmutable-por-convención del que los lotes y asignaciones se derivan.
// Quantity es con signo: positiva para entradas, negativa para salidas.
// MovementDate es la fecha efectiva de negocio, independiente de CreatedAt.
type InventoryMovement struct {
	ID           int64
	BusinessID   string
	ProductID    string
	LocationID   string
	Type         MovementType
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal // entradas con costo (purchase, adjustment+, transfer_in)
	UnitPrice    *decimal.Decimal // solo sale
	MovementDate time.Time
	Note         string

	// Enlace de traslados: columnas de primera clase (ver DESIGN.md).
	// Los marcadores ref=/out_id= en Note se mantienen por legibilidad y
	// por compatibilidad con datos legados.
	TransferRef   string
	TransferOutID *int64 // en filas transfer_in, el id del transfer_out origen

	CreatedAt time.Time
	CreatedBy string
}
