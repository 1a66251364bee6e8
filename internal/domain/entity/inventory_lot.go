package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryLot es un lote FIFO: una partida de stock recibida en un momento y
// a un costo concretos, consumida parcial o totalmente en orden de recepción.
// Es estado completamente derivado del libro de movimientos: el motor de
// rebuild lo borra y regenera cuando el historial cambia.
//
// Invariantes: 0 <= QtyRemaining <= QtyReceived; QtyRemaining solo decrece vía
// asignaciones de movimientos consumidores en la misma ubicación.
type InventoryLot struct {
	ID           int64
	BusinessID   string
	MovementID   int64 // movimiento de entrada que creó el lote
	ProductID    string
	LocationID   string
	LotCode      string // único por negocio
	ReceivedAt   time.Time
	UnitCost     decimal.Decimal
	QtyReceived  decimal.Decimal
	QtyRemaining decimal.Decimal
}

// MovementAllocation registra cuánto tomó un movimiento consumidor de un lote
// y a qué costo unitario estaba el lote en ese momento. Para cada lote:
// sum(Quantity) == QtyReceived - QtyRemaining.
type MovementAllocation struct {
	ID         int64
	MovementID int64
	LotID      int64
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}
