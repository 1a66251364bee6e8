package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest registro de una compra a proveedor.
type PurchaseRequest struct {
	SKU          string           `json:"sku"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	LocationCode string           `json:"location_code,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         string           `json:"note,omitempty"`
	LotCode      string           `json:"lot_code,omitempty"`
}

// SaleRequest registro de una venta.
type SaleRequest struct {
	SKU          string           `json:"sku"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	LocationCode string           `json:"location_code,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         string           `json:"note,omitempty"`
}

// AdjustmentRequest ajuste manual con delta con signo.
type AdjustmentRequest struct {
	SKU          string           `json:"sku"`
	Delta        decimal.Decimal  `json:"delta"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	LocationCode string           `json:"location_code,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         string           `json:"note,omitempty"`
}

// SupplierReturnRequest devolución a proveedor contra un lote puntual.
type SupplierReturnRequest struct {
	SKU          string          `json:"sku"`
	LotCode      string          `json:"lot_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	MovementDate *time.Time      `json:"movement_date,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// TransferLineRequest una línea del envío: producto y cantidad.
type TransferLineRequest struct {
	SKU      string          `json:"sku"`
	Quantity decimal.Decimal `json:"quantity"`
}

// TransferRequest envío de stock entre ubicaciones, con una o más líneas
// que viajan juntas.
type TransferRequest struct {
	FromLocationCode string                `json:"from_location_code,omitempty"`
	ToLocationCode   string                `json:"to_location_code"`
	Lines            []TransferLineRequest `json:"lines"`
	MovementDate     *time.Time            `json:"movement_date,omitempty"`
	Note             string                `json:"note,omitempty"`
}

// UpdatePurchaseRequest edición de compra; campos ausentes no cambian.
type UpdatePurchaseRequest struct {
	SKU          *string          `json:"sku,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         *string          `json:"note,omitempty"`
	LotCode      *string          `json:"lot_code,omitempty"`
}

// UpdateSaleRequest edición de venta; campos ausentes no cambian.
type UpdateSaleRequest struct {
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

// UpdateAdjustmentRequest edición de ajuste; campos ausentes no cambian.
type UpdateAdjustmentRequest struct {
	Delta        *decimal.Decimal `json:"delta,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

// UpdateTransferRequest edición de traslado; campos ausentes no cambian.
type UpdateTransferRequest struct {
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

// MovementResponse resumen de una operación simple del libro.
type MovementResponse struct {
	MovementID int64           `json:"movement_id"`
	LotCode    string          `json:"lot_code,omitempty"`
	StockAfter decimal.Decimal `json:"stock_after"`
	Warning    string          `json:"warning,omitempty"`
}

// TransferLineResponse resumen de una línea con su abanico de destinos.
type TransferLineResponse struct {
	SKU           string          `json:"sku"`
	Quantity      decimal.Decimal `json:"quantity"`
	OutMovementID int64           `json:"out_movement_id"`
	InMovementIDs []int64         `json:"in_movement_ids"`
	InLotCodes    []string        `json:"in_lot_codes,omitempty"`
}

// TransferResponse resumen de un envío completo.
type TransferResponse struct {
	Ref   string                 `json:"ref"`
	Lines []TransferLineResponse `json:"lines"`
}

// LotResponse lote FIFO disponible.
type LotResponse struct {
	LotCode      string          `json:"lot_code"`
	LocationID   string          `json:"location_id"`
	ReceivedAt   time.Time       `json:"received_at"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	QtyReceived  decimal.Decimal `json:"qty_received"`
	QtyRemaining decimal.Decimal `json:"qty_remaining"`
}
