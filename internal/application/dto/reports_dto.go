package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductProfitResponse ventas y costo FIFO agregados de un producto.
type ProductProfitResponse struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Qty   decimal.Decimal `json:"qty"`
	Sales decimal.Decimal `json:"sales"`
	COGS  decimal.Decimal `json:"cogs"`
}

// ProductSalesResponse ventas agregadas por producto en un rango.
type ProductSalesResponse struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Qty   decimal.Decimal `json:"qty"`
	Sales decimal.Decimal `json:"sales"`
}

// MonthlyProfitResponse rentabilidad del mes.
type MonthlyProfitResponse struct {
	Year        int                     `json:"year"`
	Month       int                     `json:"month"`
	Sales       decimal.Decimal         `json:"sales"`
	COGS        decimal.Decimal         `json:"cogs"`
	GrossProfit decimal.Decimal         `json:"gross_profit"`
	Expenses    decimal.Decimal         `json:"expenses"`
	NetProfit   decimal.Decimal         `json:"net_profit"`
	ByProduct   []ProductProfitResponse `json:"by_product"`
}

// ProfitItemResponse drill-down por asignación venta→lote.
type ProfitItemResponse struct {
	MovementID   int64           `json:"movement_id"`
	MovementDate time.Time       `json:"movement_date"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	LotCode      string          `json:"lot_code"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Profit       decimal.Decimal `json:"profit"`
}

// StockItemResponse fila del listado de stock.
type StockItemResponse struct {
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	UnitOfMeasure string           `json:"unit_of_measure,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	MinStock      decimal.Decimal  `json:"min_stock"`
	LeadTimeDays  int              `json:"lead_time_days"`
	AvgDailySales decimal.Decimal  `json:"avg_daily_sales"`
	ReorderInDays *decimal.Decimal `json:"reorder_in_days,omitempty"`
	NeedsRestock  bool             `json:"needs_restock"`
}

// DailySalesResponse punto de la serie diaria.
type DailySalesResponse struct {
	Day   string          `json:"day"`
	Sales decimal.Decimal `json:"sales"`
}

// MonthlyFlowResponse flujos de un mes.
type MonthlyFlowResponse struct {
	Month     string          `json:"month"`
	Purchases decimal.Decimal `json:"purchases"`
	Sales     decimal.Decimal `json:"sales"`
	COGS      decimal.Decimal `json:"cogs"`
}

// ValuationResponse valor del inventario restante.
type ValuationResponse struct {
	AtCost       decimal.Decimal `json:"at_cost"`
	AtSalePrice  decimal.Decimal `json:"at_sale_price"`
	MarginIfSold decimal.Decimal `json:"margin_if_sold"`
}

// PartyDividendResponse posición de una parte en el reparto.
type PartyDividendResponse struct {
	Party     string          `json:"party"`
	Extracted decimal.Decimal `json:"extracted"`
	Pending   decimal.Decimal `json:"pending"`
}

// DividendsResponse reparto del mes: el negocio recupera COGS + gastos y la
// utilidad neta se divide en partes iguales entre los socios configurados.
type DividendsResponse struct {
	Year          int                     `json:"year"`
	Month         int                     `json:"month"`
	COGSTotal     decimal.Decimal         `json:"cogs_total"`
	ExpensesTotal decimal.Decimal         `json:"expenses_total"`
	NetProfit     decimal.Decimal         `json:"net_profit"`
	ShareEach     decimal.Decimal         `json:"share_each"`
	Parties       []PartyDividendResponse `json:"parties"`
}

// MovementHistoryResponse fila del historial de movimientos.
type MovementHistoryResponse struct {
	MovementID   int64            `json:"movement_id"`
	MovementDate time.Time        `json:"movement_date"`
	Type         string           `json:"type"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	LocationCode string           `json:"location_code"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	Note         string           `json:"note,omitempty"`
}

// RecentMovementResponse fila de compras/ventas recientes con lotes.
type RecentMovementResponse struct {
	MovementID   int64           `json:"movement_id"`
	MovementDate time.Time       `json:"movement_date"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	LocationCode string          `json:"location_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitAmount   decimal.Decimal `json:"unit_amount"`
	LotCodes     string          `json:"lot_codes,omitempty"`
}
