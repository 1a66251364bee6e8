package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Filtro de historial de movimientos.
type MovementHistoryFilter struct {
	SKU          string
	Type         string
	LocationCode string
	Query        string // texto libre ya normalizado (sku/nombre/nota)
	Start        *time.Time
	End          *time.Time
	Limit        int
}

// Filas de resultado de las consultas de reporte (solo lectura).

type StockRow struct {
	SKU                 string
	Name                string
	UnitOfMeasure       string
	Quantity            decimal.Decimal
	MinStock            decimal.Decimal
	LeadTimeDays        int
	DefaultPurchaseCost *decimal.Decimal
	DefaultSalePrice    *decimal.Decimal
}

type ProductSalesRow struct {
	ProductID string
	SKU       string
	Name      string
	Qty       decimal.Decimal
	Sales     decimal.Decimal
}

// SalesCOGSRow agrega ventas y COGS FIFO (Σ alloc.qty × alloc.unit_cost) por producto.
type SalesCOGSRow struct {
	ProductID string
	SKU       string
	Name      string
	Qty       decimal.Decimal
	Sales     decimal.Decimal
	COGS      decimal.Decimal
}

// ProfitItemRow es el drill-down por asignación: cada venta trazada al lote
// exacto (y por tanto al costo exacto) que consumió.
type ProfitItemRow struct {
	MovementID   int64
	MovementDate time.Time
	SKU          string
	Name         string
	Category     string
	LotCode      string
	UnitCost     decimal.Decimal
	UnitPrice    decimal.Decimal
	Quantity     decimal.Decimal
}

type DailySalesRow struct {
	Day   string // YYYY-MM-DD
	Sales decimal.Decimal
}

// MonthlyFlowRow agrega compras, ventas y COGS de un mes (clave YYYY-MM).
type MonthlyFlowRow struct {
	Month     string
	Purchases decimal.Decimal
	Sales     decimal.Decimal
	COGS      decimal.Decimal
}

type MovementHistoryRow struct {
	MovementID   int64
	MovementDate time.Time
	Type         string
	SKU          string
	Name         string
	LocationCode string
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	Note         string
}

// RecentMovementRow fila de los listados de compras/ventas recientes, con los
// códigos de lote creados (compras) o consumidos vía asignaciones (ventas).
type RecentMovementRow struct {
	MovementID   int64
	MovementDate time.Time
	SKU          string
	Name         string
	LocationCode string
	Quantity     decimal.Decimal
	UnitAmount   decimal.Decimal // costo en compras, precio en ventas
	LotCodes     string
}

// Sold30Row unidades vendidas por SKU en los últimos 30 días.
type Sold30Row struct {
	SKU string
	Qty decimal.Decimal
}

// ReportRepository consultas de agregación de solo lectura sobre el libro +
// asignaciones. Nunca mutan estado y toleran períodos sin ventas.
type ReportRepository interface {
	StockList(ctx context.Context, businessID, query string) ([]StockRow, error)
	SalesByProduct(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]ProductSalesRow, error)
	SalesWithCOGSByProduct(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]SalesCOGSRow, error)
	ProfitItems(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]ProfitItemRow, error)
	DailySales(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]DailySalesRow, error)
	MonthlyFlows(ctx context.Context, businessID string, start time.Time) ([]MonthlyFlowRow, error)
	MovementHistory(ctx context.Context, businessID string, filter MovementHistoryFilter) ([]MovementHistoryRow, error)
	RecentPurchases(ctx context.Context, businessID, query string, limit int) ([]RecentMovementRow, error)
	RecentSales(ctx context.Context, businessID, query string, limit int) ([]RecentMovementRow, error)
	SoldLast30Days(ctx context.Context, businessID string) ([]Sold30Row, error)
	// InventoryValue devuelve el valor del inventario a costo
	// (Σ qty_remaining × unit_cost) y a precio de venta.
	InventoryValue(ctx context.Context, businessID string) (atCost, atSalePrice decimal.Decimal, err error)
}
