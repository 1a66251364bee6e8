package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de agregación de solo lectura. A diferencia de los
// repos CRUD recibe ctx por llamada: son consultas largas y cancelables.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes. Pasar el pool.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// StockList stock global por producto con los datos maestros para la
// sugerencia de reposición. query ya viene normalizada (minúsculas, sin
// acentos); el lado SQL usa unaccent para el mismo criterio.
func (r *ReportRepo) StockList(ctx context.Context, businessID, query string) ([]repository.StockRow, error) {
	sql := `
		SELECT p.sku, p.name, p.unit_of_measure,
		       COALESCE(SUM(l.qty_remaining), 0) AS quantity,
		       p.min_stock, p.lead_time_days,
		       p.default_purchase_cost, p.default_sale_price
		FROM products p
		LEFT JOIN inventory_lots l ON l.product_id = p.id
		WHERE p.business_id = $1
		  AND ($2 = '' OR unaccent(lower(p.sku)) LIKE '%' || $2 || '%'
		               OR unaccent(lower(p.name)) LIKE '%' || $2 || '%')
		GROUP BY p.id
		ORDER BY p.sku ASC`
	rows, err := r.q.Query(ctx, sql, businessID, query)
	if err != nil {
		return nil, fmt.Errorf("stock list: %w", err)
	}
	defer rows.Close()

	var result []repository.StockRow
	for rows.Next() {
		var row repository.StockRow
		if err := rows.Scan(&row.SKU, &row.Name, &row.UnitOfMeasure, &row.Quantity,
			&row.MinStock, &row.LeadTimeDays, &row.DefaultPurchaseCost, &row.DefaultSalePrice); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SalesByProduct ventas agregadas por producto en el rango.
func (r *ReportRepo) SalesByProduct(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]repository.ProductSalesRow, error) {
	sql := `
		SELECT p.id, p.sku, p.name,
		       SUM(-m.quantity) AS qty,
		       SUM(-m.quantity * COALESCE(m.unit_price, 0)) AS sales
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND m.movement_date >= $2 AND m.movement_date < $3
		  AND ($4 = '' OR m.location_id = $4)
		GROUP BY p.id
		ORDER BY sales DESC`
	rows, err := r.q.Query(ctx, sql, businessID, start, end, locationID)
	if err != nil {
		return nil, fmt.Errorf("sales by product: %w", err)
	}
	defer rows.Close()

	var result []repository.ProductSalesRow
	for rows.Next() {
		var row repository.ProductSalesRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Qty, &row.Sales); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SalesWithCOGSByProduct ventas más costo FIFO real por producto. El COGS
// sale de las asignaciones: cada unidad al costo del lote que consumió.
func (r *ReportRepo) SalesWithCOGSByProduct(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]repository.SalesCOGSRow, error) {
	sql := `
		SELECT p.id, p.sku, p.name,
		       SUM(-m.quantity) AS qty,
		       SUM(-m.quantity * COALESCE(m.unit_price, 0)) AS sales,
		       COALESCE((
		           SELECT SUM(a.quantity * a.unit_cost)
		           FROM movement_allocations a
		           JOIN inventory_movements ms ON ms.id = a.movement_id
		           WHERE ms.business_id = $1 AND ms.type = 'sale'
		             AND ms.product_id = p.id
		             AND ms.movement_date >= $2 AND ms.movement_date < $3
		             AND ($4 = '' OR ms.location_id = $4)
		       ), 0) AS cogs
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND m.movement_date >= $2 AND m.movement_date < $3
		  AND ($4 = '' OR m.location_id = $4)
		GROUP BY p.id
		ORDER BY sales DESC`
	rows, err := r.q.Query(ctx, sql, businessID, start, end, locationID)
	if err != nil {
		return nil, fmt.Errorf("sales with cogs: %w", err)
	}
	defer rows.Close()

	var result []repository.SalesCOGSRow
	for rows.Next() {
		var row repository.SalesCOGSRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Qty, &row.Sales, &row.COGS); err != nil {
			return nil, fmt.Errorf("scan cogs row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ProfitItems drill-down por asignación: cada venta trazada al lote exacto.
func (r *ReportRepo) ProfitItems(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]repository.ProfitItemRow, error) {
	sql := `
		SELECT m.id, m.movement_date, p.sku, p.name, p.category,
		       l.lot_code, a.unit_cost, COALESCE(m.unit_price, 0), a.quantity
		FROM movement_allocations a
		JOIN inventory_movements m ON m.id = a.movement_id
		JOIN inventory_lots l ON l.id = a.lot_id
		JOIN products p ON p.id = m.product_id
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND m.movement_date >= $2 AND m.movement_date < $3
		  AND ($4 = '' OR m.location_id = $4)
		ORDER BY m.movement_date ASC, m.id ASC, a.id ASC`
	rows, err := r.q.Query(ctx, sql, businessID, start, end, locationID)
	if err != nil {
		return nil, fmt.Errorf("profit items: %w", err)
	}
	defer rows.Close()

	var result []repository.ProfitItemRow
	for rows.Next() {
		var row repository.ProfitItemRow
		if err := rows.Scan(&row.MovementID, &row.MovementDate, &row.SKU, &row.Name,
			&row.Category, &row.LotCode, &row.UnitCost, &row.UnitPrice, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan profit item: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DailySales ventas agregadas por día del rango; días sin ventas no aparecen
// (el caso de uso rellena con ceros).
func (r *ReportRepo) DailySales(ctx context.Context, businessID string, start, end time.Time, locationID string) ([]repository.DailySalesRow, error) {
	sql := `
		SELECT to_char(m.movement_date, 'YYYY-MM-DD') AS day,
		       SUM(-m.quantity * COALESCE(m.unit_price, 0)) AS sales
		FROM inventory_movements m
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND m.movement_date >= $2 AND m.movement_date < $3
		  AND ($4 = '' OR m.location_id = $4)
		GROUP BY day
		ORDER BY day ASC`
	rows, err := r.q.Query(ctx, sql, businessID, start, end, locationID)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	var result []repository.DailySalesRow
	for rows.Next() {
		var row repository.DailySalesRow
		if err := rows.Scan(&row.Day, &row.Sales); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MonthlyFlows compras, ventas y COGS por mes desde start.
func (r *ReportRepo) MonthlyFlows(ctx context.Context, businessID string, start time.Time) ([]repository.MonthlyFlowRow, error) {
	sql := `
		WITH purchases AS (
			SELECT to_char(movement_date, 'YYYY-MM') AS month,
			       SUM(quantity * COALESCE(unit_cost, 0)) AS total
			FROM inventory_movements
			WHERE business_id = $1 AND type = 'purchase' AND movement_date >= $2
			GROUP BY month
		), sales AS (
			SELECT to_char(movement_date, 'YYYY-MM') AS month,
			       SUM(-quantity * COALESCE(unit_price, 0)) AS total
			FROM inventory_movements
			WHERE business_id = $1 AND type = 'sale' AND movement_date >= $2
			GROUP BY month
		), cogs AS (
			SELECT to_char(m.movement_date, 'YYYY-MM') AS month,
			       SUM(a.quantity * a.unit_cost) AS total
			FROM movement_allocations a
			JOIN inventory_movements m ON m.id = a.movement_id
			WHERE m.business_id = $1 AND m.type = 'sale' AND m.movement_date >= $2
			GROUP BY month
		)
		SELECT COALESCE(p.month, s.month, c.month) AS month,
		       COALESCE(p.total, 0), COALESCE(s.total, 0), COALESCE(c.total, 0)
		FROM purchases p
		FULL JOIN sales s ON s.month = p.month
		FULL JOIN cogs c ON c.month = COALESCE(p.month, s.month)
		ORDER BY month ASC`
	rows, err := r.q.Query(ctx, sql, businessID, start)
	if err != nil {
		return nil, fmt.Errorf("monthly flows: %w", err)
	}
	defer rows.Close()

	var result []repository.MonthlyFlowRow
	for rows.Next() {
		var row repository.MonthlyFlowRow
		if err := rows.Scan(&row.Month, &row.Purchases, &row.Sales, &row.COGS); err != nil {
			return nil, fmt.Errorf("scan monthly flow: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MovementHistory historial filtrado, más reciente primero.
func (r *ReportRepo) MovementHistory(ctx context.Context, businessID string, filter repository.MovementHistoryFilter) ([]repository.MovementHistoryRow, error) {
	sql := `
		SELECT m.id, m.movement_date, m.type, p.sku, p.name, loc.code,
		       m.quantity, m.unit_cost, m.unit_price, m.note
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		JOIN locations loc ON loc.id = m.location_id
		WHERE m.business_id = $1
		  AND ($2 = '' OR p.sku = $2)
		  AND ($3 = '' OR m.type = $3)
		  AND ($4 = '' OR loc.code = $4)
		  AND ($5 = '' OR unaccent(lower(p.sku)) LIKE '%' || $5 || '%'
		               OR unaccent(lower(p.name)) LIKE '%' || $5 || '%'
		               OR unaccent(lower(m.note)) LIKE '%' || $5 || '%')
		  AND ($6::timestamptz IS NULL OR m.movement_date >= $6)
		  AND ($7::timestamptz IS NULL OR m.movement_date < $7)
		ORDER BY m.movement_date DESC, m.id DESC
		LIMIT $8`
	rows, err := r.q.Query(ctx, sql, businessID, filter.SKU, filter.Type,
		filter.LocationCode, filter.Query, filter.Start, filter.End, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("movement history: %w", err)
	}
	defer rows.Close()

	var result []repository.MovementHistoryRow
	for rows.Next() {
		var row repository.MovementHistoryRow
		if err := rows.Scan(&row.MovementID, &row.MovementDate, &row.Type, &row.SKU,
			&row.Name, &row.LocationCode, &row.Quantity, &row.UnitCost, &row.UnitPrice, &row.Note); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// RecentPurchases últimas compras con los códigos de lote que crearon.
func (r *ReportRepo) RecentPurchases(ctx context.Context, businessID, query string, limit int) ([]repository.RecentMovementRow, error) {
	sql := `
		SELECT m.id, m.movement_date, p.sku, p.name, loc.code,
		       m.quantity, COALESCE(m.unit_cost, 0),
		       COALESCE(string_agg(l.lot_code, ', ' ORDER BY l.id), '')
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		JOIN locations loc ON loc.id = m.location_id
		LEFT JOIN inventory_lots l ON l.movement_id = m.id
		WHERE m.business_id = $1 AND m.type = 'purchase'
		  AND ($2 = '' OR unaccent(lower(p.sku)) LIKE '%' || $2 || '%'
		               OR unaccent(lower(p.name)) LIKE '%' || $2 || '%')
		GROUP BY m.id, p.sku, p.name, loc.code
		ORDER BY m.movement_date DESC, m.id DESC
		LIMIT $3`
	return r.recentMovements(ctx, sql, businessID, query, limit)
}

// RecentSales últimas ventas con los lotes consumidos vía asignaciones.
func (r *ReportRepo) RecentSales(ctx context.Context, businessID, query string, limit int) ([]repository.RecentMovementRow, error) {
	sql := `
		SELECT m.id, m.movement_date, p.sku, p.name, loc.code,
		       -m.quantity, COALESCE(m.unit_price, 0),
		       COALESCE(string_agg(l.lot_code, ', ' ORDER BY a.id), '')
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		JOIN locations loc ON loc.id = m.location_id
		LEFT JOIN movement_allocations a ON a.movement_id = m.id
		LEFT JOIN inventory_lots l ON l.id = a.lot_id
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND ($2 = '' OR unaccent(lower(p.sku)) LIKE '%' || $2 || '%'
		               OR unaccent(lower(p.name)) LIKE '%' || $2 || '%')
		GROUP BY m.id, p.sku, p.name, loc.code
		ORDER BY m.movement_date DESC, m.id DESC
		LIMIT $3`
	return r.recentMovements(ctx, sql, businessID, query, limit)
}

func (r *ReportRepo) recentMovements(ctx context.Context, sql, businessID, query string, limit int) ([]repository.RecentMovementRow, error) {
	rows, err := r.q.Query(ctx, sql, businessID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent movements: %w", err)
	}
	defer rows.Close()

	var result []repository.RecentMovementRow
	for rows.Next() {
		var row repository.RecentMovementRow
		if err := rows.Scan(&row.MovementID, &row.MovementDate, &row.SKU, &row.Name,
			&row.LocationCode, &row.Quantity, &row.UnitAmount, &row.LotCodes); err != nil {
			return nil, fmt.Errorf("scan recent movement: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SoldLast30Days unidades vendidas por SKU en los últimos 30 días.
func (r *ReportRepo) SoldLast30Days(ctx context.Context, businessID string) ([]repository.Sold30Row, error) {
	sql := `
		SELECT p.sku, SUM(-m.quantity)
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.business_id = $1 AND m.type = 'sale'
		  AND m.movement_date >= now() - interval '30 days'
		GROUP BY p.sku`
	rows, err := r.q.Query(ctx, sql, businessID)
	if err != nil {
		return nil, fmt.Errorf("sold last 30 days: %w", err)
	}
	defer rows.Close()

	var result []repository.Sold30Row
	for rows.Next() {
		var row repository.Sold30Row
		if err := rows.Scan(&row.SKU, &row.Qty); err != nil {
			return nil, fmt.Errorf("scan sold row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// InventoryValue valor del inventario restante a costo FIFO y a precio de venta.
func (r *ReportRepo) InventoryValue(ctx context.Context, businessID string) (decimal.Decimal, decimal.Decimal, error) {
	var atCost, atSalePrice decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.qty_remaining * l.unit_cost), 0),
		       COALESCE(SUM(l.qty_remaining * COALESCE(p.default_sale_price, 0)), 0)
		FROM inventory_lots l
		JOIN products p ON p.id = l.product_id
		WHERE l.business_id = $1`, businessID).Scan(&atCost, &atSalePrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("inventory value: %w", err)
	}
	return atCost, atSalePrice, nil
}
