package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/application/reports"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// ReportsHandler expone los reportes de solo lectura del libro.
type ReportsHandler struct {
	uc         *reports.ReportsUseCase
	businesses repository.BusinessRepository
}

func NewReportsHandler(uc *reports.ReportsUseCase, businesses repository.BusinessRepository) *ReportsHandler {
	return &ReportsHandler{uc: uc, businesses: businesses}
}

// yearMonth lee year y month de la query; por defecto el mes en curso.
func yearMonth(c *fiber.Ctx) (int, time.Month) {
	now := time.Now().UTC()
	year := c.QueryInt("year", now.Year())
	month := c.QueryInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, time.Month(month)
}

func toProfitResponse(p *reports.MonthlyProfit) dto.MonthlyProfitResponse {
	out := dto.MonthlyProfitResponse{
		Year:        p.Year,
		Month:       int(p.Month),
		Sales:       p.Sales,
		COGS:        p.COGS,
		GrossProfit: p.GrossProfit,
		Expenses:    p.Expenses,
		NetProfit:   p.NetProfit,
		ByProduct:   make([]dto.ProductProfitResponse, 0, len(p.ByProduct)),
	}
	for _, row := range p.ByProduct {
		out.ByProduct = append(out.ByProduct, dto.ProductProfitResponse{
			SKU:   row.SKU,
			Name:  row.Name,
			Qty:   row.Qty,
			Sales: row.Sales,
			COGS:  row.COGS,
		})
	}
	return out
}

func toStockResponse(item reports.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		SKU:           item.SKU,
		Name:          item.Name,
		UnitOfMeasure: item.UnitOfMeasure,
		Quantity:      item.Quantity,
		MinStock:      item.MinStock,
		LeadTimeDays:  item.LeadTimeDays,
		AvgDailySales: item.AvgDailySales,
		ReorderInDays: item.ReorderInDays,
		NeedsRestock:  item.NeedsRestock,
	}
}

func toRecentResponse(rows []repository.RecentMovementRow) []dto.RecentMovementResponse {
	out := make([]dto.RecentMovementResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.RecentMovementResponse{
			MovementID:   row.MovementID,
			MovementDate: row.MovementDate,
			SKU:          row.SKU,
			Name:         row.Name,
			LocationCode: row.LocationCode,
			Quantity:     row.Quantity,
			UnitAmount:   row.UnitAmount,
			LotCodes:     row.LotCodes,
		})
	}
	return out
}

// MonthlyProfit godoc
// @Summary      Rentabilidad del mes (ventas, COGS FIFO, gastos, utilidad neta)
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        year      query  int     false  "año (por defecto el actual)"
// @Param        month     query  int     false  "mes 1-12 (por defecto el actual)"
// @Param        location  query  string  false  "código de ubicación"
// @Success      200  {object}  dto.MonthlyProfitResponse
// @Router       /api/reports/profit/monthly [get]
func (h *ReportsHandler) MonthlyProfit(c *fiber.Ctx) error {
	year, month := yearMonth(c)
	report, err := h.uc.MonthlyProfitReport(c.Context(), GetBusinessID(c), year, month, c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProfitResponse(report))
}

// ProfitItems godoc
// @Summary      Drill-down de rentabilidad: cada venta trazada a su lote
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        year      query  int     false  "año"
// @Param        month     query  int     false  "mes 1-12"
// @Param        location  query  string  false  "código de ubicación"
// @Success      200  {array}  dto.ProfitItemResponse
// @Router       /api/reports/profit/items [get]
func (h *ReportsHandler) ProfitItems(c *fiber.Ctx) error {
	year, month := yearMonth(c)
	rows, err := h.uc.MonthlyProfitItems(c.Context(), GetBusinessID(c), year, month, c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProfitItemResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ProfitItemResponse{
			MovementID:   row.MovementID,
			MovementDate: row.MovementDate,
			SKU:          row.SKU,
			Name:         row.Name,
			Category:     row.Category,
			LotCode:      row.LotCode,
			UnitCost:     row.UnitCost,
			UnitPrice:    row.UnitPrice,
			Quantity:     row.Quantity,
			Profit:       row.UnitPrice.Sub(row.UnitCost).Mul(row.Quantity),
		})
	}
	return c.JSON(out)
}

// MonthlyOverview godoc
// @Summary      Flujos mensuales: compras, ventas y COGS por mes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        months  query  int  false  "cuántos meses hacia atrás (por defecto 12)"
// @Success      200  {array}  dto.MonthlyFlowResponse
// @Router       /api/reports/overview [get]
func (h *ReportsHandler) MonthlyOverview(c *fiber.Ctx) error {
	rows, err := h.uc.MonthlyOverview(c.Context(), GetBusinessID(c), c.QueryInt("months"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MonthlyFlowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.MonthlyFlowResponse{
			Month:     row.Month,
			Purchases: row.Purchases,
			Sales:     row.Sales,
			COGS:      row.COGS,
		})
	}
	return c.JSON(out)
}

// DailySales godoc
// @Summary      Serie diaria de ventas del mes, días sin ventas en cero
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        year      query  int     false  "año"
// @Param        month     query  int     false  "mes 1-12"
// @Param        location  query  string  false  "código de ubicación"
// @Success      200  {array}  dto.DailySalesResponse
// @Router       /api/reports/sales/daily [get]
func (h *ReportsHandler) DailySales(c *fiber.Ctx) error {
	year, month := yearMonth(c)
	rows, err := h.uc.DailySalesSeries(c.Context(), GetBusinessID(c), year, month, c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.DailySalesResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.DailySalesResponse{Day: row.Day, Sales: row.Sales})
	}
	return c.JSON(out)
}

// SalesByProduct godoc
// @Summary      Ventas agregadas por producto en un rango de fechas
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start     query  string  false  "fecha inicial RFC3339 (por defecto inicio del mes)"
// @Param        end       query  string  false  "fecha final RFC3339 (por defecto inicio del mes siguiente)"
// @Param        location  query  string  false  "código de ubicación"
// @Success      200  {array}  dto.ProductSalesResponse
// @Router       /api/reports/sales/products [get]
func (h *ReportsHandler) SalesByProduct(c *fiber.Ctx) error {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badBody(c)
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badBody(c)
		}
		end = t
	}
	rows, err := h.uc.SalesByProduct(c.Context(), GetBusinessID(c), start, end, c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductSalesResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ProductSalesResponse{
			SKU:   row.SKU,
			Name:  row.Name,
			Qty:   row.Qty,
			Sales: row.Sales,
		})
	}
	return c.JSON(out)
}

// StockList godoc
// @Summary      Stock por producto con sugerencia de reposición
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        q  query  string  false  "búsqueda por sku o nombre, insensible a acentos"
// @Success      200  {array}  dto.StockItemResponse
// @Router       /api/reports/stock [get]
func (h *ReportsHandler) StockList(c *fiber.Ctx) error {
	items, err := h.uc.StockList(c.Context(), GetBusinessID(c), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toStockResponse(item))
	}
	return c.JSON(out)
}

// Stock godoc
// @Summary      Stock de un producto puntual
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        sku  path  string  true  "SKU del producto"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/stock/{sku} [get]
func (h *ReportsHandler) Stock(c *fiber.Ctx) error {
	item, err := h.uc.Stock(c.Context(), GetBusinessID(c), c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(*item))
}

// AvailableLots godoc
// @Summary      Lotes con saldo de un producto en orden FIFO
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        sku       path   string  true   "SKU del producto"
// @Param        location  query  string  false  "código de ubicación"
// @Success      200  {array}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/lots/{sku} [get]
func (h *ReportsHandler) AvailableLots(c *fiber.Ctx) error {
	lots, err := h.uc.AvailableLots(c.Context(), GetBusinessID(c), c.Params("sku"), c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, dto.LotResponse{
			LotCode:      lot.LotCode,
			LocationID:   lot.LocationID,
			ReceivedAt:   lot.ReceivedAt,
			UnitCost:     lot.UnitCost,
			QtyReceived:  lot.QtyReceived,
			QtyRemaining: lot.QtyRemaining,
		})
	}
	return c.JSON(out)
}

// MovementHistory godoc
// @Summary      Historial de movimientos con filtros
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        sku       query  string  false  "SKU exacto"
// @Param        type      query  string  false  "tipo de movimiento"
// @Param        location  query  string  false  "código de ubicación"
// @Param        q         query  string  false  "texto libre sobre sku, nombre o nota"
// @Param        start     query  string  false  "fecha inicial RFC3339"
// @Param        end       query  string  false  "fecha final RFC3339"
// @Param        limit     query  int     false  "máximo de filas (por defecto 100)"
// @Success      200  {array}  dto.MovementHistoryResponse
// @Router       /api/reports/movements [get]
func (h *ReportsHandler) MovementHistory(c *fiber.Ctx) error {
	filter := repository.MovementHistoryFilter{
		SKU:          c.Query("sku"),
		Type:         c.Query("type"),
		LocationCode: c.Query("location"),
		Query:        c.Query("q"),
		Limit:        c.QueryInt("limit"),
	}
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badBody(c)
		}
		filter.Start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badBody(c)
		}
		filter.End = &t
	}
	rows, err := h.uc.MovementHistory(c.Context(), GetBusinessID(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementHistoryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.MovementHistoryResponse{
			MovementID:   row.MovementID,
			MovementDate: row.MovementDate,
			Type:         row.Type,
			SKU:          row.SKU,
			Name:         row.Name,
			LocationCode: row.LocationCode,
			Quantity:     row.Quantity,
			UnitCost:     row.UnitCost,
			UnitPrice:    row.UnitPrice,
			Note:         row.Note,
		})
	}
	return c.JSON(out)
}

// RecentPurchases godoc
// @Summary      Últimas compras con sus códigos de lote
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        q      query  string  false  "búsqueda por sku o nombre"
// @Param        limit  query  int     false  "máximo de filas (por defecto 50)"
// @Success      200  {array}  dto.RecentMovementResponse
// @Router       /api/reports/purchases/recent [get]
func (h *ReportsHandler) RecentPurchases(c *fiber.Ctx) error {
	rows, err := h.uc.RecentPurchases(c.Context(), GetBusinessID(c), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toRecentResponse(rows))
}

// RecentSales godoc
// @Summary      Últimas ventas con los lotes que consumieron
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        q      query  string  false  "búsqueda por sku o nombre"
// @Param        limit  query  int     false  "máximo de filas (por defecto 50)"
// @Success      200  {array}  dto.RecentMovementResponse
// @Router       /api/reports/sales/recent [get]
func (h *ReportsHandler) RecentSales(c *fiber.Ctx) error {
	rows, err := h.uc.RecentSales(c.Context(), GetBusinessID(c), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toRecentResponse(rows))
}

// InventoryValue godoc
// @Summary      Valor del inventario a costo FIFO y a precio de venta
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/reports/valuation [get]
func (h *ReportsHandler) InventoryValue(c *fiber.Ctx) error {
	v, err := h.uc.InventoryValue(c.Context(), GetBusinessID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ValuationResponse{
		AtCost:       v.AtCost,
		AtSalePrice:  v.AtSalePrice,
		MarginIfSold: v.MarginIfSold,
	})
}

// Dividends godoc
// @Summary      Reparto del mes entre la cuenta del negocio y los socios
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        year   query  int  false  "año"
// @Param        month  query  int  false  "mes 1-12"
// @Success      200  {object}  dto.DividendsResponse
// @Router       /api/reports/dividends [get]
func (h *ReportsHandler) Dividends(c *fiber.Ctx) error {
	year, month := yearMonth(c)
	report, err := h.uc.Dividends(c.Context(), GetBusinessID(c), year, month)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.DividendsResponse{
		Year:          report.Year,
		Month:         int(report.Month),
		COGSTotal:     report.COGSTotal,
		ExpensesTotal: report.ExpensesTotal,
		NetProfit:     report.NetProfit,
		ShareEach:     report.ShareEach,
		Parties:       make([]dto.PartyDividendResponse, 0, len(report.Parties)),
	}
	for _, p := range report.Parties {
		out.Parties = append(out.Parties, dto.PartyDividendResponse{
			Party:     p.Party,
			Extracted: p.Extracted,
			Pending:   p.Pending,
		})
	}
	return c.JSON(out)
}

// MonthlyReportPDF godoc
// @Summary      Descargar el reporte mensual en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        year   query  int  false  "año"
// @Param        month  query  int  false  "mes 1-12"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly.pdf [get]
func (h *ReportsHandler) MonthlyReportPDF(c *fiber.Ctx) error {
	year, month := yearMonth(c)
	businessID := GetBusinessID(c)
	business, err := h.businesses.GetByID(businessID)
	if err != nil {
		return writeError(c, err)
	}
	name := "Negocio"
	if business != nil {
		name = business.Name
	}
	pdf, err := h.uc.MonthlyReportPDF(c.Context(), businessID, name, year, month)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="reporte-%04d-%02d.pdf"`, year, int(month)))
	return c.Send(pdf)
}
