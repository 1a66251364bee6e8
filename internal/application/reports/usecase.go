package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/norm"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

// ReportsUseCase consultas de solo lectura sobre el libro: rentabilidad
// mensual a costo FIFO real, series de ventas, stock con sugerencia de
// reposición, valorización y reporte de dividendos.
type ReportsUseCase struct {
	reports     repository.ReportRepository
	expenses    repository.OperatingExpenseRepository
	extractions repository.MoneyExtractionRepository
	locations   repository.LocationRepository
	lots        repository.InventoryLotRepository
	products    repository.ProductRepository
	pdf         PDFGenerator
	dividends   DividendsConfig
	log         *logger.Logger
}

// PDFGenerator renderiza el reporte mensual a PDF.
type PDFGenerator interface {
	MonthlyReport(data *MonthlyReportData) ([]byte, error)
}

// DividendsConfig parámetros del reparto de dividendos: etiqueta de la
// cuenta del negocio, socios y saldos pendientes de arrastre.
type DividendsConfig struct {
	BusinessLabel  string
	Partners       []string
	OpeningPending map[string]decimal.Decimal
}

// NewReportsUseCase crea el caso de uso de reportes.
func NewReportsUseCase(
	reports repository.ReportRepository,
	expenses repository.OperatingExpenseRepository,
	extractions repository.MoneyExtractionRepository,
	locations repository.LocationRepository,
	lots repository.InventoryLotRepository,
	products repository.ProductRepository,
	pdf PDFGenerator,
	dividends DividendsConfig,
	log *logger.Logger,
) *ReportsUseCase {
	return &ReportsUseCase{
		reports:     reports,
		expenses:    expenses,
		extractions: extractions,
		locations:   locations,
		lots:        lots,
		products:    products,
		pdf:         pdf,
		dividends:   dividends,
		log:         log,
	}
}

// normalizeQuery baja a minúsculas y quita acentos para búsqueda insensible
// a tildes (ñ se conserva fuera; aquí se simplifica junto con el resto de
// marcas diacríticas, igual que hace la consulta SQL con unaccent).
func normalizeQuery(q string) string {
	t := runes.Remove(runes.In(unicode.Mn))
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(q)))
	return norm.NFC.String(t.String(decomposed))
}

// monthRange devuelve [inicio, fin) del mes en UTC.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// locationID resuelve el código de ubicación a id; vacío = todas.
func (uc *ReportsUseCase) locationID(businessID, code string) (string, error) {
	if code == "" {
		return "", nil
	}
	loc, err := uc.locations.GetByCode(businessID, code)
	if err != nil {
		if err == domain.ErrNotFound {
			return "", fmt.Errorf("ubicación %s: %w", code, domain.ErrNotFound)
		}
		return "", err
	}
	return loc.ID, nil
}

// MonthlyProfit resumen de rentabilidad de un mes: ventas, COGS FIFO real,
// utilidad bruta, gastos operativos y utilidad neta.
type MonthlyProfit struct {
	Year        int
	Month       time.Month
	Sales       decimal.Decimal
	COGS        decimal.Decimal
	GrossProfit decimal.Decimal
	Expenses    decimal.Decimal
	NetProfit   decimal.Decimal
	ByProduct   []repository.SalesCOGSRow
}

// MonthlyProfitReport calcula la rentabilidad del mes. El COGS sale de las
// asignaciones movimiento→lote: cada unidad vendida al costo del lote exacto
// que consumió, no a un promedio.
func (uc *ReportsUseCase) MonthlyProfitReport(ctx context.Context, businessID string, year int, month time.Month, locationCode string) (*MonthlyProfit, error) {
	start, end := monthRange(year, month)
	locID, err := uc.locationID(businessID, locationCode)
	if err != nil {
		return nil, err
	}
	rows, err := uc.reports.SalesWithCOGSByProduct(ctx, businessID, start, end, locID)
	if err != nil {
		return nil, fmt.Errorf("ventas con costo del mes: %w", err)
	}
	report := &MonthlyProfit{Year: year, Month: month, ByProduct: rows}
	for _, row := range rows {
		report.Sales = report.Sales.Add(row.Sales)
		report.COGS = report.COGS.Add(row.COGS)
	}
	report.GrossProfit = report.Sales.Sub(report.COGS)

	report.Expenses, err = uc.expenses.Total(businessID, start, end)
	if err != nil {
		return nil, fmt.Errorf("gastos del mes: %w", err)
	}
	report.NetProfit = report.GrossProfit.Sub(report.Expenses)
	return report, nil
}

// MonthlyProfitItems drill-down de rentabilidad: una fila por asignación de
// venta, con el lote y costo exactos.
func (uc *ReportsUseCase) MonthlyProfitItems(ctx context.Context, businessID string, year int, month time.Month, locationCode string) ([]repository.ProfitItemRow, error) {
	start, end := monthRange(year, month)
	locID, err := uc.locationID(businessID, locationCode)
	if err != nil {
		return nil, err
	}
	return uc.reports.ProfitItems(ctx, businessID, start, end, locID)
}

// MonthlyOverview flujos mensuales (compras, ventas, COGS) desde el mes
// indicado hacia hoy, con meses sin actividad en cero.
func (uc *ReportsUseCase) MonthlyOverview(ctx context.Context, businessID string, months int) ([]repository.MonthlyFlowRow, error) {
	if months <= 0 {
		months = 12
	}
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	rows, err := uc.reports.MonthlyFlows(ctx, businessID, start)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]repository.MonthlyFlowRow, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row
	}
	filled := make([]repository.MonthlyFlowRow, 0, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		if row, ok := byMonth[key]; ok {
			filled = append(filled, row)
			continue
		}
		filled = append(filled, repository.MonthlyFlowRow{Month: key})
	}
	return filled, nil
}

// SalesByProduct ventas agregadas por producto en un rango arbitrario.
func (uc *ReportsUseCase) SalesByProduct(ctx context.Context, businessID string, start, end time.Time, locationCode string) ([]repository.ProductSalesRow, error) {
	locID, err := uc.locationID(businessID, locationCode)
	if err != nil {
		return nil, err
	}
	return uc.reports.SalesByProduct(ctx, businessID, start, end, locID)
}

// DailySalesSeries serie diaria de ventas del mes, con los días sin ventas
// en cero para graficar directo.
func (uc *ReportsUseCase) DailySalesSeries(ctx context.Context, businessID string, year int, month time.Month, locationCode string) ([]repository.DailySalesRow, error) {
	start, end := monthRange(year, month)
	locID, err := uc.locationID(businessID, locationCode)
	if err != nil {
		return nil, err
	}
	rows, err := uc.reports.DailySales(ctx, businessID, start, end, locID)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row.Sales
	}
	days := int(end.Sub(start).Hours() / 24)
	series := make([]repository.DailySalesRow, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, repository.DailySalesRow{Day: key, Sales: byDay[key]})
	}
	return series, nil
}

// StockItem fila del listado de stock con la sugerencia de reposición.
type StockItem struct {
	SKU                 string
	Name                string
	UnitOfMeasure       string
	Quantity            decimal.Decimal
	MinStock            decimal.Decimal
	LeadTimeDays        int
	DefaultPurchaseCost *decimal.Decimal
	DefaultSalePrice    *decimal.Decimal
	AvgDailySales       decimal.Decimal
	// ReorderInDays días estimados hasta tocar el mínimo al ritmo de venta de
	// los últimos 30 días; nil cuando no hay ventas recientes.
	ReorderInDays *decimal.Decimal
	NeedsRestock  bool
}

// StockList stock global por producto con ritmo de venta de 30 días y días
// estimados hasta reposición.
func (uc *ReportsUseCase) StockList(ctx context.Context, businessID, query string) ([]StockItem, error) {
	rows, err := uc.reports.StockList(ctx, businessID, normalizeQuery(query))
	if err != nil {
		return nil, err
	}
	sold, err := uc.reports.SoldLast30Days(ctx, businessID)
	if err != nil {
		return nil, err
	}
	soldBySKU := make(map[string]decimal.Decimal, len(sold))
	for _, s := range sold {
		soldBySKU[s.SKU] = s.Qty
	}

	thirty := decimal.NewFromInt(30)
	items := make([]StockItem, 0, len(rows))
	for _, row := range rows {
		item := StockItem{
			SKU:                 row.SKU,
			Name:                row.Name,
			UnitOfMeasure:       row.UnitOfMeasure,
			Quantity:            row.Quantity,
			MinStock:            row.MinStock,
			LeadTimeDays:        row.LeadTimeDays,
			DefaultPurchaseCost: row.DefaultPurchaseCost,
			DefaultSalePrice:    row.DefaultSalePrice,
			NeedsRestock:        row.MinStock.IsPositive() && row.Quantity.LessThanOrEqual(row.MinStock),
		}
		if qty, ok := soldBySKU[row.SKU]; ok && qty.IsPositive() {
			item.AvgDailySales = qty.Div(thirty)
			margin := row.Quantity.Sub(row.MinStock)
			if margin.IsNegative() {
				margin = decimal.Zero
			}
			days := margin.Div(item.AvgDailySales).Round(1)
			item.ReorderInDays = &days
		}
		items = append(items, item)
	}
	return items, nil
}

// Stock stock global de un producto puntual.
func (uc *ReportsUseCase) Stock(ctx context.Context, businessID, sku string) (*StockItem, error) {
	items, err := uc.StockList(ctx, businessID, "")
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].SKU == sku {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("producto %s: %w", sku, domain.ErrNotFound)
}

// AvailableLots lotes con saldo del producto en orden FIFO, opcionalmente
// restringidos a una ubicación.
func (uc *ReportsUseCase) AvailableLots(ctx context.Context, businessID, sku, locationCode string) ([]*entity.InventoryLot, error) {
	product, err := uc.products.GetBySKU(businessID, sku)
	if err != nil {
		return nil, err
	}
	locID, err := uc.locationID(businessID, locationCode)
	if err != nil {
		return nil, err
	}
	if locID != "" {
		return uc.lots.FIFOAvailable(businessID, product.ID, locID)
	}
	lots, err := uc.lots.ListByProduct(businessID, product.ID)
	if err != nil {
		return nil, err
	}
	available := lots[:0]
	for _, lot := range lots {
		if lot.QtyRemaining.IsPositive() {
			available = append(available, lot)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		if !available[i].ReceivedAt.Equal(available[j].ReceivedAt) {
			return available[i].ReceivedAt.Before(available[j].ReceivedAt)
		}
		return available[i].ID < available[j].ID
	})
	return available, nil
}

// MovementHistory historial filtrado de movimientos.
func (uc *ReportsUseCase) MovementHistory(ctx context.Context, businessID string, filter repository.MovementHistoryFilter) ([]repository.MovementHistoryRow, error) {
	filter.Query = normalizeQuery(filter.Query)
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return uc.reports.MovementHistory(ctx, businessID, filter)
}

// RecentPurchases últimas compras con sus códigos de lote.
func (uc *ReportsUseCase) RecentPurchases(ctx context.Context, businessID, query string, limit int) ([]repository.RecentMovementRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.reports.RecentPurchases(ctx, businessID, normalizeQuery(query), limit)
}

// RecentSales últimas ventas con los lotes que consumieron.
func (uc *ReportsUseCase) RecentSales(ctx context.Context, businessID, query string, limit int) ([]repository.RecentMovementRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.reports.RecentSales(ctx, businessID, normalizeQuery(query), limit)
}

// InventoryValuation valor total del inventario.
type InventoryValuation struct {
	AtCost       decimal.Decimal
	AtSalePrice  decimal.Decimal
	MarginIfSold decimal.Decimal
}

// InventoryValue valoriza el inventario restante a costo FIFO y a precio de
// venta por defecto.
func (uc *ReportsUseCase) InventoryValue(ctx context.Context, businessID string) (*InventoryValuation, error) {
	atCost, atPrice, err := uc.reports.InventoryValue(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &InventoryValuation{
		AtCost:       atCost,
		AtSalePrice:  atPrice,
		MarginIfSold: atPrice.Sub(atCost),
	}, nil
}

// PartyDividend posición de una parte en el reparto: lo que ya retiró en el
// mes y lo que le queda pendiente por cobrar.
type PartyDividend struct {
	Party     string
	Extracted decimal.Decimal
	Pending   decimal.Decimal
}

// DividendsReport reparto del mes. La utilidad neta se divide en partes
// iguales entre los socios configurados; la cuenta del negocio recupera
// primero el costo de la mercadería y los gastos del mes.
type DividendsReport struct {
	Year          int
	Month         time.Month
	COGSTotal     decimal.Decimal
	ExpensesTotal decimal.Decimal
	NetProfit     decimal.Decimal
	ShareEach     decimal.Decimal
	Parties       []PartyDividend
}

// Dividends calcula el reporte de dividendos del mes. Las partes salen de la
// configuración del negocio, no de los retiros: un socio sin retiros en el
// mes igual aparece con su parte completa pendiente. Los saldos de arrastre
// configurados se suman al pendiente de cada parte, incluso de partes que no
// figuran como socio ni como negocio.
func (uc *ReportsUseCase) Dividends(ctx context.Context, businessID string, year int, month time.Month) (*DividendsReport, error) {
	profit, err := uc.MonthlyProfitReport(ctx, businessID, year, month, "")
	if err != nil {
		return nil, err
	}
	start, end := monthRange(year, month)
	totals, err := uc.extractions.TotalsByParty(businessID, start, end)
	if err != nil {
		return nil, fmt.Errorf("retiros del mes: %w", err)
	}

	label := strings.TrimSpace(uc.dividends.BusinessLabel)
	if label == "" {
		label = "Negocio"
	}
	var partners []string
	for _, p := range uc.dividends.Partners {
		if p = strings.TrimSpace(p); p != "" {
			partners = append(partners, p)
		}
	}

	report := &DividendsReport{
		Year:          year,
		Month:         month,
		COGSTotal:     profit.COGS,
		ExpensesTotal: profit.Expenses,
		NetProfit:     profit.NetProfit,
	}
	if len(partners) > 0 {
		report.ShareEach = profit.NetProfit.Div(decimal.NewFromInt(int64(len(partners)))).Round(2)
	}

	index := make(map[string]int)
	addParty := func(party string, extracted, pending decimal.Decimal) {
		index[party] = len(report.Parties)
		report.Parties = append(report.Parties, PartyDividend{
			Party:     party,
			Extracted: extracted,
			Pending:   pending,
		})
	}

	// La cuenta del negocio primero: recupera COGS + gastos del mes.
	businessExtracted := totals[label]
	addParty(label, businessExtracted, profit.COGS.Add(profit.Expenses).Sub(businessExtracted))
	for _, partner := range partners {
		extracted := totals[partner]
		addParty(partner, extracted, report.ShareEach.Sub(extracted))
	}

	opening := make([]string, 0, len(uc.dividends.OpeningPending))
	for party := range uc.dividends.OpeningPending {
		if strings.TrimSpace(party) != "" {
			opening = append(opening, party)
		}
	}
	sort.Strings(opening)
	for _, party := range opening {
		amount := uc.dividends.OpeningPending[party]
		if i, ok := index[party]; ok {
			report.Parties[i].Pending = report.Parties[i].Pending.Add(amount)
			continue
		}
		addParty(party, totals[party], amount)
	}
	return report, nil
}

// MonthlyReportData datos que alimenta el PDF mensual.
type MonthlyReportData struct {
	BusinessName string
	Year         int
	Month        time.Month
	Profit       *MonthlyProfit
	DailySales   []repository.DailySalesRow
	Valuation    *InventoryValuation
}

// MonthlyReportPDF arma y renderiza el reporte mensual en PDF.
func (uc *ReportsUseCase) MonthlyReportPDF(ctx context.Context, businessID, businessName string, year int, month time.Month) ([]byte, error) {
	profit, err := uc.MonthlyProfitReport(ctx, businessID, year, month, "")
	if err != nil {
		return nil, err
	}
	daily, err := uc.DailySalesSeries(ctx, businessID, year, month, "")
	if err != nil {
		return nil, err
	}
	valuation, err := uc.InventoryValue(ctx, businessID)
	if err != nil {
		return nil, err
	}
	data := &MonthlyReportData{
		BusinessName: businessName,
		Year:         year,
		Month:        month,
		Profit:       profit,
		DailySales:   daily,
		Valuation:    valuation,
	}
	pdf, err := uc.pdf.MonthlyReport(data)
	if err != nil {
		return nil, fmt.Errorf("generar PDF mensual: %w", err)
	}
	uc.log.Info().
		Int("year", year).
		Int("month", int(month)).
		Int("bytes", len(pdf)).
		Msg("reporte mensual generado")
	return pdf, nil
}
