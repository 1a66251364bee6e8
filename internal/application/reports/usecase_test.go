package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-ledger/internal/application/reports"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

const testBusinessID = "biz-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Dobles con datos enlatados. El caso de uso es de solo lectura, así que los
// stubs simplemente devuelven las filas configuradas.
// ──────────────────────────────────────────────────────────────────────────────

type stubReportRepo struct {
	stock      []repository.StockRow
	salesCOGS  []repository.SalesCOGSRow
	items      []repository.ProfitItemRow
	daily      []repository.DailySalesRow
	flows      []repository.MonthlyFlowRow
	sold30     []repository.Sold30Row
	atCost     decimal.Decimal
	atPrice    decimal.Decimal
	lastQuery  string
	lastFilter repository.MovementHistoryFilter
}

func (s *stubReportRepo) StockList(_ context.Context, _ string, query string) ([]repository.StockRow, error) {
	s.lastQuery = query
	return s.stock, nil
}

func (s *stubReportRepo) SalesByProduct(context.Context, string, time.Time, time.Time, string) ([]repository.ProductSalesRow, error) {
	return nil, nil
}

func (s *stubReportRepo) SalesWithCOGSByProduct(context.Context, string, time.Time, time.Time, string) ([]repository.SalesCOGSRow, error) {
	return s.salesCOGS, nil
}

func (s *stubReportRepo) ProfitItems(context.Context, string, time.Time, time.Time, string) ([]repository.ProfitItemRow, error) {
	return s.items, nil
}

func (s *stubReportRepo) DailySales(context.Context, string, time.Time, time.Time, string) ([]repository.DailySalesRow, error) {
	return s.daily, nil
}

func (s *stubReportRepo) MonthlyFlows(context.Context, string, time.Time) ([]repository.MonthlyFlowRow, error) {
	return s.flows, nil
}

func (s *stubReportRepo) MovementHistory(_ context.Context, _ string, filter repository.MovementHistoryFilter) ([]repository.MovementHistoryRow, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubReportRepo) RecentPurchases(context.Context, string, string, int) ([]repository.RecentMovementRow, error) {
	return nil, nil
}

func (s *stubReportRepo) RecentSales(context.Context, string, string, int) ([]repository.RecentMovementRow, error) {
	return nil, nil
}

func (s *stubReportRepo) SoldLast30Days(context.Context, string) ([]repository.Sold30Row, error) {
	return s.sold30, nil
}

func (s *stubReportRepo) InventoryValue(context.Context, string) (decimal.Decimal, decimal.Decimal, error) {
	return s.atCost, s.atPrice, nil
}

type stubExpenseRepo struct{ total decimal.Decimal }

func (s *stubExpenseRepo) Create(*entity.OperatingExpense) error { return nil }
func (s *stubExpenseRepo) GetByID(string, int64) (*entity.OperatingExpense, error) {
	return nil, nil
}
func (s *stubExpenseRepo) Update(*entity.OperatingExpense) error { return nil }
func (s *stubExpenseRepo) Delete(string, int64) error            { return nil }
func (s *stubExpenseRepo) List(string, time.Time, time.Time, int) ([]*entity.OperatingExpense, error) {
	return nil, nil
}
func (s *stubExpenseRepo) Total(string, time.Time, time.Time) (decimal.Decimal, error) {
	return s.total, nil
}

type stubExtractionRepo struct{ totals map[string]decimal.Decimal }

func (s *stubExtractionRepo) Create(*entity.MoneyExtraction) error { return nil }
func (s *stubExtractionRepo) GetByID(string, int64) (*entity.MoneyExtraction, error) {
	return nil, nil
}
func (s *stubExtractionRepo) Update(*entity.MoneyExtraction) error { return nil }
func (s *stubExtractionRepo) Delete(string, int64) error           { return nil }
func (s *stubExtractionRepo) List(string, time.Time, time.Time, int) ([]*entity.MoneyExtraction, error) {
	return nil, nil
}
func (s *stubExtractionRepo) TotalsByParty(string, time.Time, time.Time) (map[string]decimal.Decimal, error) {
	return s.totals, nil
}

var (
	_ repository.ReportRepository           = (*stubReportRepo)(nil)
	_ repository.OperatingExpenseRepository = (*stubExpenseRepo)(nil)
	_ repository.MoneyExtractionRepository  = (*stubExtractionRepo)(nil)
)

func newUseCase(reportsRepo *stubReportRepo, expenses *stubExpenseRepo, extractions *stubExtractionRepo) *reports.ReportsUseCase {
	return newUseCaseWithDividends(reportsRepo, expenses, extractions, reports.DividendsConfig{})
}

func newUseCaseWithDividends(reportsRepo *stubReportRepo, expenses *stubExpenseRepo, extractions *stubExtractionRepo, dividends reports.DividendsConfig) *reports.ReportsUseCase {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return reports.NewReportsUseCase(reportsRepo, expenses, extractions, nil, nil, nil, nil, dividends, log)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rentabilidad mensual
// ──────────────────────────────────────────────────────────────────────────────

func TestMonthlyProfitReport_SumaVentasYCOGS(t *testing.T) {
	repo := &stubReportRepo{
		salesCOGS: []repository.SalesCOGSRow{
			{SKU: "CAFE-500", Sales: dec("900"), COGS: dec("500")},
			{SKU: "AZUCAR-1K", Sales: dec("300"), COGS: dec("180")},
		},
	}
	uc := newUseCase(repo, &stubExpenseRepo{total: dec("200")}, &stubExtractionRepo{})

	report, err := uc.MonthlyProfitReport(context.Background(), testBusinessID, 2026, time.March, "")
	require.NoError(t, err)

	assert.True(t, report.Sales.Equal(dec("1200")))
	assert.True(t, report.COGS.Equal(dec("680")))
	assert.True(t, report.GrossProfit.Equal(dec("520")))
	assert.True(t, report.Expenses.Equal(dec("200")))
	assert.True(t, report.NetProfit.Equal(dec("320")))
	assert.Len(t, report.ByProduct, 2)
}

func TestMonthlyProfitReport_MesSinVentas(t *testing.T) {
	uc := newUseCase(&stubReportRepo{}, &stubExpenseRepo{total: dec("150")}, &stubExtractionRepo{})

	report, err := uc.MonthlyProfitReport(context.Background(), testBusinessID, 2026, time.February, "")
	require.NoError(t, err)

	assert.True(t, report.Sales.IsZero())
	assert.True(t, report.GrossProfit.IsZero())
	assert.True(t, report.NetProfit.Equal(dec("-150")),
		"sin ventas la utilidad neta es el gasto en negativo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Series con relleno de ceros
// ──────────────────────────────────────────────────────────────────────────────

func TestDailySalesSeries_RellenaDiasSinVentas(t *testing.T) {
	repo := &stubReportRepo{
		daily: []repository.DailySalesRow{
			{Day: "2026-03-05", Sales: dec("120")},
			{Day: "2026-03-20", Sales: dec("80")},
		},
	}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	series, err := uc.DailySalesSeries(context.Background(), testBusinessID, 2026, time.March, "")
	require.NoError(t, err)

	require.Len(t, series, 31, "marzo tiene 31 días, todos presentes")
	assert.Equal(t, "2026-03-01", series[0].Day)
	assert.True(t, series[0].Sales.IsZero())
	assert.True(t, series[4].Sales.Equal(dec("120")))
	assert.True(t, series[19].Sales.Equal(dec("80")))
	assert.Equal(t, "2026-03-31", series[30].Day)
}

func TestMonthlyOverview_RellenaMesesSinActividad(t *testing.T) {
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevMonth := thisMonth.AddDate(0, -1, 0)

	repo := &stubReportRepo{
		flows: []repository.MonthlyFlowRow{
			{Month: prevMonth.Format("2006-01"), Sales: dec("500"), COGS: dec("300")},
		},
	}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	rows, err := uc.MonthlyOverview(context.Background(), testBusinessID, 6)
	require.NoError(t, err)

	require.Len(t, rows, 6)
	for i, row := range rows {
		want := thisMonth.AddDate(0, i-5, 0).Format("2006-01")
		assert.Equal(t, want, row.Month, "los meses salen consecutivos y en orden")
	}
	assert.True(t, rows[4].Sales.Equal(dec("500")), "el mes con actividad conserva sus montos")
	assert.True(t, rows[5].Sales.IsZero(), "el mes actual sin actividad queda en cero")
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y reposición
// ──────────────────────────────────────────────────────────────────────────────

func TestStockList_SugerenciaDeReposicion(t *testing.T) {
	repo := &stubReportRepo{
		stock: []repository.StockRow{
			{SKU: "CAFE-500", Name: "Café 500g", Quantity: dec("70"), MinStock: dec("10")},
			{SKU: "AZUCAR-1K", Name: "Azúcar 1kg", Quantity: dec("5"), MinStock: dec("10")},
			{SKU: "SAL-500", Name: "Sal 500g", Quantity: dec("40"), MinStock: dec("0")},
		},
		sold30: []repository.Sold30Row{
			{SKU: "CAFE-500", Qty: dec("60")}, // 2/día
		},
	}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	items, err := uc.StockList(context.Background(), testBusinessID, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	cafe := items[0]
	assert.False(t, cafe.NeedsRestock)
	assert.True(t, cafe.AvgDailySales.Equal(dec("2")))
	require.NotNil(t, cafe.ReorderInDays)
	assert.True(t, cafe.ReorderInDays.Equal(dec("30")),
		"(70-10)/2 = 30 días hasta tocar el mínimo")

	azucar := items[1]
	assert.True(t, azucar.NeedsRestock, "stock por debajo del mínimo")
	assert.Nil(t, azucar.ReorderInDays, "sin ventas recientes no hay estimación")

	sal := items[2]
	assert.False(t, sal.NeedsRestock, "mínimo en cero nunca dispara reposición")
}

func TestStockList_NormalizaLaBusqueda(t *testing.T) {
	repo := &stubReportRepo{}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	_, err := uc.StockList(context.Background(), testBusinessID, "  Café ")
	require.NoError(t, err)
	assert.Equal(t, "cafe", repo.lastQuery, "minúsculas, sin tildes y sin espacios")
}

func TestMovementHistory_LimiteConTope(t *testing.T) {
	repo := &stubReportRepo{}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	_, err := uc.MovementHistory(context.Background(), testBusinessID, repository.MovementHistoryFilter{Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.Limit, "límites fuera de rango caen al default")
}

// ──────────────────────────────────────────────────────────────────────────────
// Valorización y dividendos
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryValue_CalculaMargen(t *testing.T) {
	repo := &stubReportRepo{atCost: dec("1000"), atPrice: dec("1600")}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	v, err := uc.InventoryValue(context.Background(), testBusinessID)
	require.NoError(t, err)
	assert.True(t, v.MarginIfSold.Equal(dec("600")))
}

func TestDividends_RepartoEnPartesIguales(t *testing.T) {
	repo := &stubReportRepo{
		salesCOGS: []repository.SalesCOGSRow{{SKU: "CAFE-500", Sales: dec("1000"), COGS: dec("400")}},
	}
	extractions := &stubExtractionRepo{totals: map[string]decimal.Decimal{
		"Negocio": dec("300"),
		"Ana":     dec("100"),
	}}
	uc := newUseCaseWithDividends(repo, &stubExpenseRepo{total: dec("100")}, extractions,
		reports.DividendsConfig{Partners: []string{"Ana", "Luis"}})

	report, err := uc.Dividends(context.Background(), testBusinessID, 2026, time.March)
	require.NoError(t, err)

	assert.True(t, report.COGSTotal.Equal(dec("400")))
	assert.True(t, report.ExpensesTotal.Equal(dec("100")))
	assert.True(t, report.NetProfit.Equal(dec("500")))
	assert.True(t, report.ShareEach.Equal(dec("250")))
	require.Len(t, report.Parties, 3)

	// La cuenta del negocio primero: recupera COGS + gastos menos lo retirado.
	assert.Equal(t, "Negocio", report.Parties[0].Party)
	assert.True(t, report.Parties[0].Extracted.Equal(dec("300")))
	assert.True(t, report.Parties[0].Pending.Equal(dec("200")))

	assert.Equal(t, "Ana", report.Parties[1].Party)
	assert.True(t, report.Parties[1].Extracted.Equal(dec("100")))
	assert.True(t, report.Parties[1].Pending.Equal(dec("150")))

	// Un socio configurado sin retiros igual aparece con su parte completa.
	assert.Equal(t, "Luis", report.Parties[2].Party)
	assert.True(t, report.Parties[2].Extracted.IsZero())
	assert.True(t, report.Parties[2].Pending.Equal(dec("250")))
}

func TestDividends_SaldosDeArrastre(t *testing.T) {
	repo := &stubReportRepo{
		salesCOGS: []repository.SalesCOGSRow{{SKU: "CAFE-500", Sales: dec("1000"), COGS: dec("400")}},
	}
	uc := newUseCaseWithDividends(repo, &stubExpenseRepo{}, &stubExtractionRepo{},
		reports.DividendsConfig{
			Partners: []string{"Ana", "Luis"},
			OpeningPending: map[string]decimal.Decimal{
				"Luis":  dec("40"),
				"María": dec("75"),
			},
		})

	report, err := uc.Dividends(context.Background(), testBusinessID, 2026, time.March)
	require.NoError(t, err)
	require.Len(t, report.Parties, 4)

	// net 600, 300 por socio; Luis arrastra 40 más de meses anteriores.
	assert.Equal(t, "Luis", report.Parties[2].Party)
	assert.True(t, report.Parties[2].Pending.Equal(dec("340")))

	// Las partes solo de arrastre también figuran en el reparto.
	assert.Equal(t, "María", report.Parties[3].Party)
	assert.True(t, report.Parties[3].Extracted.IsZero())
	assert.True(t, report.Parties[3].Pending.Equal(dec("75")))
}

func TestDividends_SinSociosConfigurados(t *testing.T) {
	repo := &stubReportRepo{
		salesCOGS: []repository.SalesCOGSRow{{SKU: "CAFE-500", Sales: dec("100"), COGS: dec("60")}},
	}
	uc := newUseCase(repo, &stubExpenseRepo{}, &stubExtractionRepo{})

	report, err := uc.Dividends(context.Background(), testBusinessID, 2026, time.March)
	require.NoError(t, err)

	assert.True(t, report.NetProfit.Equal(dec("40")))
	assert.True(t, report.ShareEach.IsZero())
	require.Len(t, report.Parties, 1)
	assert.Equal(t, "Negocio", report.Parties[0].Party)
	assert.True(t, report.Parties[0].Pending.Equal(dec("60")),
		"sin socios solo queda la cuenta del negocio recuperando el costo")
}
