package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/auth"
	"github.com/tu-usuario/almacen-ledger/internal/application/catalog"
	"github.com/tu-usuario/almacen-ledger/internal/application/finance"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/application/reports"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC   *ledger.LedgerUseCase
	ReportsUC  *reports.ReportsUseCase
	CatalogUC  *catalog.CatalogUseCase
	FinanceUC  *finance.FinanceUseCase
	AuthUC     *auth.AuthUseCase
	Businesses repository.BusinessRepository
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// El vendedor solo registra ventas y consulta; el resto de escrituras del
	// libro exige rol de bodega o admin.
	warehouse := RequireRoles(entity.RoleAdmin, entity.RoleBodeguero)

	// Catálogo (protegido)
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	products := protected.Group("/products")
	products.Post("/", warehouse, catalogHandler.CreateProduct)
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:sku", catalogHandler.GetProduct)
	products.Put("/:sku", warehouse, catalogHandler.UpdateProduct)

	locations := protected.Group("/locations")
	locations.Post("/", warehouse, catalogHandler.CreateLocation)
	locations.Get("/", catalogHandler.ListLocations)

	// Libro de inventario (protegido)
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	ledgerGroup := protected.Group("/ledger")
	ledgerGroup.Post("/purchases", warehouse, ledgerHandler.RegisterPurchase)
	ledgerGroup.Put("/purchases/:id", warehouse, ledgerHandler.UpdatePurchase)
	ledgerGroup.Delete("/purchases/:id", warehouse, ledgerHandler.DeletePurchase)
	ledgerGroup.Post("/sales", ledgerHandler.RegisterSale)
	ledgerGroup.Put("/sales/:id", warehouse, ledgerHandler.UpdateSale)
	ledgerGroup.Delete("/sales/:id", warehouse, ledgerHandler.DeleteSale)
	ledgerGroup.Post("/adjustments", warehouse, ledgerHandler.RegisterAdjustment)
	ledgerGroup.Put("/adjustments/:id", warehouse, ledgerHandler.UpdateAdjustment)
	ledgerGroup.Delete("/adjustments/:id", warehouse, ledgerHandler.DeleteAdjustment)
	ledgerGroup.Post("/returns", warehouse, ledgerHandler.RegisterSupplierReturn)
	ledgerGroup.Post("/rebuild/:sku", RequireRoles(entity.RoleAdmin), ledgerHandler.RebuildProduct)

	// Traslados (protegido)
	transferHandler := NewTransferHandler(deps.LedgerUC)
	ledgerGroup.Post("/transfers", warehouse, transferHandler.RegisterTransfer)
	ledgerGroup.Put("/transfers/:id", warehouse, transferHandler.UpdateTransfer)
	ledgerGroup.Delete("/transfers/:id", warehouse, transferHandler.DeleteTransfer)

	// Finanzas (protegido, solo admin)
	admin := RequireRoles(entity.RoleAdmin)
	financeHandler := NewFinanceHandler(deps.FinanceUC)
	financeGroup := protected.Group("/finance", admin)
	financeGroup.Post("/expenses", financeHandler.CreateExpense)
	financeGroup.Get("/expenses", financeHandler.ListExpenses)
	financeGroup.Put("/expenses/:id", financeHandler.UpdateExpense)
	financeGroup.Delete("/expenses/:id", financeHandler.DeleteExpense)
	financeGroup.Post("/extractions", financeHandler.CreateExtraction)
	financeGroup.Get("/extractions", financeHandler.ListExtractions)
	financeGroup.Put("/extractions/:id", financeHandler.UpdateExtraction)
	financeGroup.Delete("/extractions/:id", financeHandler.DeleteExtraction)

	// Reportes (protegido)
	reportsHandler := NewReportsHandler(deps.ReportsUC, deps.Businesses)
	reportsGroup := protected.Group("/reports")
	reportsGroup.Get("/profit/monthly", reportsHandler.MonthlyProfit)
	reportsGroup.Get("/profit/items", reportsHandler.ProfitItems)
	reportsGroup.Get("/overview", reportsHandler.MonthlyOverview)
	reportsGroup.Get("/sales/daily", reportsHandler.DailySales)
	reportsGroup.Get("/sales/products", reportsHandler.SalesByProduct)
	reportsGroup.Get("/sales/recent", reportsHandler.RecentSales)
	reportsGroup.Get("/purchases/recent", reportsHandler.RecentPurchases)
	reportsGroup.Get("/stock", reportsHandler.StockList)
	reportsGroup.Get("/stock/:sku", reportsHandler.Stock)
	reportsGroup.Get("/lots/:sku", reportsHandler.AvailableLots)
	reportsGroup.Get("/movements", reportsHandler.MovementHistory)
	reportsGroup.Get("/valuation", reportsHandler.InventoryValue)
	reportsGroup.Get("/dividends", admin, reportsHandler.Dividends)
	reportsGroup.Get("/monthly.pdf", reportsHandler.MonthlyReportPDF)
}
