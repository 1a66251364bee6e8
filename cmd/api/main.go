package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/almacen-ledger/internal/application/auth"
	"github.com/tu-usuario/almacen-ledger/internal/application/catalog"
	"github.com/tu-usuario/almacen-ledger/internal/application/finance"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/application/reports"
	infrapdf "github.com/tu-usuario/almacen-ledger/internal/infrastructure/pdf"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/almacen-ledger/internal/interfaces/http"
	"github.com/tu-usuario/almacen-ledger/pkg/config"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	businessRepo := postgres.NewBusinessRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	lotRepo := postgres.NewInventoryLotRepository(pool)
	expenseRepo := postgres.NewOperatingExpenseRepository(pool)
	extractionRepo := postgres.NewMoneyExtractionRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	defaults := ledger.BusinessDefaults{
		CentralLocationCode:    cfg.Business.CentralLocationCode,
		DefaultPOSLocationCode: cfg.Business.DefaultPOSLocationCode,
	}
	ledgerUC := ledger.NewLedgerUseCase(txRunner, productRepo, lotRepo, defaults, log)

	pdfGenerator := infrapdf.NewMarotoReportGenerator()
	reportsUC := reports.NewReportsUseCase(
		reportRepo, expenseRepo, extractionRepo, locationRepo, lotRepo, productRepo,
		pdfGenerator, reports.DividendsConfig{
			BusinessLabel:  cfg.Dividends.BusinessLabel,
			Partners:       cfg.Dividends.Partners,
			OpeningPending: cfg.Dividends.OpeningPending,
		}, log,
	)
	catalogUC := catalog.NewCatalogUseCase(productRepo, locationRepo, log)
	financeUC := finance.NewFinanceUseCase(expenseRepo, extractionRepo, log)
	authUC := auth.NewAuthUseCase(userRepo, businessRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:   ledgerUC,
		ReportsUC:  reportsUC,
		CatalogUC:  catalogUC,
		FinanceUC:  financeUC,
		AuthUC:     authUC,
		Businesses: businessRepo,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
