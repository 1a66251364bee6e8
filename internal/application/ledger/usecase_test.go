package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

const (
	testBusinessID = "00000000-0000-0000-0000-0000000000b1"
	testUserID     = "00000000-0000-0000-0000-0000000000u1"
	testCentral    = "CENTRAL"
	testPOS        = "POS"
)

// fixture arma el caso de uso del libro sobre los dobles en memoria.
type fixture struct {
	store     *memStore
	uc        *ledger.LedgerUseCase
	movements *memMovementRepo
	lots      *memLotRepo
	allocs    *memAllocRepo
	locations *memLocationRepo
	products  *memProductRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		store:     store,
		movements: &memMovementRepo{store: store},
		lots:      &memLotRepo{store: store},
		allocs:    &memAllocRepo{store: store},
		locations: &memLocationRepo{store: store},
		products:  &memProductRepo{store: store},
	}
	tx := &memTxRunner{
		movements: f.movements,
		lots:      f.lots,
		allocs:    f.allocs,
		locations: f.locations,
		products:  f.products,
	}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	f.uc = ledger.NewLedgerUseCase(tx, f.products, f.lots, ledger.BusinessDefaults{
		CentralLocationCode:    testCentral,
		DefaultPOSLocationCode: testPOS,
	}, log)
	return f
}

// seedProduct da de alta un producto mínimo del negocio de prueba.
func (f *fixture) seedProduct(t *testing.T, sku string) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:         "prod-" + sku,
		BusinessID: testBusinessID,
		SKU:        sku,
		Name:       "Producto " + sku,
	}
	require.NoError(t, f.products.Create(p))
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func datePtr(t time.Time) *time.Time { return &t }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// stock total del producto en una ubicación por código ("" = todas).
func (f *fixture) stock(t *testing.T, productID, locationCode string) decimal.Decimal {
	t.Helper()
	locationID := ""
	if locationCode != "" {
		loc, err := f.locations.GetByCode(testBusinessID, locationCode)
		require.NoError(t, err)
		locationID = loc.ID
	}
	total, err := f.lots.SumRemaining(testBusinessID, productID, locationID)
	require.NoError(t, err)
	return total
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_CreaLoteConCodigoGenerado(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	at := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	result, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU:          "CAFE-500",
		Quantity:     dec("10"),
		UnitCost:     decPtr("5"),
		MovementDate: datePtr(at),
	})
	require.NoError(t, err)

	assert.Positive(t, result.MovementID)
	assert.Equal(t, "CAFE-500-2603101430", result.LotCode,
		"el código de lote debe ser SKU + marca de tiempo aammddhhmm")
	assert.True(t, result.StockAfter.Equal(dec("10")))

	// La ubicación central se crea perezosamente.
	loc, err := f.locations.GetByCode(testBusinessID, testCentral)
	require.NoError(t, err)

	lot, err := f.lots.GetByCode(testBusinessID, result.LotCode)
	require.NoError(t, err)
	assert.Equal(t, loc.ID, lot.LocationID)
	assert.True(t, lot.QtyRemaining.Equal(dec("10")))
	assert.True(t, lot.UnitCost.Equal(dec("5")))
}

func TestPurchase_CodigoDeLoteDuplicado(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	_, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"), LotCode: "LOTE-X",
	})
	require.NoError(t, err)

	_, err = f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("5"), UnitCost: decPtr("5"), LotCode: "LOTE-X",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestPurchase_CodigosColisionanConSufijo(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	at := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	first, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"), MovementDate: datePtr(at),
	})
	require.NoError(t, err)

	// Misma marca de tiempo: el segundo código recibe sufijo alfabético.
	second, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("4"), UnitCost: decPtr("6"), MovementDate: datePtr(at),
	})
	require.NoError(t, err)

	assert.Equal(t, first.LotCode+"-A", second.LotCode)
}

func TestPurchase_CostoPorDefectoDelProducto(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	p.DefaultPurchaseCost = decPtr("7.50")
	require.NoError(t, f.products.Update(p))

	result, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("2"),
	})
	require.NoError(t, err)

	lot, err := f.lots.GetByCode(testBusinessID, result.LotCode)
	require.NoError(t, err)
	assert.True(t, lot.UnitCost.Equal(dec("7.50")))
}

func TestPurchase_SinCostoNiDefecto(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	_, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("2"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPurchase_AvisoDeReposicion(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	p.MinStock = dec("5")
	require.NoError(t, f.products.Update(p))

	result, err := f.uc.Purchase(context.Background(), testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("3"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	assert.Contains(t, result.Warning, "reposición",
		"con stock en o bajo el mínimo debe avisar reposición")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas y asignación FIFO
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_ConsumeLotesEnOrdenDeRecepcion(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

	first, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("100"), UnitCost: decPtr("5"), MovementDate: datePtr(day1),
	})
	require.NoError(t, err)
	second, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("50"), UnitCost: decPtr("6"), MovementDate: datePtr(day2),
	})
	require.NoError(t, err)

	// Primera venta: sale entera del lote más viejo.
	sale1, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("60"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	allocs1, err := f.allocs.ListByMovement(sale1.MovementID)
	require.NoError(t, err)
	require.Len(t, allocs1, 1)
	assert.True(t, allocs1[0].Quantity.Equal(dec("60")))
	assert.True(t, allocs1[0].UnitCost.Equal(dec("5")))

	// Segunda venta: agota el lote viejo y empieza el nuevo.
	sale2, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("60"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	allocs2, err := f.allocs.ListByMovement(sale2.MovementID)
	require.NoError(t, err)
	require.Len(t, allocs2, 2)
	assert.True(t, allocs2[0].Quantity.Equal(dec("40")))
	assert.True(t, allocs2[0].UnitCost.Equal(dec("5")))
	assert.True(t, allocs2[1].Quantity.Equal(dec("20")))
	assert.True(t, allocs2[1].UnitCost.Equal(dec("6")))

	lotOld, err := f.lots.GetByCode(testBusinessID, first.LotCode)
	require.NoError(t, err)
	assert.True(t, lotOld.QtyRemaining.IsZero(), "el lote viejo debe quedar agotado")
	lotNew, err := f.lots.GetByCode(testBusinessID, second.LotCode)
	require.NoError(t, err)
	assert.True(t, lotNew.QtyRemaining.Equal(dec("30")))
	assert.True(t, f.stock(t, p.ID, "").Equal(dec("30")))
}

func TestSale_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("11"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var conflict *domain.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "CAFE-500", conflict.SKU)
	assert.Equal(t, testCentral, conflict.LocationCode)
	assert.True(t, conflict.Available.Equal(dec("10")))
	assert.True(t, conflict.Requested.Equal(dec("11")))
}

func TestSale_StockEnOtraUbicacionNoCuenta(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	// Stock solo en CENTRAL; la venta por defecto sale del POS.
	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("1"), UnitPrice: decPtr("9"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock,
		"el stock se verifica por ubicación, no globalmente")
}

// optimistaLotRepo reporta un saldo agregado mayor al real, como lo vería
// una transacción que leyó antes del commit de otra venta concurrente.
type optimistaLotRepo struct {
	repository.InventoryLotRepository
	extra decimal.Decimal
}

func (r *optimistaLotRepo) SumRemaining(businessID, productID, locationID string) (decimal.Decimal, error) {
	total, err := r.InventoryLotRepository.SumRemaining(businessID, productID, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Add(r.extra), nil
}

type optimistaTxRunner struct {
	inner *memTxRunner
	lots  repository.InventoryLotRepository
}

func (tx *optimistaTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	allocRepo repository.MovementAllocationRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(tx.inner.movements, tx.lots, tx.inner.allocs, tx.inner.locations, tx.inner.products)
}

func TestSale_SaldoDesactualizadoNoSobregiraLotes(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	// El prechequeo agregado ve más stock del que existe en los lotes. El
	// consumo lote a lote es quien tiene la última palabra y debe frenar
	// la venta en lugar de dejar saldos negativos.
	stale := &optimistaLotRepo{InventoryLotRepository: f.lots, extra: dec("100")}
	tx := &optimistaTxRunner{
		inner: &memTxRunner{
			movements: f.movements,
			lots:      f.lots,
			allocs:    f.allocs,
			locations: f.locations,
			products:  f.products,
		},
		lots: stale,
	}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	uc := ledger.NewLedgerUseCase(tx, f.products, f.lots, ledger.BusinessDefaults{
		CentralLocationCode:    testCentral,
		DefaultPOSLocationCode: testPOS,
	}, log)

	_, err = uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("50"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	lots, err := f.lots.ListByProduct(testBusinessID, "prod-CAFE-500")
	require.NoError(t, err)
	for _, lot := range lots {
		assert.False(t, lot.QtyRemaining.IsNegative(),
			"ningún lote puede quedar con saldo negativo")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustment_PositivoCreaLote(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")

	result, err := f.uc.Adjustment(context.Background(), testBusinessID, testUserID, ledger.AdjustmentInput{
		SKU: "CAFE-500", Delta: dec("5"), UnitCost: decPtr("4"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.LotCode, "ADJ-CAFE-500-"),
		"los lotes de ajuste llevan prefijo ADJ-")
	assert.True(t, f.stock(t, p.ID, "").Equal(dec("5")))
}

func TestAdjustment_InventarioInicialSeConsumePrimero(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	// Compra real primero en el calendario...
	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU:          "CAFE-500",
		Quantity:     dec("10"),
		UnitCost:     decPtr("5"),
		MovementDate: datePtr(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	// ...pero el inventario inicial cargado después se fecha en la época
	// centinela y el FIFO lo agota antes.
	_, err = f.uc.Adjustment(ctx, testBusinessID, testUserID, ledger.AdjustmentInput{
		SKU:          "CAFE-500",
		Delta:        dec("8"),
		UnitCost:     decPtr("3"),
		Note:         "Inventario inicial tienda",
		MovementDate: datePtr(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	sale, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("8"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	allocs, err := f.allocs.ListByMovement(sale.MovementID)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].UnitCost.Equal(dec("3")),
		"la venta debe salir del lote de inventario inicial, no de la compra")
}

func TestAdjustment_NegativoConsumeFIFO(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.Adjustment(ctx, testBusinessID, testUserID, ledger.AdjustmentInput{
		SKU: "CAFE-500", Delta: dec("-4"), Note: "merma",
	})
	require.NoError(t, err)
	assert.True(t, f.stock(t, p.ID, "").Equal(dec("6")))
}

func TestAdjustment_DeltaCeroInvalido(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	_, err := f.uc.Adjustment(context.Background(), testBusinessID, testUserID, ledger.AdjustmentInput{
		SKU: "CAFE-500", Delta: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones a proveedor
// ──────────────────────────────────────────────────────────────────────────────

func TestSupplierReturn_DescuentaDelLotePuntual(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	first, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"), MovementDate: datePtr(day1),
	})
	require.NoError(t, err)
	second, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("6"), MovementDate: datePtr(day2),
	})
	require.NoError(t, err)

	// La devolución ataca el lote nuevo directamente, saltándose el FIFO.
	_, err = f.uc.SupplierReturn(ctx, testBusinessID, testUserID, ledger.SupplierReturnInput{
		SKU: "CAFE-500", LotCode: second.LotCode, Quantity: dec("4"), Note: "defectuoso",
	})
	require.NoError(t, err)

	lotOld, err := f.lots.GetByCode(testBusinessID, first.LotCode)
	require.NoError(t, err)
	assert.True(t, lotOld.QtyRemaining.Equal(dec("10")), "el lote viejo no se toca")
	lotNew, err := f.lots.GetByCode(testBusinessID, second.LotCode)
	require.NoError(t, err)
	assert.True(t, lotNew.QtyRemaining.Equal(dec("6")))
}

func TestSupplierReturn_LoteInexistente(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")

	_, err := f.uc.SupplierReturn(context.Background(), testBusinessID, testUserID, ledger.SupplierReturnInput{
		SKU: "CAFE-500", LotCode: "NO-EXISTE", Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSupplierReturn_SaldoInsuficienteEnElLote(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("3"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.SupplierReturn(ctx, testBusinessID, testUserID, ledger.SupplierReturnInput{
		SKU: "CAFE-500", LotCode: purchase.LotCode, Quantity: dec("4"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}
