package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ediciones retroactivas: cada edición reconstruye la historia de lotes del
// producto por replay completo dentro de la misma transacción.
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateSale_ReduceCantidadYDevuelveStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("100"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	sale, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("60"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	result, err := f.uc.UpdateSale(ctx, testBusinessID, ledger.UpdateSaleInput{
		MovementID: sale.MovementID,
		Quantity:   decPtr("20"),
	})
	require.NoError(t, err)
	assert.True(t, result.StockAfter.Equal(dec("80")))

	lot, err := f.lots.GetByCode(testBusinessID, purchase.LotCode)
	require.NoError(t, err)
	assert.True(t, lot.QtyRemaining.Equal(dec("80")),
		"el replay debe devolver al lote las unidades liberadas")

	allocs, err := f.allocs.ListByMovement(sale.MovementID)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Quantity.Equal(dec("20")))
}

func TestUpdateSale_AmpliarSinStockFalla(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	sale, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("8"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	_, err = f.uc.UpdateSale(ctx, testBusinessID, ledger.UpdateSaleInput{
		MovementID: sale.MovementID,
		Quantity:   decPtr("15"),
	})
	require.ErrorIs(t, err, domain.ErrConflict,
		"el replay detecta que la venta ampliada no puede cubrirse")

	var conflict *domain.RebuildConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, sale.MovementID, conflict.MovementID)
	assert.True(t, conflict.Missing.Equal(dec("5")))
}

func TestUpdateSale_IdDeOtroTipo(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.UpdateSale(ctx, testBusinessID, ledger.UpdateSaleInput{
		MovementID: purchase.MovementID,
		Quantity:   decPtr("5"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound,
		"un id de compra no es editable como venta")
}

func TestUpdatePurchase_CambiaCostoYReasignaCOGS(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	sale, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("4"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	_, err = f.uc.UpdatePurchase(ctx, testBusinessID, ledger.UpdatePurchaseInput{
		MovementID: purchase.MovementID,
		UnitCost:   decPtr("7"),
	})
	require.NoError(t, err)

	// El replay reatribuye el costo de la venta ya registrada.
	allocs, err := f.allocs.ListByMovement(sale.MovementID)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].UnitCost.Equal(dec("7")))
}

func TestUpdatePurchase_PreservaCodigoDeLote(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	_, err = f.uc.UpdatePurchase(ctx, testBusinessID, ledger.UpdatePurchaseInput{
		MovementID: purchase.MovementID,
		Quantity:   decPtr("12"),
	})
	require.NoError(t, err)

	lot, err := f.lots.GetByCode(testBusinessID, purchase.LotCode)
	require.NoError(t, err, "editar la compra no debe cambiar el código del lote")
	assert.True(t, lot.QtyReceived.Equal(dec("12")))
}

func TestUpdatePurchase_ReasignaAOtroSKU(t *testing.T) {
	f := newFixture(t)
	pa := f.seedProduct(t, "CAFE-500")
	pb := f.seedProduct(t, "TE-200")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)

	sku := "TE-200"
	_, err = f.uc.UpdatePurchase(ctx, testBusinessID, ledger.UpdatePurchaseInput{
		MovementID: purchase.MovementID,
		SKU:        &sku,
	})
	require.NoError(t, err)

	assert.True(t, f.stock(t, pa.ID, "").IsZero(), "el producto original queda sin stock")
	assert.True(t, f.stock(t, pb.ID, "").Equal(dec("10")), "el stock pasa al producto destino")
}

func TestUpdatePurchase_CodigoDeLoteAjeno(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"), LotCode: "LOTE-A",
	})
	require.NoError(t, err)
	second, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("5"), UnitCost: decPtr("5"), LotCode: "LOTE-B",
	})
	require.NoError(t, err)

	code := "LOTE-A"
	_, err = f.uc.UpdatePurchase(ctx, testBusinessID, ledger.UpdatePurchaseInput{
		MovementID: second.MovementID,
		LotCode:    &code,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

// ──────────────────────────────────────────────────────────────────────────────
// Eliminaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteSale_DevuelveStockALosLotes(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	sale, err := f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("6"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)
	require.True(t, f.stock(t, p.ID, "").Equal(dec("4")))

	require.NoError(t, f.uc.DeleteSale(ctx, testBusinessID, sale.MovementID))

	lot, err := f.lots.GetByCode(testBusinessID, purchase.LotCode)
	require.NoError(t, err)
	assert.True(t, lot.QtyRemaining.Equal(dec("10")))

	allocs, err := f.allocs.ListByMovement(sale.MovementID)
	require.NoError(t, err)
	assert.Empty(t, allocs, "las asignaciones de la venta borrada desaparecen")
}

func TestDeletePurchase_ConStockConsumidoFalla(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitCost: decPtr("5"),
	})
	require.NoError(t, err)
	_, err = f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("10"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	err = f.uc.DeletePurchase(ctx, testBusinessID, purchase.MovementID)
	assert.ErrorIs(t, err, domain.ErrConflict,
		"no se puede borrar una compra cuyo stock ya fue vendido")
}

func TestDeleteAdjustment_Simple(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	adj, err := f.uc.Adjustment(ctx, testBusinessID, testUserID, ledger.AdjustmentInput{
		SKU: "CAFE-500", Delta: dec("5"), UnitCost: decPtr("4"),
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteAdjustment(ctx, testBusinessID, adj.MovementID))
	assert.True(t, f.stock(t, p.ID, "").IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Rebuild explícito
// ──────────────────────────────────────────────────────────────────────────────

func TestRebuildProduct_EsIdempotente(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	purchase, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU:          "CAFE-500",
		Quantity:     dec("10"),
		UnitCost:     decPtr("5"),
		MovementDate: datePtr(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	_, err = f.uc.Sale(ctx, testBusinessID, testUserID, ledger.SaleInput{
		SKU: "CAFE-500", Quantity: dec("4"), UnitPrice: decPtr("9"), LocationCode: testCentral,
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.RebuildProduct(ctx, testBusinessID, "CAFE-500"))
	require.NoError(t, f.uc.RebuildProduct(ctx, testBusinessID, "CAFE-500"))

	lots, err := f.lots.ListByProduct(testBusinessID, p.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, purchase.LotCode, lots[0].LotCode,
		"reconstruir no debe cambiar códigos de lote ya emitidos")
	assert.True(t, lots[0].QtyRemaining.Equal(dec("6")))
}

func TestRebuildProduct_SKUInexistente(t *testing.T) {
	f := newFixture(t)
	err := f.uc.RebuildProduct(context.Background(), testBusinessID, "NADA")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuildProduct_DevolucionSinMarcadorDetieneElReplay(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "CAFE-500")
	ctx := context.Background()

	_, err := f.uc.Purchase(ctx, testBusinessID, testUserID, ledger.PurchaseInput{
		SKU:          "CAFE-500",
		Quantity:     dec("10"),
		UnitCost:     decPtr("5"),
		MovementDate: datePtr(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	central, err := f.locations.GetByCode(testBusinessID, testCentral)
	require.NoError(t, err)

	// Devolución histórica cuya nota perdió el marcador del lote: el replay
	// no tiene forma de saber de qué lote salió y debe negarse a adivinar.
	ret := &entity.InventoryMovement{
		BusinessID:   testBusinessID,
		ProductID:    p.ID,
		LocationID:   central.ID,
		Type:         entity.MovementReturnSupplier,
		Quantity:     dec("3").Neg(),
		UnitCost:     decPtr("5"),
		MovementDate: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Note:         "devolución al proveedor",
		CreatedBy:    testUserID,
	}
	require.NoError(t, f.movements.Create(ret))

	err = f.uc.RebuildProduct(ctx, testBusinessID, "CAFE-500")
	require.ErrorIs(t, err, domain.ErrConflict)

	var conflict *domain.RebuildConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ret.ID, conflict.MovementID)
	assert.Equal(t, string(entity.MovementReturnSupplier), conflict.MovementType)
	assert.True(t, conflict.Missing.Equal(dec("3")))
}
