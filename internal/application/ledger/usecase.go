package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

// LedgerUseCase orquesta el libro de inventario: compras, ventas, ajustes,
// devoluciones a proveedor, traslados y las ediciones que obligan a
// reconstruir la historia de lotes de un producto.
type LedgerUseCase struct {
	txRunner TxRunner
	products repository.ProductRepository
	lots     repository.InventoryLotRepository
	defaults BusinessDefaults
	log      *logger.Logger
}

// NewLedgerUseCase crea el caso de uso del libro de inventario. Los
// repositorios inyectados aquí leen contra el pool; las escrituras siempre
// pasan por txRunner.
func NewLedgerUseCase(
	txRunner TxRunner,
	products repository.ProductRepository,
	lots repository.InventoryLotRepository,
	defaults BusinessDefaults,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		products: products,
		lots:     lots,
		defaults: defaults,
		log:      log,
	}
}

// PurchaseInput datos de una compra a proveedor.
type PurchaseInput struct {
	SKU          string
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal // nil -> costo de compra por defecto del producto
	LocationCode string           // "" -> ubicación central
	MovementDate *time.Time       // nil -> ahora
	Note         string
	LotCode      string // "" -> generado
}

// SaleInput datos de una venta.
type SaleInput struct {
	SKU          string
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal // nil -> precio de venta por defecto del producto
	LocationCode string           // "" -> POS por defecto
	MovementDate *time.Time
	Note         string
}

// AdjustmentInput ajuste manual de inventario; Delta con signo.
type AdjustmentInput struct {
	SKU          string
	Delta        decimal.Decimal
	UnitCost     *decimal.Decimal // requerido si Delta > 0 y el producto no tiene costo por defecto
	LocationCode string
	MovementDate *time.Time
	Note         string
}

// SupplierReturnInput devolución a proveedor contra un lote puntual.
type SupplierReturnInput struct {
	SKU          string
	LotCode      string
	Quantity     decimal.Decimal
	MovementDate *time.Time
	Note         string
}

// MovementResult resumen que devuelven las operaciones simples del libro.
type MovementResult struct {
	MovementID int64
	LotCode    string // solo operaciones que crean lote
	StockAfter decimal.Decimal
	Warning    string // aviso de reposición, "" si no aplica
}

// movementDate normaliza la fecha del movimiento: nil significa ahora.
func movementDate(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return time.Now().UTC()
}

// getOrCreateLocation busca la ubicación por código dentro de la transacción
// y la crea perezosamente si no existe.
func getOrCreateLocation(locationRepo repository.LocationRepository, businessID, code string) (*entity.Location, error) {
	loc, err := locationRepo.GetByCode(businessID, code)
	if err == nil {
		return loc, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	loc = &entity.Location{
		BusinessID: businessID,
		Code:       code,
		Name:       code,
	}
	if err := locationRepo.Create(loc); err != nil {
		return nil, fmt.Errorf("crear ubicación %s: %w", code, err)
	}
	return loc, nil
}

// restockWarning arma el aviso de reposición cuando el stock global del
// producto queda en o por debajo de su mínimo.
func restockWarning(product *entity.Product, stockAfter decimal.Decimal) string {
	if product.MinStock.IsPositive() && stockAfter.LessThanOrEqual(product.MinStock) {
		return fmt.Sprintf("stock de %s en %s, mínimo %s: necesita reposición",
			product.SKU, stockAfter.String(), product.MinStock.String())
	}
	return ""
}

// productBySKU resuelve el producto del negocio por SKU.
func (uc *LedgerUseCase) productBySKU(businessID, sku string) (*entity.Product, error) {
	product, err := uc.products.GetBySKU(businessID, sku)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, fmt.Errorf("producto %s: %w", sku, domain.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

// stockAfter stock global restante del producto sumando todas las ubicaciones.
func (uc *LedgerUseCase) stockAfter(businessID, productID string) decimal.Decimal {
	total, err := uc.lots.SumRemaining(businessID, productID, "")
	if err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo calcular stock posterior")
		return decimal.Zero
	}
	return total
}

// Purchase registra una compra: crea el movimiento y un lote nuevo con el
// costo de la compra. El código de lote se genera si el llamador no lo fija.
func (uc *LedgerUseCase) Purchase(ctx context.Context, businessID, userID string, in PurchaseInput) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de compra debe ser positiva: %w", domain.ErrInvalidInput)
	}
	product, err := uc.productBySKU(businessID, in.SKU)
	if err != nil {
		return nil, err
	}
	unitCost, err := resolveUnitCost(in.UnitCost, product.DefaultPurchaseCost)
	if err != nil {
		return nil, err
	}

	locationCode := in.LocationCode
	if locationCode == "" {
		locationCode = uc.defaults.CentralLocationCode
	}
	at := movementDate(in.MovementDate)

	result := &MovementResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		_ repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		location, err := getOrCreateLocation(locationRepo, businessID, locationCode)
		if err != nil {
			return err
		}
		movement := &entity.InventoryMovement{
			BusinessID:   businessID,
			ProductID:    product.ID,
			LocationID:   location.ID,
			Type:         entity.MovementPurchase,
			Quantity:     in.Quantity,
			UnitCost:     &unitCost,
			MovementDate: at,
			Note:         in.Note,
			CreatedBy:    userID,
		}
		if err := movRepo.Create(movement); err != nil {
			return fmt.Errorf("crear movimiento de compra: %w", err)
		}

		lotCode := in.LotCode
		if lotCode == "" {
			lotCode, err = uniqueLotCode(lotCodeBase(product.SKU, at), func(code string) (bool, error) {
				return lotRepo.CodeExists(businessID, code)
			})
			if err != nil {
				return fmt.Errorf("generar código de lote: %w", err)
			}
		} else if taken, err := lotRepo.CodeExists(businessID, lotCode); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("código de lote %s ya existe: %w", lotCode, domain.ErrDuplicate)
		}

		if err := lotRepo.Create(&entity.InventoryLot{
			BusinessID:   businessID,
			MovementID:   movement.ID,
			ProductID:    product.ID,
			LocationID:   location.ID,
			LotCode:      lotCode,
			ReceivedAt:   at,
			UnitCost:     unitCost,
			QtyReceived:  in.Quantity,
			QtyRemaining: in.Quantity,
		}); err != nil {
			return fmt.Errorf("crear lote %s: %w", lotCode, err)
		}

		result.MovementID = movement.ID
		result.LotCode = lotCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.StockAfter = uc.stockAfter(businessID, product.ID)
	result.Warning = restockWarning(product, result.StockAfter)
	uc.log.Info().
		Str("sku", product.SKU).
		Int64("movement_id", result.MovementID).
		Str("lot_code", result.LotCode).
		Msg("compra registrada")
	return result, nil
}

// Sale registra una venta: verifica stock agregado en la ubicación, crea el
// movimiento con cantidad negativa y consume lotes en orden FIFO.
func (uc *LedgerUseCase) Sale(ctx context.Context, businessID, userID string, in SaleInput) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de venta debe ser positiva: %w", domain.ErrInvalidInput)
	}
	product, err := uc.productBySKU(businessID, in.SKU)
	if err != nil {
		return nil, err
	}
	unitPrice, err := resolveUnitPrice(in.UnitPrice, product.DefaultSalePrice)
	if err != nil {
		return nil, err
	}

	locationCode := in.LocationCode
	if locationCode == "" {
		locationCode = uc.defaults.DefaultPOSLocationCode
	}
	at := movementDate(in.MovementDate)

	result := &MovementResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		location, err := getOrCreateLocation(locationRepo, businessID, locationCode)
		if err != nil {
			return err
		}
		available, err := lotRepo.SumRemaining(businessID, product.ID, location.ID)
		if err != nil {
			return err
		}
		if available.LessThan(in.Quantity) {
			return &domain.StockConflictError{
				SKU:          product.SKU,
				LocationCode: location.Code,
				Available:    available,
				Requested:    in.Quantity,
			}
		}

		movement := &entity.InventoryMovement{
			BusinessID:   businessID,
			ProductID:    product.ID,
			LocationID:   location.ID,
			Type:         entity.MovementSale,
			Quantity:     in.Quantity.Neg(),
			UnitPrice:    &unitPrice,
			MovementDate: at,
			Note:         in.Note,
			CreatedBy:    userID,
		}
		if err := movRepo.Create(movement); err != nil {
			return fmt.Errorf("crear movimiento de venta: %w", err)
		}
		if _, err := consumeFIFO(lotRepo, allocRepo, product, location, movement.ID, in.Quantity); err != nil {
			return err
		}
		result.MovementID = movement.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.StockAfter = uc.stockAfter(businessID, product.ID)
	result.Warning = restockWarning(product, result.StockAfter)
	uc.log.Info().
		Str("sku", product.SKU).
		Int64("movement_id", result.MovementID).
		Msg("venta registrada")
	return result, nil
}

// Adjustment registra un ajuste manual. Un delta positivo crea un lote nuevo;
// si la nota marca inventario inicial, el lote se fecha en la época centinela
// para que el FIFO lo agote primero. Un delta negativo consume FIFO.
func (uc *LedgerUseCase) Adjustment(ctx context.Context, businessID, userID string, in AdjustmentInput) (*MovementResult, error) {
	if in.Delta.IsZero() {
		return nil, fmt.Errorf("delta de ajuste no puede ser cero: %w", domain.ErrInvalidInput)
	}
	product, err := uc.productBySKU(businessID, in.SKU)
	if err != nil {
		return nil, err
	}

	var unitCost decimal.Decimal
	if in.Delta.IsPositive() {
		unitCost, err = resolveUnitCost(in.UnitCost, product.DefaultPurchaseCost)
		if err != nil {
			return nil, err
		}
	}

	locationCode := in.LocationCode
	if locationCode == "" {
		locationCode = uc.defaults.CentralLocationCode
	}
	at := movementDate(in.MovementDate)

	result := &MovementResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		location, err := getOrCreateLocation(locationRepo, businessID, locationCode)
		if err != nil {
			return err
		}

		movement := &entity.InventoryMovement{
			BusinessID:   businessID,
			ProductID:    product.ID,
			LocationID:   location.ID,
			Type:         entity.MovementAdjustment,
			Quantity:     in.Delta,
			MovementDate: at,
			Note:         in.Note,
			CreatedBy:    userID,
		}
		if in.Delta.IsPositive() {
			movement.UnitCost = &unitCost
		}

		if in.Delta.IsNegative() {
			qty := in.Delta.Neg()
			available, err := lotRepo.SumRemaining(businessID, product.ID, location.ID)
			if err != nil {
				return err
			}
			if available.LessThan(qty) {
				return &domain.StockConflictError{
					SKU:          product.SKU,
					LocationCode: location.Code,
					Available:    available,
					Requested:    qty,
				}
			}
			if err := movRepo.Create(movement); err != nil {
				return fmt.Errorf("crear movimiento de ajuste: %w", err)
			}
			_, err = consumeFIFO(lotRepo, allocRepo, product, location, movement.ID, qty)
			if err != nil {
				return err
			}
			result.MovementID = movement.ID
			return nil
		}

		if err := movRepo.Create(movement); err != nil {
			return fmt.Errorf("crear movimiento de ajuste: %w", err)
		}
		receivedAt := at
		if isOpeningNote(in.Note) {
			receivedAt = openingEpoch
		}
		lotCode, err := uniqueLotCode(lotCodeBase("ADJ-"+product.SKU, at), func(code string) (bool, error) {
			return lotRepo.CodeExists(businessID, code)
		})
		if err != nil {
			return fmt.Errorf("generar código de lote: %w", err)
		}
		if err := lotRepo.Create(&entity.InventoryLot{
			BusinessID:   businessID,
			MovementID:   movement.ID,
			ProductID:    product.ID,
			LocationID:   location.ID,
			LotCode:      lotCode,
			ReceivedAt:   receivedAt,
			UnitCost:     unitCost,
			QtyReceived:  in.Delta,
			QtyRemaining: in.Delta,
		}); err != nil {
			return fmt.Errorf("crear lote de ajuste: %w", err)
		}
		result.MovementID = movement.ID
		result.LotCode = lotCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.StockAfter = uc.stockAfter(businessID, product.ID)
	result.Warning = restockWarning(product, result.StockAfter)
	uc.log.Info().
		Str("sku", product.SKU).
		Int64("movement_id", result.MovementID).
		Str("delta", in.Delta.String()).
		Msg("ajuste registrado")
	return result, nil
}

// SupplierReturn devuelve mercadería al proveedor descontando de un lote
// puntual elegido por código, sin pasar por el orden FIFO.
func (uc *LedgerUseCase) SupplierReturn(ctx context.Context, businessID, userID string, in SupplierReturnInput) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de devolución debe ser positiva: %w", domain.ErrInvalidInput)
	}
	product, err := uc.productBySKU(businessID, in.SKU)
	if err != nil {
		return nil, err
	}
	at := movementDate(in.MovementDate)

	result := &MovementResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		_ repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		lot, err := lotRepo.GetByCode(businessID, in.LotCode)
		if err != nil {
			if err == domain.ErrNotFound {
				return fmt.Errorf("lote %s no existe: %w", in.LotCode, domain.ErrConflict)
			}
			return err
		}
		if lot.ProductID != product.ID {
			return fmt.Errorf("lote %s no pertenece al producto %s: %w", in.LotCode, product.SKU, domain.ErrConflict)
		}
		if lot.QtyRemaining.LessThan(in.Quantity) {
			return &domain.StockConflictError{
				SKU:       product.SKU,
				Available: lot.QtyRemaining,
				Requested: in.Quantity,
			}
		}

		movement := &entity.InventoryMovement{
			BusinessID:   businessID,
			ProductID:    product.ID,
			LocationID:   lot.LocationID,
			Type:         entity.MovementReturnSupplier,
			Quantity:     in.Quantity.Neg(),
			UnitCost:     &lot.UnitCost,
			MovementDate: at,
			Note:         withMarker(in.Note, markerLotCode, in.LotCode),
			CreatedBy:    userID,
		}
		if err := movRepo.Create(movement); err != nil {
			return fmt.Errorf("crear movimiento de devolución: %w", err)
		}
		if err := lotRepo.UpdateRemaining(lot.ID, lot.QtyRemaining.Sub(in.Quantity)); err != nil {
			return fmt.Errorf("descontar lote %s: %w", in.LotCode, err)
		}
		if err := allocRepo.Create(&entity.MovementAllocation{
			MovementID: movement.ID,
			LotID:      lot.ID,
			Quantity:   in.Quantity,
			UnitCost:   lot.UnitCost,
		}); err != nil {
			return fmt.Errorf("registrar asignación de devolución: %w", err)
		}
		result.MovementID = movement.ID
		result.LotCode = in.LotCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.StockAfter = uc.stockAfter(businessID, product.ID)
	result.Warning = restockWarning(product, result.StockAfter)
	uc.log.Info().
		Str("sku", product.SKU).
		Str("lot_code", in.LotCode).
		Int64("movement_id", result.MovementID).
		Msg("devolución a proveedor registrada")
	return result, nil
}

// resolveUnitCost aplica el costo explícito o cae al costo por defecto del
// producto; sin ninguno de los dos la operación es inválida.
func resolveUnitCost(explicit, productDefault *decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case explicit != nil:
		if explicit.IsNegative() {
			return decimal.Zero, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
		}
		return *explicit, nil
	case productDefault != nil:
		return *productDefault, nil
	default:
		return decimal.Zero, fmt.Errorf("costo unitario requerido y sin valor por defecto: %w", domain.ErrInvalidInput)
	}
}

// resolveUnitPrice igual que resolveUnitCost pero para el precio de venta.
func resolveUnitPrice(explicit, productDefault *decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case explicit != nil:
		if explicit.IsNegative() {
			return decimal.Zero, fmt.Errorf("precio unitario negativo: %w", domain.ErrInvalidInput)
		}
		return *explicit, nil
	case productDefault != nil:
		return *productDefault, nil
	default:
		return decimal.Zero, fmt.Errorf("precio unitario requerido y sin valor por defecto: %w", domain.ErrInvalidInput)
	}
}
