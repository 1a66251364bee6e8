package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// Ediciones retroactivas. Cada edición corre en una sola transacción que
// modifica el movimiento y reconstruye por replay la historia completa de
// lotes del producto (de ambos productos si la edición lo reasigna). Si el
// historial editado no cierra, la transacción revierte con el diagnóstico
// del replay.

// UpdatePurchaseInput edición de una compra. Campos nil no cambian.
type UpdatePurchaseInput struct {
	MovementID   int64
	SKU          *string // reasigna la compra a otro producto
	Quantity     *decimal.Decimal
	UnitCost     *decimal.Decimal
	MovementDate *time.Time
	Note         *string
	LotCode      *string
}

// UpdateSaleInput edición de una venta. Campos nil no cambian.
type UpdateSaleInput struct {
	MovementID   int64
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	MovementDate *time.Time
	Note         *string
}

// UpdateAdjustmentInput edición de un ajuste. Campos nil no cambian.
type UpdateAdjustmentInput struct {
	MovementID   int64
	Delta        *decimal.Decimal
	UnitCost     *decimal.Decimal
	MovementDate *time.Time
	Note         *string
}

// getTypedMovement trae el movimiento y verifica el tipo esperado; un id de
// otro tipo se trata como inexistente para la operación.
func getTypedMovement(movRepo repository.InventoryMovementRepository, businessID string, id int64, want entity.MovementType) (*entity.InventoryMovement, error) {
	mv, err := movRepo.GetByID(businessID, id)
	if err != nil {
		return nil, err
	}
	if mv.Type != want {
		return nil, fmt.Errorf("movimiento %d no es %s: %w", id, want, domain.ErrNotFound)
	}
	return mv, nil
}

// UpdatePurchase edita una compra y reconstruye el producto (los dos
// productos, si la compra se reasigna por SKU).
func (uc *LedgerUseCase) UpdatePurchase(ctx context.Context, businessID string, in UpdatePurchaseInput) (*MovementResult, error) {
	if in.Quantity != nil && !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de compra debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}

	var productID string
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		mv, err := getTypedMovement(movRepo, businessID, in.MovementID, entity.MovementPurchase)
		if err != nil {
			return err
		}
		oldProduct, err := productRepo.GetByID(businessID, mv.ProductID)
		if err != nil {
			return err
		}
		product := oldProduct
		if in.SKU != nil && *in.SKU != oldProduct.SKU {
			product, err = productRepo.GetBySKU(businessID, *in.SKU)
			if err != nil {
				return fmt.Errorf("producto %s: %w", *in.SKU, err)
			}
			mv.ProductID = product.ID
		}

		if in.Quantity != nil {
			mv.Quantity = *in.Quantity
		}
		if in.UnitCost != nil {
			mv.UnitCost = in.UnitCost
		}
		if in.MovementDate != nil {
			at := in.MovementDate.UTC()
			mv.MovementDate = at
		}
		if in.Note != nil {
			mv.Note = *in.Note
		}
		if err := movRepo.Update(mv); err != nil {
			return fmt.Errorf("actualizar compra: %w", err)
		}

		var overrides map[int64]string
		if in.LotCode != nil && *in.LotCode != "" {
			if existing, err := lotRepo.GetByCode(businessID, *in.LotCode); err == nil && existing.MovementID != mv.ID {
				return fmt.Errorf("código de lote %s ya existe: %w", *in.LotCode, domain.ErrDuplicate)
			} else if err != nil && err != domain.ErrNotFound {
				return err
			}
			overrides = map[int64]string{mv.ID: *in.LotCode}
		}

		if product.ID != oldProduct.ID {
			if err := rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, oldProduct, nil); err != nil {
				return err
			}
		}
		if err := rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, overrides); err != nil {
			return err
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("movement_id", in.MovementID).Msg("compra actualizada")
	return &MovementResult{
		MovementID: in.MovementID,
		StockAfter: uc.stockAfter(businessID, productID),
	}, nil
}

// UpdateSale edita una venta y reconstruye el producto.
func (uc *LedgerUseCase) UpdateSale(ctx context.Context, businessID string, in UpdateSaleInput) (*MovementResult, error) {
	if in.Quantity != nil && !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de venta debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("precio unitario negativo: %w", domain.ErrInvalidInput)
	}

	var productID string
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		mv, err := getTypedMovement(movRepo, businessID, in.MovementID, entity.MovementSale)
		if err != nil {
			return err
		}
		product, err := productRepo.GetByID(businessID, mv.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity != nil {
			mv.Quantity = in.Quantity.Neg()
		}
		if in.UnitPrice != nil {
			mv.UnitPrice = in.UnitPrice
		}
		if in.MovementDate != nil {
			mv.MovementDate = in.MovementDate.UTC()
		}
		if in.Note != nil {
			mv.Note = *in.Note
		}
		if err := movRepo.Update(mv); err != nil {
			return fmt.Errorf("actualizar venta: %w", err)
		}
		if err := rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil); err != nil {
			return err
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("movement_id", in.MovementID).Msg("venta actualizada")
	return &MovementResult{
		MovementID: in.MovementID,
		StockAfter: uc.stockAfter(businessID, productID),
	}, nil
}

// UpdateAdjustment edita un ajuste y reconstruye el producto. El delta puede
// cambiar de signo: el replay decide si crea lote o consume.
func (uc *LedgerUseCase) UpdateAdjustment(ctx context.Context, businessID string, in UpdateAdjustmentInput) (*MovementResult, error) {
	if in.Delta != nil && in.Delta.IsZero() {
		return nil, fmt.Errorf("delta de ajuste no puede ser cero: %w", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}

	var productID string
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		mv, err := getTypedMovement(movRepo, businessID, in.MovementID, entity.MovementAdjustment)
		if err != nil {
			return err
		}
		product, err := productRepo.GetByID(businessID, mv.ProductID)
		if err != nil {
			return err
		}
		if in.Delta != nil {
			mv.Quantity = *in.Delta
		}
		if in.UnitCost != nil {
			mv.UnitCost = in.UnitCost
		}
		if in.MovementDate != nil {
			mv.MovementDate = in.MovementDate.UTC()
		}
		if in.Note != nil {
			mv.Note = *in.Note
		}
		if mv.Quantity.IsPositive() && mv.UnitCost == nil {
			return fmt.Errorf("ajuste positivo requiere costo unitario: %w", domain.ErrInvalidInput)
		}
		if err := movRepo.Update(mv); err != nil {
			return fmt.Errorf("actualizar ajuste: %w", err)
		}
		if err := rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil); err != nil {
			return err
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("movement_id", in.MovementID).Msg("ajuste actualizado")
	return &MovementResult{
		MovementID: in.MovementID,
		StockAfter: uc.stockAfter(businessID, productID),
	}, nil
}

// DeletePurchase elimina una compra y reconstruye el producto. Si el stock de
// esa compra ya fue consumido por ventas posteriores, el replay falla y la
// eliminación se rechaza con el conflicto.
func (uc *LedgerUseCase) DeletePurchase(ctx context.Context, businessID string, movementID int64) error {
	return uc.deleteAndRebuild(ctx, businessID, movementID, entity.MovementPurchase)
}

// DeleteSale elimina una venta y reconstruye el producto; el stock consumido
// por la venta vuelve a sus lotes originales.
func (uc *LedgerUseCase) DeleteSale(ctx context.Context, businessID string, movementID int64) error {
	return uc.deleteAndRebuild(ctx, businessID, movementID, entity.MovementSale)
}

// DeleteAdjustment elimina un ajuste y reconstruye el producto.
func (uc *LedgerUseCase) DeleteAdjustment(ctx context.Context, businessID string, movementID int64) error {
	return uc.deleteAndRebuild(ctx, businessID, movementID, entity.MovementAdjustment)
}

func (uc *LedgerUseCase) deleteAndRebuild(ctx context.Context, businessID string, movementID int64, want entity.MovementType) error {
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		mv, err := getTypedMovement(movRepo, businessID, movementID, want)
		if err != nil {
			return err
		}
		product, err := productRepo.GetByID(businessID, mv.ProductID)
		if err != nil {
			return err
		}
		if err := movRepo.Delete(businessID, movementID); err != nil {
			return fmt.Errorf("borrar movimiento %d: %w", movementID, err)
		}
		return rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil)
	})
	if err != nil {
		return err
	}
	uc.log.Info().
		Int64("movement_id", movementID).
		Str("type", string(want)).
		Msg("movimiento eliminado")
	return nil
}

// RebuildProduct reconstruye explícitamente la historia de lotes de un
// producto (herramienta de reconciliación).
func (uc *LedgerUseCase) RebuildProduct(ctx context.Context, businessID, sku string) error {
	product, err := uc.productBySKU(businessID, sku)
	if err != nil {
		return err
	}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		return rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("sku", sku).Msg("producto reconstruido")
	return nil
}
