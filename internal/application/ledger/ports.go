package ledger

import (
	"context"

	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// TxRunner abstrae la ejecución transaccional: toda operación mutadora del
// libro (compra, venta, ajuste, traslado, ediciones y el rebuild que
// disparan) corre completa dentro de una única transacción, con Commit al
// final o Rollback ante cualquier error.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// BusinessDefaults configuración de negocio inyectada explícitamente en el
// caso de uso (nunca estado global): código de la ubicación central y de la
// ubicación POS por defecto.
type BusinessDefaults struct {
	CentralLocationCode    string
	DefaultPOSLocationCode string
}
