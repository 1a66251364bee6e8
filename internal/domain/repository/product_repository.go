package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// El libro solo lee productos; la gestión de catálogo vive fuera del core.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(businessID, id string) (*entity.Product, error)
	GetBySKU(businessID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	ListByBusiness(businessID string, limit, offset int) ([]*entity.Product, error)
}
