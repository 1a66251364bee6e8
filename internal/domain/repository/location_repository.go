package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// LocationRepository define el puerto de persistencia para ubicaciones (DIP).
type LocationRepository interface {
	Create(location *entity.Location) error
	GetByID(businessID, id string) (*entity.Location, error)
	GetByCode(businessID, code string) (*entity.Location, error)
	ListByBusiness(businessID string) ([]*entity.Location, error)
}
