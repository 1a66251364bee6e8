package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// BusinessRepository define el puerto de persistencia para Business (DIP).
type BusinessRepository interface {
	Create(business *entity.Business) error
	GetByID(id string) (*entity.Business, error)
	List(limit, offset int) ([]*entity.Business, error)
}

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(user *entity.User) error
	GetByEmailAndBusiness(email, businessID string) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
}
