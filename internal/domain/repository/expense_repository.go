package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// OperatingExpenseRepository define el puerto para gastos operativos.
type OperatingExpenseRepository interface {
	Create(expense *entity.OperatingExpense) error
	GetByID(businessID string, id int64) (*entity.OperatingExpense, error)
	Update(expense *entity.OperatingExpense) error
	Delete(businessID string, id int64) error
	List(businessID string, start, end time.Time, limit int) ([]*entity.OperatingExpense, error)
	Total(businessID string, start, end time.Time) (decimal.Decimal, error)
}

// MoneyExtractionRepository define el puerto para retiros de dinero.
type MoneyExtractionRepository interface {
	Create(extraction *entity.MoneyExtraction) error
	GetByID(businessID string, id int64) (*entity.MoneyExtraction, error)
	Update(extraction *entity.MoneyExtraction) error
	Delete(businessID string, id int64) error
	List(businessID string, start, end time.Time, limit int) ([]*entity.MoneyExtraction, error)
	// TotalsByParty suma los retiros del período agrupados por parte.
	TotalsByParty(businessID string, start, end time.Time) (map[string]decimal.Decimal, error)
}
