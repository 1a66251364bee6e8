package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-ubicación).
// El libro de inventario lo referencia pero nunca lo muta: la gestión de
// catálogo es colaborador externo.
type Product struct {
	ID                  string
	BusinessID          string
	SKU                 string // único por negocio
	Name                string
	Category            string
	UnitOfMeasure       string
	MinStock            decimal.Decimal
	DefaultPurchaseCost *decimal.Decimal
	DefaultSalePrice    *decimal.Decimal
	LeadTimeDays        int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
