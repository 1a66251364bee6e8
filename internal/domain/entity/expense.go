package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperatingExpense gasto operativo del período (alquiler, servicios, etc.).
// Solo participa en el reporte mensual: ventas - COGS - gastos = neto.
type OperatingExpense struct {
	ID          int64
	BusinessID  string
	Amount      decimal.Decimal
	Concept     string
	ExpenseDate time.Time
	CreatedAt   time.Time
}

// MoneyExtraction retiro de dinero del negocio por un socio o por el negocio
// mismo; alimenta el reporte mensual de dividendos.
type MoneyExtraction struct {
	ID             int64
	BusinessID     string
	Party          string
	Amount         decimal.Decimal
	Concept        string
	ExtractionDate time.Time
	CreatedAt      time.Time
}
