package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRequest alta o edición de gasto operativo.
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Concept     string          `json:"concept"`
	ExpenseDate *time.Time      `json:"expense_date,omitempty"`
}

// ExpenseResponse gasto operativo.
type ExpenseResponse struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Concept     string          `json:"concept"`
	ExpenseDate time.Time       `json:"expense_date"`
}

// ExtractionRequest alta o edición de retiro de dinero.
type ExtractionRequest struct {
	Party          string          `json:"party"`
	Amount         decimal.Decimal `json:"amount"`
	Concept        string          `json:"concept,omitempty"`
	ExtractionDate *time.Time      `json:"extraction_date,omitempty"`
}

// ExtractionResponse retiro de dinero.
type ExtractionResponse struct {
	ID             int64           `json:"id"`
	Party          string          `json:"party"`
	Amount         decimal.Decimal `json:"amount"`
	Concept        string          `json:"concept,omitempty"`
	ExtractionDate time.Time       `json:"extraction_date"`
}
