package finance

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

// FinanceUseCase gastos operativos y retiros de dinero: los dos insumos
// no-inventario del reporte de utilidad neta y del reparto de dividendos.
type FinanceUseCase struct {
	expenses    repository.OperatingExpenseRepository
	extractions repository.MoneyExtractionRepository
	log         *logger.Logger
}

// NewFinanceUseCase crea el caso de uso financiero.
func NewFinanceUseCase(
	expenses repository.OperatingExpenseRepository,
	extractions repository.MoneyExtractionRepository,
	log *logger.Logger,
) *FinanceUseCase {
	return &FinanceUseCase{expenses: expenses, extractions: extractions, log: log}
}

// ExpenseInput alta o edición de un gasto operativo.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Concept     string
	ExpenseDate *time.Time // nil -> hoy
}

// ExtractionInput alta o edición de un retiro de dinero.
type ExtractionInput struct {
	Party          string
	Amount         decimal.Decimal
	Concept        string
	ExtractionDate *time.Time
}

func dateOrNow(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return time.Now().UTC()
}

// CreateExpense registra un gasto operativo.
func (uc *FinanceUseCase) CreateExpense(ctx context.Context, businessID string, in ExpenseInput) (*entity.OperatingExpense, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("monto de gasto debe ser positivo: %w", domain.ErrInvalidInput)
	}
	if in.Concept == "" {
		return nil, fmt.Errorf("concepto de gasto requerido: %w", domain.ErrInvalidInput)
	}
	expense := &entity.OperatingExpense{
		BusinessID:  businessID,
		Amount:      in.Amount,
		Concept:     in.Concept,
		ExpenseDate: dateOrNow(in.ExpenseDate),
	}
	if err := uc.expenses.Create(expense); err != nil {
		return nil, fmt.Errorf("crear gasto: %w", err)
	}
	uc.log.Info().Int64("expense_id", expense.ID).Str("concept", in.Concept).Msg("gasto registrado")
	return expense, nil
}

// UpdateExpense edita un gasto existente.
func (uc *FinanceUseCase) UpdateExpense(ctx context.Context, businessID string, id int64, in ExpenseInput) (*entity.OperatingExpense, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("monto de gasto debe ser positivo: %w", domain.ErrInvalidInput)
	}
	expense, err := uc.expenses.GetByID(businessID, id)
	if err != nil {
		return nil, err
	}
	expense.Amount = in.Amount
	if in.Concept != "" {
		expense.Concept = in.Concept
	}
	if in.ExpenseDate != nil {
		expense.ExpenseDate = in.ExpenseDate.UTC()
	}
	if err := uc.expenses.Update(expense); err != nil {
		return nil, fmt.Errorf("actualizar gasto: %w", err)
	}
	return expense, nil
}

// DeleteExpense elimina un gasto.
func (uc *FinanceUseCase) DeleteExpense(ctx context.Context, businessID string, id int64) error {
	if _, err := uc.expenses.GetByID(businessID, id); err != nil {
		return err
	}
	return uc.expenses.Delete(businessID, id)
}

// ListExpenses gastos del período.
func (uc *FinanceUseCase) ListExpenses(ctx context.Context, businessID string, start, end time.Time, limit int) ([]*entity.OperatingExpense, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.expenses.List(businessID, start, end, limit)
}

// CreateExtraction registra un retiro de dinero de un socio.
func (uc *FinanceUseCase) CreateExtraction(ctx context.Context, businessID string, in ExtractionInput) (*entity.MoneyExtraction, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("monto de retiro debe ser positivo: %w", domain.ErrInvalidInput)
	}
	if in.Party == "" {
		return nil, fmt.Errorf("socio del retiro requerido: %w", domain.ErrInvalidInput)
	}
	extraction := &entity.MoneyExtraction{
		BusinessID:     businessID,
		Party:          in.Party,
		Amount:         in.Amount,
		Concept:        in.Concept,
		ExtractionDate: dateOrNow(in.ExtractionDate),
	}
	if err := uc.extractions.Create(extraction); err != nil {
		return nil, fmt.Errorf("crear retiro: %w", err)
	}
	uc.log.Info().Int64("extraction_id", extraction.ID).Str("party", in.Party).Msg("retiro registrado")
	return extraction, nil
}

// UpdateExtraction edita un retiro.
func (uc *FinanceUseCase) UpdateExtraction(ctx context.Context, businessID string, id int64, in ExtractionInput) (*entity.MoneyExtraction, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("monto de retiro debe ser positivo: %w", domain.ErrInvalidInput)
	}
	extraction, err := uc.extractions.GetByID(businessID, id)
	if err != nil {
		return nil, err
	}
	extraction.Amount = in.Amount
	if in.Party != "" {
		extraction.Party = in.Party
	}
	if in.Concept != "" {
		extraction.Concept = in.Concept
	}
	if in.ExtractionDate != nil {
		extraction.ExtractionDate = in.ExtractionDate.UTC()
	}
	if err := uc.extractions.Update(extraction); err != nil {
		return nil, fmt.Errorf("actualizar retiro: %w", err)
	}
	return extraction, nil
}

// DeleteExtraction elimina un retiro.
func (uc *FinanceUseCase) DeleteExtraction(ctx context.Context, businessID string, id int64) error {
	if _, err := uc.extractions.GetByID(businessID, id); err != nil {
		return err
	}
	return uc.extractions.Delete(businessID, id)
}

// ListExtractions retiros del período.
func (uc *FinanceUseCase) ListExtractions(ctx context.Context, businessID string, start, end time.Time, limit int) ([]*entity.MoneyExtraction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.extractions.List(businessID, start, end, limit)
}
