package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.OperatingExpenseRepository = (*OperatingExpenseRepo)(nil)

// OperatingExpenseRepo implementación de gastos operativos sobre PostgreSQL.
type OperatingExpenseRepo struct {
	q Querier
}

// NewOperatingExpenseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOperatingExpenseRepository(q Querier) *OperatingExpenseRepo {
	return &OperatingExpenseRepo{q: q}
}

// Create persiste el gasto y asigna el id de secuencia.
func (r *OperatingExpenseRepo) Create(e *entity.OperatingExpense) error {
	err := r.q.QueryRow(context.Background(), `
		INSERT INTO operating_expenses (business_id, amount, concept, expense_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.BusinessID, e.Amount, e.Concept, e.ExpenseDate).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetByID busca el gasto del negocio por id.
func (r *OperatingExpenseRepo) GetByID(businessID string, id int64) (*entity.OperatingExpense, error) {
	var e entity.OperatingExpense
	err := r.q.QueryRow(context.Background(), `
		SELECT id, business_id, amount, concept, expense_date, created_at
		FROM operating_expenses WHERE business_id = $1 AND id = $2`,
		businessID, id).Scan(&e.ID, &e.BusinessID, &e.Amount, &e.Concept, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

// Update sobreescribe el gasto.
func (r *OperatingExpenseRepo) Update(e *entity.OperatingExpense) error {
	tag, err := r.q.Exec(context.Background(), `
		UPDATE operating_expenses
		SET amount = $3, concept = $4, expense_date = $5
		WHERE business_id = $1 AND id = $2`,
		e.BusinessID, e.ID, e.Amount, e.Concept, e.ExpenseDate)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el gasto.
func (r *OperatingExpenseRepo) Delete(businessID string, id int64) error {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM operating_expenses WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List gastos del período, más recientes primero.
func (r *OperatingExpenseRepo) List(businessID string, start, end time.Time, limit int) ([]*entity.OperatingExpense, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, business_id, amount, concept, expense_date, created_at
		FROM operating_expenses
		WHERE business_id = $1 AND expense_date >= $2 AND expense_date < $3
		ORDER BY expense_date DESC, id DESC
		LIMIT $4`, businessID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.OperatingExpense
	for rows.Next() {
		var e entity.OperatingExpense
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.Amount, &e.Concept, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, &e)
	}
	return expenses, rows.Err()
}

// Total suma de gastos del período.
func (r *OperatingExpenseRepo) Total(businessID string, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(amount), 0)
		FROM operating_expenses
		WHERE business_id = $1 AND expense_date >= $2 AND expense_date < $3`,
		businessID, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return total, nil
}

var _ repository.MoneyExtractionRepository = (*MoneyExtractionRepo)(nil)

// MoneyExtractionRepo implementación de retiros de dinero sobre PostgreSQL.
type MoneyExtractionRepo struct {
	q Querier
}

// NewMoneyExtractionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMoneyExtractionRepository(q Querier) *MoneyExtractionRepo {
	return &MoneyExtractionRepo{q: q}
}

// Create persiste el retiro y asigna el id de secuencia.
func (r *MoneyExtractionRepo) Create(e *entity.MoneyExtraction) error {
	err := r.q.QueryRow(context.Background(), `
		INSERT INTO money_extractions (business_id, party, amount, concept, extraction_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.BusinessID, e.Party, e.Amount, e.Concept, e.ExtractionDate).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create extraction: %w", err)
	}
	return nil
}

// GetByID busca el retiro del negocio por id.
func (r *MoneyExtractionRepo) GetByID(businessID string, id int64) (*entity.MoneyExtraction, error) {
	var e entity.MoneyExtraction
	err := r.q.QueryRow(context.Background(), `
		SELECT id, business_id, party, amount, concept, extraction_date, created_at
		FROM money_extractions WHERE business_id = $1 AND id = $2`,
		businessID, id).Scan(&e.ID, &e.BusinessID, &e.Party, &e.Amount, &e.Concept, &e.ExtractionDate, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get extraction: %w", err)
	}
	return &e, nil
}

// Update sobreescribe el retiro.
func (r *MoneyExtractionRepo) Update(e *entity.MoneyExtraction) error {
	tag, err := r.q.Exec(context.Background(), `
		UPDATE money_extractions
		SET party = $3, amount = $4, concept = $5, extraction_date = $6
		WHERE business_id = $1 AND id = $2`,
		e.BusinessID, e.ID, e.Party, e.Amount, e.Concept, e.ExtractionDate)
	if err != nil {
		return fmt.Errorf("update extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el retiro.
func (r *MoneyExtractionRepo) Delete(businessID string, id int64) error {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM money_extractions WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return fmt.Errorf("delete extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retiros del período, más recientes primero.
func (r *MoneyExtractionRepo) List(businessID string, start, end time.Time, limit int) ([]*entity.MoneyExtraction, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, business_id, party, amount, concept, extraction_date, created_at
		FROM money_extractions
		WHERE business_id = $1 AND extraction_date >= $2 AND extraction_date < $3
		ORDER BY extraction_date DESC, id DESC
		LIMIT $4`, businessID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var extractions []*entity.MoneyExtraction
	for rows.Next() {
		var e entity.MoneyExtraction
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.Party, &e.Amount, &e.Concept, &e.ExtractionDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		extractions = append(extractions, &e)
	}
	return extractions, rows.Err()
}

// TotalsByParty suma los retiros del período agrupados por parte.
func (r *MoneyExtractionRepo) TotalsByParty(businessID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT party, COALESCE(SUM(amount), 0)
		FROM money_extractions
		WHERE business_id = $1 AND extraction_date >= $2 AND extraction_date < $3
		GROUP BY party`, businessID, start, end)
	if err != nil {
		return nil, fmt.Errorf("totals by party: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var party string
		var total decimal.Decimal
		if err := rows.Scan(&party, &total); err != nil {
			return nil, fmt.Errorf("scan party total: %w", err)
		}
		totals[party] = total
	}
	return totals, rows.Err()
}
