package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.InventoryLotRepository = (*InventoryLotRepo)(nil)

// InventoryLotRepo implementación de lotes FIFO sobre PostgreSQL (usable con
// pool o tx).
type InventoryLotRepo struct {
	q Querier
}

// NewInventoryLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryLotRepository(q Querier) *InventoryLotRepo {
	return &InventoryLotRepo{q: q}
}

const lotColumns = `
	id, business_id, movement_id, product_id, location_id, lot_code,
	received_at, unit_cost, qty_received, qty_remaining`

func scanLot(row pgx.Row) (*entity.InventoryLot, error) {
	var l entity.InventoryLot
	err := row.Scan(
		&l.ID, &l.BusinessID, &l.MovementID, &l.ProductID, &l.LocationID,
		&l.LotCode, &l.ReceivedAt, &l.UnitCost, &l.QtyReceived, &l.QtyRemaining,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste el lote y asigna el id de secuencia.
func (r *InventoryLotRepo) Create(l *entity.InventoryLot) error {
	query := `
		INSERT INTO inventory_lots
			(business_id, movement_id, product_id, location_id, lot_code,
			 received_at, unit_cost, qty_received, qty_remaining)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		l.BusinessID, l.MovementID, l.ProductID, l.LocationID, l.LotCode,
		l.ReceivedAt, l.UnitCost, l.QtyReceived, l.QtyRemaining,
	).Scan(&l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", l.LotCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByCode busca un lote del negocio por código.
func (r *InventoryLotRepo) GetByCode(businessID, lotCode string) (*entity.InventoryLot, error) {
	query := `SELECT ` + lotColumns + `
		FROM inventory_lots WHERE business_id = $1 AND lot_code = $2`
	l, err := scanLot(r.q.QueryRow(context.Background(), query, businessID, lotCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// CodeExists indica si el código de lote ya está tomado en el negocio.
func (r *InventoryLotRepo) CodeExists(businessID, lotCode string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM inventory_lots WHERE business_id = $1 AND lot_code = $2)`,
		businessID, lotCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lot code exists: %w", err)
	}
	return exists, nil
}

// FIFOAvailable lotes con saldo en la ubicación, en orden de consumo.
// Bloquea las filas hasta el commit: dos ventas concurrentes del mismo
// producto se serializan y la segunda ve los saldos ya descontados.
func (r *InventoryLotRepo) FIFOAvailable(businessID, productID, locationID string) ([]*entity.InventoryLot, error) {
	query := `SELECT ` + lotColumns + `
		FROM inventory_lots
		WHERE business_id = $1 AND product_id = $2 AND location_id = $3
		  AND qty_remaining > 0
		ORDER BY received_at ASC, id ASC
		FOR UPDATE`
	return r.list(query, businessID, productID, locationID)
}

// UpdateRemaining fija qty_remaining del lote.
func (r *InventoryLotRepo) UpdateRemaining(lotID int64, qtyRemaining decimal.Decimal) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE inventory_lots SET qty_remaining = $2 WHERE id = $1`, lotID, qtyRemaining)
	if err != nil {
		return fmt.Errorf("update lot remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumRemaining suma el saldo del producto; locationID vacío = todas.
func (r *InventoryLotRepo) SumRemaining(businessID, productID, locationID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(qty_remaining), 0)
		FROM inventory_lots
		WHERE business_id = $1 AND product_id = $2
		  AND ($3 = '' OR location_id = $3)`,
		businessID, productID, locationID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum remaining: %w", err)
	}
	return total, nil
}

// ListByProduct todos los lotes del producto, en orden FIFO.
func (r *InventoryLotRepo) ListByProduct(businessID, productID string) ([]*entity.InventoryLot, error) {
	query := `SELECT ` + lotColumns + `
		FROM inventory_lots
		WHERE business_id = $1 AND product_id = $2
		ORDER BY received_at ASC, id ASC`
	return r.list(query, businessID, productID)
}

// DeleteByProduct borra todos los lotes del producto (paso del rebuild).
func (r *InventoryLotRepo) DeleteByProduct(businessID, productID string) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM inventory_lots WHERE business_id = $1 AND product_id = $2`,
		businessID, productID)
	if err != nil {
		return fmt.Errorf("delete lots by product: %w", err)
	}
	return nil
}

// DeleteByMovement borra los lotes creados por un movimiento.
func (r *InventoryLotRepo) DeleteByMovement(movementID int64) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM inventory_lots WHERE movement_id = $1`, movementID)
	if err != nil {
		return fmt.Errorf("delete lots by movement: %w", err)
	}
	return nil
}

func (r *InventoryLotRepo) list(query string, args ...any) ([]*entity.InventoryLot, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var lots []*entity.InventoryLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

var _ repository.MovementAllocationRepository = (*MovementAllocationRepo)(nil)

// MovementAllocationRepo implementación de asignaciones movimiento→lote.
type MovementAllocationRepo struct {
	q Querier
}

// NewMovementAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementAllocationRepository(q Querier) *MovementAllocationRepo {
	return &MovementAllocationRepo{q: q}
}

// Create persiste la asignación.
func (r *MovementAllocationRepo) Create(a *entity.MovementAllocation) error {
	query := `
		INSERT INTO movement_allocations (movement_id, lot_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		a.MovementID, a.LotID, a.Quantity, a.UnitCost).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// ListByMovement asignaciones de un movimiento consumidor.
func (r *MovementAllocationRepo) ListByMovement(movementID int64) ([]*entity.MovementAllocation, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, movement_id, lot_id, quantity, unit_cost
		FROM movement_allocations WHERE movement_id = $1 ORDER BY id ASC`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*entity.MovementAllocation
	for rows.Next() {
		var a entity.MovementAllocation
		if err := rows.Scan(&a.ID, &a.MovementID, &a.LotID, &a.Quantity, &a.UnitCost); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocations = append(allocations, &a)
	}
	return allocations, rows.Err()
}

// DeleteByMovement borra las asignaciones de un movimiento.
func (r *MovementAllocationRepo) DeleteByMovement(movementID int64) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM movement_allocations WHERE movement_id = $1`, movementID)
	if err != nil {
		return fmt.Errorf("delete allocations by movement: %w", err)
	}
	return nil
}

// DeleteByProduct borra las asignaciones de todos los movimientos del
// producto (paso previo del rebuild).
func (r *MovementAllocationRepo) DeleteByProduct(businessID, productID string) error {
	_, err := r.q.Exec(context.Background(), `
		DELETE FROM movement_allocations
		WHERE movement_id IN (
			SELECT id FROM inventory_movements
			WHERE business_id = $1 AND product_id = $2)`,
		businessID, productID)
	if err != nil {
		return fmt.Errorf("delete allocations by product: %w", err)
	}
	return nil
}
