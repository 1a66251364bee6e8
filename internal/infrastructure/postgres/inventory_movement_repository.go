package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación del libro de movimientos sobre
// PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `
	id, business_id, product_id, location_id, type, quantity,
	unit_cost, unit_price, movement_date, note, transfer_ref,
	transfer_out_id, created_at, created_by`

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var movType string
	err := row.Scan(
		&m.ID, &m.BusinessID, &m.ProductID, &m.LocationID, &movType, &m.Quantity,
		&m.UnitCost, &m.UnitPrice, &m.MovementDate, &m.Note, &m.TransferRef,
		&m.TransferOutID, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movType)
	return &m, nil
}

// Create persiste el movimiento y asigna el id de secuencia.
func (r *InventoryMovementRepo) Create(m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements
			(business_id, product_id, location_id, type, quantity,
			 unit_cost, unit_price, movement_date, note, transfer_ref,
			 transfer_out_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`
	err := r.q.QueryRow(context.Background(), query,
		m.BusinessID, m.ProductID, m.LocationID, string(m.Type), m.Quantity,
		m.UnitCost, m.UnitPrice, m.MovementDate, m.Note, m.TransferRef,
		m.TransferOutID, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID busca un movimiento del negocio por id.
func (r *InventoryMovementRepo) GetByID(businessID string, id int64) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements WHERE business_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, businessID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Update sobreescribe los campos editables del movimiento.
func (r *InventoryMovementRepo) Update(m *entity.InventoryMovement) error {
	query := `
		UPDATE inventory_movements
		SET product_id = $3, location_id = $4, quantity = $5, unit_cost = $6,
		    unit_price = $7, movement_date = $8, note = $9, transfer_ref = $10,
		    transfer_out_id = $11
		WHERE business_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query,
		m.BusinessID, m.ID, m.ProductID, m.LocationID, m.Quantity, m.UnitCost,
		m.UnitPrice, m.MovementDate, m.Note, m.TransferRef, m.TransferOutID)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el movimiento.
func (r *InventoryMovementRepo) Delete(businessID string, id int64) error {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM inventory_movements WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByProduct devuelve el libro completo del producto en el orden
// autoritativo de atribución de costos.
func (r *InventoryMovementRepo) ListByProduct(businessID, productID string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE business_id = $1 AND product_id = $2
		ORDER BY movement_date ASC, id ASC`
	return r.list(query, businessID, productID)
}

// ListTransferIns devuelve los transfer_in enlazados por columna al transfer_out.
func (r *InventoryMovementRepo) ListTransferIns(businessID string, outID int64) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE business_id = $1 AND type = 'transfer_in' AND transfer_out_id = $2
		ORDER BY id ASC`
	return r.list(query, businessID, outID)
}

// SearchTransferInsByNote busca transfer_in legados por marcador en la nota.
func (r *InventoryMovementRepo) SearchTransferInsByNote(businessID, marker string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE business_id = $1 AND type = 'transfer_in' AND note LIKE '%' || $2 || '%'
		ORDER BY id ASC`
	return r.list(query, businessID, marker)
}

// ListTransferInCandidates emparejamiento heurístico: transfer_in del
// producto dentro de la ventana. locationID vacío no filtra por ubicación.
func (r *InventoryMovementRepo) ListTransferInCandidates(businessID, productID, locationID string, from, to time.Time) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE business_id = $1 AND product_id = $2 AND type = 'transfer_in'
		  AND movement_date BETWEEN $3 AND $4
		  AND ($5 = '' OR location_id = $5)
		ORDER BY movement_date ASC, id ASC`
	return r.list(query, businessID, productID, from, to, locationID)
}

func (r *InventoryMovementRepo) list(query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
