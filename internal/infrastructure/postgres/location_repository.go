package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de ubicaciones sobre PostgreSQL (usable con
// pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste la ubicación; genera el id si viene vacío.
func (r *LocationRepo) Create(l *entity.Location) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	query := `
		INSERT INTO locations (id, business_id, code, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.q.QueryRow(context.Background(), query,
		l.ID, l.BusinessID, l.Code, l.Name).Scan(&l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ubicación %s: %w", l.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// GetByID busca la ubicación del negocio por id.
func (r *LocationRepo) GetByID(businessID, id string) (*entity.Location, error) {
	return r.get(`SELECT id, business_id, code, name, created_at
		FROM locations WHERE business_id = $1 AND id = $2`, businessID, id)
}

// GetByCode busca la ubicación del negocio por código.
func (r *LocationRepo) GetByCode(businessID, code string) (*entity.Location, error) {
	return r.get(`SELECT id, business_id, code, name, created_at
		FROM locations WHERE business_id = $1 AND code = $2`, businessID, code)
}

func (r *LocationRepo) get(query string, args ...any) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&l.ID, &l.BusinessID, &l.Code, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListByBusiness ubicaciones del negocio ordenadas por código.
func (r *LocationRepo) ListByBusiness(businessID string) ([]*entity.Location, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, business_id, code, name, created_at
		FROM locations WHERE business_id = $1 ORDER BY code ASC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.BusinessID, &l.Code, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}
