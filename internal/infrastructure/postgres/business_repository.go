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

var _ repository.BusinessRepository = (*BusinessRepo)(nil)

// BusinessRepo implementación de negocios (tenants) sobre PostgreSQL.
type BusinessRepo struct {
	q Querier
}

// NewBusinessRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBusinessRepository(q Querier) *BusinessRepo {
	return &BusinessRepo{q: q}
}

// Create persiste el negocio; genera el id si viene vacío.
func (r *BusinessRepo) Create(b *entity.Business) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := r.q.QueryRow(context.Background(), `
		INSERT INTO businesses (id, name) VALUES ($1, $2)
		RETURNING created_at, updated_at`,
		b.ID, b.Name).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

// GetByID busca el negocio por id.
func (r *BusinessRepo) GetByID(id string) (*entity.Business, error) {
	var b entity.Business
	err := r.q.QueryRow(context.Background(), `
		SELECT id, name, created_at, updated_at FROM businesses WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}

// List negocios paginados.
func (r *BusinessRepo) List(limit, offset int) ([]*entity.Business, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, name, created_at, updated_at FROM businesses
		ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*entity.Business
	for rows.Next() {
		var b entity.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, &b)
	}
	return businesses, rows.Err()
}

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación de usuarios sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `
	id, business_id, email, password_hash, name, role, status,
	created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.BusinessID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste el usuario.
func (r *UserRepo) Create(u *entity.User) error {
	query := `
		INSERT INTO users
			(id, business_id, email, password_hash, name, role, status,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		u.ID, u.BusinessID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmailAndBusiness busca el usuario por email dentro de un negocio.
// Devuelve nil, nil si no existe (el caso de uso decide el error).
func (r *UserRepo) GetByEmailAndBusiness(email, businessID string) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users WHERE email = $1 AND business_id = $2`
	u, err := scanUser(r.q.QueryRow(context.Background(), query, email, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindByEmail busca el usuario por email en cualquier negocio.
// Devuelve nil, nil si no existe.
func (r *UserRepo) FindByEmail(email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.q.QueryRow(context.Background(), query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
