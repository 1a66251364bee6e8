package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del catálogo de productos sobre PostgreSQL
// (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `
	id, business_id, sku, name, category, unit_of_measure, min_stock,
	default_purchase_cost, default_sale_price, lead_time_days,
	created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.SKU, &p.Name, &p.Category, &p.UnitOfMeasure,
		&p.MinStock, &p.DefaultPurchaseCost, &p.DefaultSalePrice,
		&p.LeadTimeDays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste el producto.
func (r *ProductRepo) Create(p *entity.Product) error {
	query := `
		INSERT INTO products
			(id, business_id, sku, name, category, unit_of_measure, min_stock,
			 default_purchase_cost, default_sale_price, lead_time_days,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.BusinessID, p.SKU, p.Name, p.Category, p.UnitOfMeasure,
		p.MinStock, p.DefaultPurchaseCost, p.DefaultSalePrice,
		p.LeadTimeDays, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicate)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetByID busca el producto del negocio por id.
func (r *ProductRepo) GetByID(businessID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE business_id = $1 AND id = $2`
	return r.get(query, businessID, id)
}

// GetBySKU busca el producto del negocio por SKU.
func (r *ProductRepo) GetBySKU(businessID, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE business_id = $1 AND sku = $2`
	return r.get(query, businessID, sku)
}

func (r *ProductRepo) get(query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update sobreescribe los datos maestros del producto.
func (r *ProductRepo) Update(p *entity.Product) error {
	query := `
		UPDATE products
		SET name = $3, category = $4, unit_of_measure = $5, min_stock = $6,
		    default_purchase_cost = $7, default_sale_price = $8,
		    lead_time_days = $9, updated_at = $10
		WHERE business_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query,
		p.BusinessID, p.ID, p.Name, p.Category, p.UnitOfMeasure, p.MinStock,
		p.DefaultPurchaseCost, p.DefaultSalePrice, p.LeadTimeDays, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBusiness catálogo del negocio paginado, ordenado por SKU.
func (r *ProductRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE business_id = $1
		ORDER BY sku ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
