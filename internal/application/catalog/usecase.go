package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

// CatalogUseCase administra el catálogo de productos y ubicaciones del
// negocio. Las ubicaciones también se crean perezosamente desde el libro;
// aquí viven las altas explícitas y las consultas.
type CatalogUseCase struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	log       *logger.Logger
}

// NewCatalogUseCase crea el caso de uso de catálogo.
func NewCatalogUseCase(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	log *logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{products: products, locations: locations, log: log}
}

// ProductInput alta o edición de un producto.
type ProductInput struct {
	SKU                 string
	Name                string
	Category            string
	UnitOfMeasure       string
	MinStock            decimal.Decimal
	DefaultPurchaseCost *decimal.Decimal
	DefaultSalePrice    *decimal.Decimal
	LeadTimeDays        int
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return fmt.Errorf("sku requerido: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("nombre requerido: %w", domain.ErrInvalidInput)
	}
	if in.MinStock.IsNegative() {
		return fmt.Errorf("stock mínimo no puede ser negativo: %w", domain.ErrInvalidInput)
	}
	if in.LeadTimeDays < 0 {
		return fmt.Errorf("lead time no puede ser negativo: %w", domain.ErrInvalidInput)
	}
	return nil
}

// CreateProduct da de alta un producto; el SKU es único por negocio.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, businessID string, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := uc.products.GetBySKU(businessID, in.SKU); err == nil {
		return nil, fmt.Errorf("sku %s ya existe: %w", in.SKU, domain.ErrDuplicate)
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:                  uuid.NewString(),
		BusinessID:          businessID,
		SKU:                 strings.TrimSpace(in.SKU),
		Name:                strings.TrimSpace(in.Name),
		Category:            in.Category,
		UnitOfMeasure:       in.UnitOfMeasure,
		MinStock:            in.MinStock,
		DefaultPurchaseCost: in.DefaultPurchaseCost,
		DefaultSalePrice:    in.DefaultSalePrice,
		LeadTimeDays:        in.LeadTimeDays,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.products.Create(product); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	uc.log.Info().Str("sku", product.SKU).Msg("producto creado")
	return product, nil
}

// UpdateProduct edita los datos maestros de un producto. El SKU no cambia por
// esta vía: el libro referencia productos por id, pero el SKU es la clave
// operativa y cambiarlo silenciosamente confunde etiquetas ya impresas.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, businessID, sku string, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := uc.products.GetBySKU(businessID, sku)
	if err != nil {
		return nil, err
	}
	product.Name = strings.TrimSpace(in.Name)
	product.Category = in.Category
	product.UnitOfMeasure = in.UnitOfMeasure
	product.MinStock = in.MinStock
	product.DefaultPurchaseCost = in.DefaultPurchaseCost
	product.DefaultSalePrice = in.DefaultSalePrice
	product.LeadTimeDays = in.LeadTimeDays
	product.UpdatedAt = time.Now().UTC()
	if err := uc.products.Update(product); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	return product, nil
}

// GetProduct producto por SKU.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, businessID, sku string) (*entity.Product, error) {
	return uc.products.GetBySKU(businessID, sku)
}

// ListProducts catálogo del negocio, paginado.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, businessID string, limit, offset int) ([]*entity.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.products.ListByBusiness(businessID, limit, offset)
}

// CreateLocation alta explícita de una ubicación.
func (uc *CatalogUseCase) CreateLocation(ctx context.Context, businessID, code, name string) (*entity.Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("código de ubicación requerido: %w", domain.ErrInvalidInput)
	}
	if _, err := uc.locations.GetByCode(businessID, code); err == nil {
		return nil, fmt.Errorf("ubicación %s ya existe: %w", code, domain.ErrDuplicate)
	} else if err != domain.ErrNotFound {
		return nil, err
	}
	if name == "" {
		name = code
	}
	location := &entity.Location{
		BusinessID: businessID,
		Code:       code,
		Name:       name,
	}
	if err := uc.locations.Create(location); err != nil {
		return nil, fmt.Errorf("crear ubicación: %w", err)
	}
	uc.log.Info().Str("code", code).Msg("ubicación creada")
	return location, nil
}

// ListLocations ubicaciones del negocio.
func (uc *CatalogUseCase) ListLocations(ctx context.Context, businessID string) ([]*entity.Location, error) {
	return uc.locations.ListByBusiness(businessID)
}
