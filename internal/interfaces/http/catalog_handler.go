package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/catalog"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// CatalogHandler maneja productos y ubicaciones.
type CatalogHandler struct {
	uc *catalog.CatalogUseCase
}

func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Name:                p.Name,
		Category:            p.Category,
		UnitOfMeasure:       p.UnitOfMeasure,
		MinStock:            p.MinStock,
		DefaultPurchaseCost: p.DefaultPurchaseCost,
		DefaultSalePrice:    p.DefaultSalePrice,
		LeadTimeDays:        p.LeadTimeDays,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func toLocationResponse(l *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{ID: l.ID, Code: l.Code, Name: l.Name, CreatedAt: l.CreatedAt}
}

func productInput(in dto.ProductRequest) catalog.ProductInput {
	return catalog.ProductInput{
		SKU:                 in.SKU,
		Name:                in.Name,
		Category:            in.Category,
		UnitOfMeasure:       in.UnitOfMeasure,
		MinStock:            in.MinStock,
		DefaultPurchaseCost: in.DefaultPurchaseCost,
		DefaultSalePrice:    in.DefaultSalePrice,
		LeadTimeDays:        in.LeadTimeDays,
	}
}

// CreateProduct godoc
// @Summary      Crear producto
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ProductRequest  true  "datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.CreateProduct(c.Context(), GetBusinessID(c), productInput(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
}

// UpdateProduct godoc
// @Summary      Editar producto por SKU (el SKU no cambia)
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku   path      string              true  "SKU del producto"
// @Param        body  body      dto.ProductRequest  true  "datos del producto"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{sku} [put]
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.UpdateProduct(c.Context(), GetBusinessID(c), c.Params("sku"), productInput(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductResponse(p))
}

// GetProduct godoc
// @Summary      Consultar producto por SKU
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        sku  path  string  true  "SKU del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{sku} [get]
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.Context(), GetBusinessID(c), c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductResponse(p))
}

// ListProducts godoc
// @Summary      Listar productos del negocio
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo de filas (por defecto 50)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.uc.ListProducts(c.Context(), GetBusinessID(c),
		c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return c.JSON(out)
}

// CreateLocation godoc
// @Summary      Crear ubicación
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.LocationRequest  true  "code y nombre"
// @Success      201   {object}  dto.LocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/locations [post]
func (h *CatalogHandler) CreateLocation(c *fiber.Ctx) error {
	var in dto.LocationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	l, err := h.uc.CreateLocation(c.Context(), GetBusinessID(c), in.Code, in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLocationResponse(l))
}

// ListLocations godoc
// @Summary      Listar ubicaciones del negocio
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LocationResponse
// @Router       /api/locations [get]
func (h *CatalogHandler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.uc.ListLocations(c.Context(), GetBusinessID(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, toLocationResponse(l))
	}
	return c.JSON(out)
}
