package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
)

// LedgerHandler maneja las operaciones del libro de inventario (protegido).
type LedgerHandler struct {
	uc *ledger.LedgerUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

func movementID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func toMovementResponse(r *ledger.MovementResult) dto.MovementResponse {
	return dto.MovementResponse{
		MovementID: r.MovementID,
		LotCode:    r.LotCode,
		StockAfter: r.StockAfter,
		Warning:    r.Warning,
	}
}

// RegisterPurchase godoc
// @Summary      Registrar compra
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.PurchaseRequest  true  "sku, quantity, unit_cost (opcional si el producto tiene costo por defecto)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/purchases [post]
func (h *LedgerHandler) RegisterPurchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.Purchase(c.Context(), GetBusinessID(c), GetUserID(c), ledger.PurchaseInput{
		SKU:          in.SKU,
		Quantity:     in.Quantity,
		UnitCost:     in.UnitCost,
		LocationCode: in.LocationCode,
		MovementDate: in.MovementDate,
		Note:         in.Note,
		LotCode:      in.LotCode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(result))
}

// RegisterSale godoc
// @Summary      Registrar venta (consume lotes FIFO)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SaleRequest  true  "sku, quantity, unit_price (opcional si el producto tiene precio por defecto)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/sales [post]
func (h *LedgerHandler) RegisterSale(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.Sale(c.Context(), GetBusinessID(c), GetUserID(c), ledger.SaleInput{
		SKU:          in.SKU,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		LocationCode: in.LocationCode,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(result))
}

// RegisterAdjustment godoc
// @Summary      Registrar ajuste manual (delta con signo)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AdjustmentRequest  true  "sku, delta, unit_cost (requerido si delta > 0)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments [post]
func (h *LedgerHandler) RegisterAdjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.Adjustment(c.Context(), GetBusinessID(c), GetUserID(c), ledger.AdjustmentInput{
		SKU:          in.SKU,
		Delta:        in.Delta,
		UnitCost:     in.UnitCost,
		LocationCode: in.LocationCode,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(result))
}

// RegisterSupplierReturn godoc
// @Summary      Registrar devolución a proveedor contra un lote puntual
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SupplierReturnRequest  true  "sku, lot_code, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/returns [post]
func (h *LedgerHandler) RegisterSupplierReturn(c *fiber.Ctx) error {
	var in dto.SupplierReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.SupplierReturn(c.Context(), GetBusinessID(c), GetUserID(c), ledger.SupplierReturnInput{
		SKU:          in.SKU,
		LotCode:      in.LotCode,
		Quantity:     in.Quantity,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(result))
}

// UpdatePurchase godoc
// @Summary      Editar compra (reconstruye la historia del producto)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                        true  "movement id"
// @Param        body  body      dto.UpdatePurchaseRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/purchases/{id} [put]
func (h *LedgerHandler) UpdatePurchase(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	var in dto.UpdatePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.UpdatePurchase(c.Context(), GetBusinessID(c), ledger.UpdatePurchaseInput{
		MovementID:   id,
		SKU:          in.SKU,
		Quantity:     in.Quantity,
		UnitCost:     in.UnitCost,
		MovementDate: in.MovementDate,
		Note:         in.Note,
		LotCode:      in.LotCode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(result))
}

// UpdateSale godoc
// @Summary      Editar venta (reconstruye la historia del producto)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "movement id"
// @Param        body  body      dto.UpdateSaleRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/sales/{id} [put]
func (h *LedgerHandler) UpdateSale(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.UpdateSale(c.Context(), GetBusinessID(c), ledger.UpdateSaleInput{
		MovementID:   id,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(result))
}

// UpdateAdjustment godoc
// @Summary      Editar ajuste (reconstruye la historia del producto)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                          true  "movement id"
// @Param        body  body      dto.UpdateAdjustmentRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments/{id} [put]
func (h *LedgerHandler) UpdateAdjustment(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	var in dto.UpdateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.UpdateAdjustment(c.Context(), GetBusinessID(c), ledger.UpdateAdjustmentInput{
		MovementID:   id,
		Delta:        in.Delta,
		UnitCost:     in.UnitCost,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(result))
}

// DeletePurchase godoc
// @Summary      Eliminar compra (falla si su stock ya fue consumido)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "movement id"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/purchases/{id} [delete]
func (h *LedgerHandler) DeletePurchase(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeletePurchase(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "compra eliminada"})
}

// DeleteSale godoc
// @Summary      Eliminar venta (el stock vuelve a sus lotes)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "movement id"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/sales/{id} [delete]
func (h *LedgerHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeleteSale(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "venta eliminada"})
}

// DeleteAdjustment godoc
// @Summary      Eliminar ajuste
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "movement id"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments/{id} [delete]
func (h *LedgerHandler) DeleteAdjustment(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeleteAdjustment(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "ajuste eliminado"})
}

// RebuildProduct godoc
// @Summary      Reconstruir lotes y asignaciones de un producto por replay
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        sku  path  string  true  "SKU del producto"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/rebuild/{sku} [post]
func (h *LedgerHandler) RebuildProduct(c *fiber.Ctx) error {
	if err := h.uc.RebuildProduct(c.Context(), GetBusinessID(c), c.Params("sku")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "producto reconstruido"})
}
