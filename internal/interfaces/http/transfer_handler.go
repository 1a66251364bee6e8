package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
)

// TransferHandler maneja traslados de stock entre ubicaciones.
type TransferHandler struct {
	uc *ledger.LedgerUseCase
}

func NewTransferHandler(uc *ledger.LedgerUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

func toTransferResponse(r *ledger.TransferResult) dto.TransferResponse {
	resp := dto.TransferResponse{Ref: r.Ref}
	for _, line := range r.Lines {
		resp.Lines = append(resp.Lines, dto.TransferLineResponse{
			SKU:           line.SKU,
			Quantity:      line.Quantity,
			OutMovementID: line.OutMovementID,
			InMovementIDs: line.InMovementIDs,
			InLotCodes:    line.InLotCodes,
		})
	}
	return resp
}

// RegisterTransfer godoc
// @Summary      Enviar stock entre ubicaciones preservando costo y antigüedad
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransferRequest  true  "lines y to_location_code (from opcional, central por defecto)"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/transfers [post]
func (h *TransferHandler) RegisterTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]ledger.TransferLine, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, ledger.TransferLine{SKU: line.SKU, Quantity: line.Quantity})
	}
	result, err := h.uc.Transfer(c.Context(), GetBusinessID(c), GetUserID(c), ledger.TransferInput{
		FromLocationCode: in.FromLocationCode,
		ToLocationCode:   in.ToLocationCode,
		Lines:            lines,
		MovementDate:     in.MovementDate,
		Note:             in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(result))
}

// UpdateTransfer godoc
// @Summary      Editar traslado (acepta el id de salida o de cualquier entrada)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                        true  "movement id"
// @Param        body  body      dto.UpdateTransferRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/transfers/{id} [put]
func (h *TransferHandler) UpdateTransfer(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	var in dto.UpdateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.UpdateTransfer(c.Context(), GetBusinessID(c), GetUserID(c), ledger.UpdateTransferInput{
		MovementID:   id,
		Quantity:     in.Quantity,
		MovementDate: in.MovementDate,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(result))
}

// DeleteTransfer godoc
// @Summary      Eliminar traslado completo (salida y todas sus entradas)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "movement id de salida o de cualquier entrada"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/transfers/{id} [delete]
func (h *TransferHandler) DeleteTransfer(c *fiber.Ctx) error {
	id, err := movementID(c)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeleteTransfer(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "traslado eliminado"})
}
