package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/application/finance"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// FinanceHandler maneja gastos operativos y retiros de dinero.
type FinanceHandler struct {
	uc *finance.FinanceUseCase
}

func NewFinanceHandler(uc *finance.FinanceUseCase) *FinanceHandler {
	return &FinanceHandler{uc: uc}
}

func toExpenseResponse(e *entity.OperatingExpense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Concept:     e.Concept,
		ExpenseDate: e.ExpenseDate,
	}
}

func toExtractionResponse(e *entity.MoneyExtraction) dto.ExtractionResponse {
	return dto.ExtractionResponse{
		ID:             e.ID,
		Party:          e.Party,
		Amount:         e.Amount,
		Concept:        e.Concept,
		ExtractionDate: e.ExtractionDate,
	}
}

// dateRange rango [start, end) de la query; por defecto el mes en curso.
func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, err
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, err
		}
		end = t
	}
	return start, end, nil
}

// CreateExpense godoc
// @Summary      Registrar gasto operativo
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ExpenseRequest  true  "amount, concept, expense_date opcional"
// @Success      201   {object}  dto.ExpenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/finance/expenses [post]
func (h *FinanceHandler) CreateExpense(c *fiber.Ctx) error {
	var in dto.ExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	expense, err := h.uc.CreateExpense(c.Context(), GetBusinessID(c), finance.ExpenseInput{
		Amount:      in.Amount,
		Concept:     in.Concept,
		ExpenseDate: in.ExpenseDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toExpenseResponse(expense))
}

// UpdateExpense godoc
// @Summary      Editar gasto operativo
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "id del gasto"
// @Param        body  body      dto.ExpenseRequest  true  "datos del gasto"
// @Success      200   {object}  dto.ExpenseResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/finance/expenses/{id} [put]
func (h *FinanceHandler) UpdateExpense(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badBody(c)
	}
	var in dto.ExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	expense, err := h.uc.UpdateExpense(c.Context(), GetBusinessID(c), id, finance.ExpenseInput{
		Amount:      in.Amount,
		Concept:     in.Concept,
		ExpenseDate: in.ExpenseDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toExpenseResponse(expense))
}

// DeleteExpense godoc
// @Summary      Eliminar gasto operativo
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "id del gasto"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/finance/expenses/{id} [delete]
func (h *FinanceHandler) DeleteExpense(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeleteExpense(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "gasto eliminado"})
}

// ListExpenses godoc
// @Summary      Listar gastos operativos de un rango (por defecto el mes en curso)
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        start  query  string  false  "fecha inicial RFC3339"
// @Param        end    query  string  false  "fecha final RFC3339"
// @Param        limit  query  int     false  "máximo de filas"
// @Success      200  {array}  dto.ExpenseResponse
// @Router       /api/finance/expenses [get]
func (h *FinanceHandler) ListExpenses(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return badBody(c)
	}
	expenses, err := h.uc.ListExpenses(c.Context(), GetBusinessID(c), start, end, c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return c.JSON(out)
}

// CreateExtraction godoc
// @Summary      Registrar retiro de dinero de un socio
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ExtractionRequest  true  "party, amount, concept y extraction_date opcionales"
// @Success      201   {object}  dto.ExtractionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/finance/extractions [post]
func (h *FinanceHandler) CreateExtraction(c *fiber.Ctx) error {
	var in dto.ExtractionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	extraction, err := h.uc.CreateExtraction(c.Context(), GetBusinessID(c), finance.ExtractionInput{
		Party:          in.Party,
		Amount:         in.Amount,
		Concept:        in.Concept,
		ExtractionDate: in.ExtractionDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toExtractionResponse(extraction))
}

// UpdateExtraction godoc
// @Summary      Editar retiro de dinero
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "id del retiro"
// @Param        body  body      dto.ExtractionRequest  true  "datos del retiro"
// @Success      200   {object}  dto.ExtractionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/finance/extractions/{id} [put]
func (h *FinanceHandler) UpdateExtraction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badBody(c)
	}
	var in dto.ExtractionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	extraction, err := h.uc.UpdateExtraction(c.Context(), GetBusinessID(c), id, finance.ExtractionInput{
		Party:          in.Party,
		Amount:         in.Amount,
		Concept:        in.Concept,
		ExtractionDate: in.ExtractionDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toExtractionResponse(extraction))
}

// DeleteExtraction godoc
// @Summary      Eliminar retiro de dinero
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "id del retiro"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/finance/extractions/{id} [delete]
func (h *FinanceHandler) DeleteExtraction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badBody(c)
	}
	if err := h.uc.DeleteExtraction(c.Context(), GetBusinessID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "retiro eliminado"})
}

// ListExtractions godoc
// @Summary      Listar retiros de un rango (por defecto el mes en curso)
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        start  query  string  false  "fecha inicial RFC3339"
// @Param        end    query  string  false  "fecha final RFC3339"
// @Param        limit  query  int     false  "máximo de filas"
// @Success      200  {array}  dto.ExtractionResponse
// @Router       /api/finance/extractions [get]
func (h *FinanceHandler) ListExtractions(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return badBody(c)
	}
	extractions, err := h.uc.ListExtractions(c.Context(), GetBusinessID(c), start, end, c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ExtractionResponse, 0, len(extractions))
	for _, e := range extractions {
		out = append(out, toExtractionResponse(e))
	}
	return c.JSON(out)
}
