package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pharmacy-register/internal/application/dto"
	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// RegisterHandler maneja las peticiones HTTP del registro de sustancias controladas (protegido).
type RegisterHandler struct {
	record  *register.RecordEntryUseCase
	query   *register.QueryUseCase
	sales   *register.SaleCompletionUseCase
	receipt *register.StockReceiptUseCase
}

// NewRegisterHandler construye el handler.
func NewRegisterHandler(
	record *register.RecordEntryUseCase,
	query *register.QueryUseCase,
	sales *register.SaleCompletionUseCase,
	receipt *register.StockReceiptUseCase,
) *RegisterHandler {
	return &RegisterHandler{record: record, query: query, sales: sales, receipt: receipt}
}

// CreateEntry godoc
// @Summary      Registrar asiento en el registro de controlados
// @Tags         register
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateEntryRequest  true  "Asiento; date vacío = ahora"
// @Success      201   {object}  dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ComplianceErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/register/entries [post]
func (h *RegisterHandler) CreateEntry(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.record.InsertFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateEntry godoc
// @Summary      Corregir asiento (patch parcial)
// @Tags         register
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true  "ID del asiento"
// @Param        body  body  dto.UpdateEntryRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ComplianceErrorResponse
// @Router       /api/register/entries/{id} [patch]
func (h *RegisterHandler) UpdateEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return badRequest(c, "INVALID_ID", "id debe ser numérico")
	}
	var in dto.UpdateEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.record.UpdateFromRequest(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetEntry godoc
// @Summary      Obtener asiento por ID
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del asiento"
// @Success      200  {object}  dto.EntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/register/entries/{id} [get]
func (h *RegisterHandler) GetEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return badRequest(c, "INVALID_ID", "id debe ser numérico")
	}
	e, err := h.query.GetEntry(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if e == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "asiento no encontrado"})
	}
	return c.JSON(register.ToEntryResponse(e))
}

// Balance godoc
// @Summary      Saldo actual de un producto
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/register/products/{id}/balance [get]
func (h *RegisterHandler) Balance(c *fiber.Ctx) error {
	productID := c.Params("id")
	balance, err := h.query.CurrentBalance(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ProductID: productID, Balance: balance})
}

// ProductEntries godoc
// @Summary      Asientos de un producto en un periodo
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del producto"
// @Param        from  query  string  false  "RFC3339, inclusivo"
// @Param        to    query  string  false  "RFC3339, inclusivo"
// @Success      200   {array}   dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/register/products/{id}/entries [get]
func (h *RegisterHandler) ProductEntries(c *fiber.Ctx) error {
	from, to, err := periodQuery(c)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "from/to deben ser RFC3339")
	}
	entries, err := h.query.History(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(register.ToEntryResponses(entries))
}

// Counts godoc
// @Summary      Conteo de asientos por tipo
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        type  query  string  false  "receipt, dispensing, return, destruction, adjustment, transfer_in, transfer_out"
// @Param        from  query  string  false  "RFC3339, inclusivo"
// @Param        to    query  string  false  "RFC3339, inclusivo"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/register/counts [get]
func (h *RegisterHandler) Counts(c *fiber.Ctx) error {
	from, to, err := periodQuery(c)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "from/to deben ser RFC3339")
	}
	var txType *entity.TransactionType
	if raw := c.Query("type"); raw != "" {
		t := entity.TransactionType(raw)
		txType = &t
	}
	n, err := h.query.CountByType(c.UserContext(), txType, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{TransactionType: c.Query("type"), Count: n})
}

// MonthlyReturn godoc
// @Summary      Retorno mensual PPB
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        year   query  int  true  "Año"
// @Param        month  query  int  true  "Mes 1-12"
// @Success      200    {object}  dto.MonthlyReturnResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/register/monthly-return [get]
func (h *RegisterHandler) MonthlyReturn(c *fiber.Ctx) error {
	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		return badRequest(c, "VALIDATION", "year y month son requeridos")
	}
	rows, err := h.query.MonthlyReturn(c.UserContext(), year, time.Month(month))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(register.ToMonthlyReturnResponse(year, month, rows))
}

// Recalculate godoc
// @Summary      Recalcular saldos de un producto
// @Tags         register
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.RecalculateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/register/products/{id}/recalculate [post]
func (h *RegisterHandler) Recalculate(c *fiber.Ctx) error {
	productID := c.Params("id")
	changed, err := h.record.Recalculate(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecalculateResponse{ProductID: productID, Changed: changed})
}

// RecordSale godoc
// @Summary      Registrar dispensación de una venta POS
// @Tags         register
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordSaleRequest  true  "Venta finalizada"
// @Success      201   {array}   dto.EntryResponse
// @Failure      422   {object}  dto.ComplianceErrorResponse
// @Router       /api/register/sales [post]
func (h *RegisterHandler) RecordSale(c *fiber.Ctx) error {
	var in dto.RecordSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.sales.RecordSaleFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RecordReceipt godoc
// @Summary      Registrar recepción o traslado
// @Tags         register
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordReceiptRequest  true  "Recepción o traslado"
// @Success      201   {array}   dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/register/receipts [post]
func (h *RegisterHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.RecordReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.receipt.RecordReceiptFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func entryID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// periodQuery lee from/to opcionales en RFC3339.
func periodQuery(c *fiber.Ctx) (from, to *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		raw := c.Query(key)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
