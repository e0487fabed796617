package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cineops/ledger-api/internal/application/dto"
	"github.com/cineops/ledger-api/internal/application/ledger"
	"github.com/cineops/ledger-api/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del motor de inventario:
// reservas, commits, releases, recepciones y consultas de disponibilidad.
type LedgerHandler struct {
	reservation  *ledger.ReservationUseCase
	receive      *ledger.ReceiveStockUseCase
	availability *ledger.AvailabilityUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(
	reservation *ledger.ReservationUseCase,
	receive *ledger.ReceiveStockUseCase,
	availability *ledger.AvailabilityUseCase,
) *LedgerHandler {
	return &LedgerHandler{reservation: reservation, receive: receive, availability: availability}
}

// Reserve godoc
// @Summary      Reservar componentes para un pedido
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "order_id, store_id, lines"
// @Success      201   {object}  dto.ReserveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/ledger/reservations [post]
func (h *LedgerHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]ledger.ProductLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ledger.ProductLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	ticket, err := h.reservation.Reserve(c.Context(), ledger.ReserveInput{
		OrderID: in.OrderID,
		StoreID: in.StoreID,
		Lines:   lines,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReserveResponse{
		TicketID:      ticket.ID,
		ReservedLines: toReservedLines(ticket.Lines),
	})
}

// Commit godoc
// @Summary      Confirmar producción: deducción FIFO de las cantidades congeladas
// @Tags         ledger
// @Produce      json
// @Param        id  path  string  true  "ticket id"
// @Success      200  {object}  dto.CommitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/ledger/reservations/{id}/commit [post]
func (h *LedgerHandler) Commit(c *fiber.Ctx) error {
	deductions, err := h.reservation.Commit(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.DeductionDTO, 0, len(deductions))
	for _, d := range deductions {
		allocs := make([]dto.BatchAllocationDTO, 0, len(d.Allocations))
		for _, a := range d.Allocations {
			allocs = append(allocs, dto.BatchAllocationDTO{BatchID: a.BatchID, Quantity: a.Quantity})
		}
		out = append(out, dto.DeductionDTO{
			SkuID:            d.SkuID,
			StoreID:          d.StoreID,
			Quantity:         d.Quantity,
			BatchAllocations: allocs,
		})
	}
	return c.JSON(dto.CommitResponse{Deductions: out})
}

// Release godoc
// @Summary      Liberar una reserva activa
// @Tags         ledger
// @Produce      json
// @Param        id  path  string  true  "ticket id"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/reservations/{id}/release [post]
func (h *LedgerHandler) Release(c *fiber.Ctx) error {
	if err := h.reservation.Release(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// GetTicket godoc
// @Summary      Consultar un ticket de reserva
// @Tags         ledger
// @Produce      json
// @Param        id  path  string  true  "ticket id"
// @Success      200  {object}  dto.TicketResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/reservations/{id} [get]
func (h *LedgerHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.availability.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.TicketResponse{
		TicketID:  ticket.ID,
		OrderID:   ticket.OrderID,
		Status:    ticket.Status,
		Lines:     toReservedLines(ticket.Lines),
		CreatedAt: ticket.CreatedAt,
	})
}

// GetAvailability godoc
// @Summary      Disponibilidad de un SKU en una sede
// @Tags         ledger
// @Produce      json
// @Param        sku_id    query  string  true  "SKU"
// @Param        store_id  query  string  true  "sede"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/availability [get]
func (h *LedgerHandler) GetAvailability(c *fiber.Ctx) error {
	rec, err := h.availability.GetAvailability(c.Context(), c.Query("sku_id"), c.Query("store_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		SkuID:     rec.SkuID,
		StoreID:   rec.StoreID,
		OnHand:    rec.OnHand,
		Reserved:  rec.Reserved,
		Available: rec.Available(),
	})
}

// ListStoreAvailability godoc
// @Summary      Registros de inventario de una sede, paginado
// @Tags         ledger
// @Produce      json
// @Param        store_id  path   string  true   "sede"
// @Param        limit     query  int     false  "máximo de filas"
// @Param        offset    query  int     false  "desplazamiento"
// @Success      200  {array}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/stores/{store_id}/availability [get]
func (h *LedgerHandler) ListStoreAvailability(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	records, err := h.availability.ListByStore(c.Context(), c.Params("store_id"), page.Limit, page.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.AvailabilityResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.AvailabilityResponse{
			SkuID:     rec.SkuID,
			StoreID:   rec.StoreID,
			OnHand:    rec.OnHand,
			Reserved:  rec.Reserved,
			Available: rec.Available(),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "records": out})
}

// ReceiveStock godoc
// @Summary      Registrar recepción de mercancía (crea lote)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "sku_id, store_id, quantity, expiry_at"
// @Success      201   {object}  dto.ReceiveStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *LedgerHandler) ReceiveStock(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	batch, rec, err := h.receive.Receive(c.Context(), ledger.ReceiveInput{
		SkuID:    in.SkuID,
		StoreID:  in.StoreID,
		Quantity: in.Quantity,
		ExpiryAt: in.ExpiryAt,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiveStockResponse{
		BatchID: batch.ID,
		OnHand:  rec.OnHand,
	})
}

// ListAlerts godoc
// @Summary      Alertas de stock sin resolver
// @Tags         ledger
// @Produce      json
// @Param        store_id  query  string  false  "filtrar por sede"
// @Success      200  {array}  dto.AlertDTO
// @Router       /api/ledger/alerts [get]
func (h *LedgerHandler) ListAlerts(c *fiber.Ctx) error {
	alerts, err := h.availability.ListUnresolvedAlerts(c.Context(), c.Query("store_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.AlertDTO{
			ID:               a.ID,
			SkuID:            a.SkuID,
			StoreID:          a.StoreID,
			Severity:         a.Severity,
			CurrentAvailable: a.CurrentAvailable,
			Threshold:        a.Threshold,
			CreatedAt:        a.CreatedAt,
			ResolvedAt:       a.ResolvedAt,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "alerts": out})
}

func toReservedLines(lines []entity.TicketLine) []dto.ReservedLineDTO {
	out := make([]dto.ReservedLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.ReservedLineDTO{SkuID: l.SkuID, StoreID: l.StoreID, Quantity: l.Quantity})
	}
	return out
}
