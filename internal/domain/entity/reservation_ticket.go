package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ticket de reserva. ACTIVE es el único estado no terminal:
// ACTIVE -> RELEASED | COMMITTED, y de ahí el ticket es inmutable.
const (
	TicketStatusActive    = "ACTIVE"
	TicketStatusReleased  = "RELEASED"
	TicketStatusCommitted = "COMMITTED"
)

// TicketLine requerimiento congelado al momento de reservar. La deducción en
// commit usa siempre estas cantidades, nunca una re-expansión del BOM, para
// que una edición de receta entre reserva y commit no desincronice ambos pasos.
type TicketLine struct {
	SkuID    string
	StoreID  string
	Quantity decimal.Decimal
}

// ReservationTicket registra la reserva pendiente de un pedido sobre el
// inventario: el mapa congelado de requerimientos y su estado.
type ReservationTicket struct {
	ID        string
	OrderID   string
	Status    string
	Lines     []TicketLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive indica si el ticket admite release o commit.
func (t *ReservationTicket) IsActive() bool {
	return t.Status == TicketStatusActive
}
