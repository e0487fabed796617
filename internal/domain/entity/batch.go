package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch representa un lote recibido de un SKU en una sede. Los lotes agotados
// (Remaining = 0) se conservan para auditoría, nunca se borran.
//
// Invariante: 0 <= Remaining <= Quantity; la suma de Remaining de los lotes de
// un sku+store debe igualar el OnHand del registro agregado.
type Batch struct {
	ID         string
	SkuID      string
	StoreID    string
	ReceivedAt time.Time
	ExpiryAt   *time.Time // nil = sin vencimiento
	Quantity   decimal.Decimal
	Remaining  decimal.Decimal
	// Version para escrituras optimistas sobre Remaining.
	Version   int64
	CreatedAt time.Time
}

// Exhausted indica si el lote ya no tiene remanente.
func (b *Batch) Exhausted() bool {
	return b.Remaining.IsZero()
}
