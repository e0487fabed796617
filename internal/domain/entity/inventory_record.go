package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord representa las cantidades agregadas de un SKU en una sede
// (clave sku+store). Se crea con la primera recepción de mercancía y nunca se
// borra; solo el Ledger Store lo muta.
//
// Invariantes: OnHand >= 0, Reserved >= 0, Reserved <= OnHand.
type InventoryRecord struct {
	SkuID    string
	StoreID  string
	OnHand   decimal.Decimal
	Reserved decimal.Decimal
	// Version para control de concurrencia optimista: cada UPDATE va
	// condicionado a que la versión leída no haya cambiado (CAS).
	Version   int64
	UpdatedAt time.Time
}

// Available cantidad libre para nuevas reservas: OnHand - Reserved.
func (r *InventoryRecord) Available() decimal.Decimal {
	return r.OnHand.Sub(r.Reserved)
}

// CanReserve verifica que haya disponible suficiente para reservar qty.
func (r *InventoryRecord) CanReserve(qty decimal.Decimal) bool {
	return r.Available().GreaterThanOrEqual(qty)
}

// Consistent verifica los invariantes del registro. Una violación nunca se
// corrige en silencio: se reporta como error de integridad.
func (r *InventoryRecord) Consistent() bool {
	return !r.OnHand.IsNegative() && !r.Reserved.IsNegative() && r.Reserved.LessThanOrEqual(r.OnHand)
}
