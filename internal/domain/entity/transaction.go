package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del ledger (log append-only, system-of-record para
// auditoría y recuperación).
const (
	TxTypeReceive = "RECEIVE" // recepción de mercancía (crea lote)
	TxTypeReserve = "RESERVE" // incrementa reserved
	TxTypeRelease = "RELEASE" // libera reserved
	TxTypeDeduct  = "DEDUCT"  // descuenta on_hand y reserved (con desglose por lote)
)

// BatchAllocation desglose de una deducción o recepción sobre un lote concreto.
type BatchAllocation struct {
	BatchID  string
	Quantity decimal.Decimal
}

// LedgerTransaction entrada inmutable del log de inventario. Nunca se muta ni
// se borra; los IDs se deduplican al reproducir el log tras una caída.
type LedgerTransaction struct {
	ID          string
	SkuID       string
	StoreID     string
	Type        string
	Quantity    decimal.Decimal
	OrderID     string // vacío en RECEIVE
	Allocations []BatchAllocation
	CreatedAt   time.Time
}
