package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductLineRequest una línea del pedido: producto terminado y cantidad.
type ProductLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ReserveRequest body para POST /api/ledger/reservations.
type ReserveRequest struct {
	OrderID string               `json:"order_id"`
	StoreID string               `json:"store_id"`
	Lines   []ProductLineRequest `json:"lines"`
}

// ReservedLineDTO un requerimiento congelado en el ticket.
type ReservedLineDTO struct {
	SkuID    string          `json:"sku_id"`
	StoreID  string          `json:"store_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReserveResponse respuesta de una reserva exitosa.
type ReserveResponse struct {
	TicketID      string            `json:"ticket_id"`
	ReservedLines []ReservedLineDTO `json:"reserved_lines"`
}

// BatchAllocationDTO desglose por lote dentro de una deducción.
type BatchAllocationDTO struct {
	BatchID  string          `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DeductionDTO resultado de descontar una línea congelada en commit.
type DeductionDTO struct {
	SkuID            string               `json:"sku_id"`
	StoreID          string               `json:"store_id"`
	Quantity         decimal.Decimal      `json:"quantity"`
	BatchAllocations []BatchAllocationDTO `json:"batch_allocations"`
}

// CommitResponse respuesta de POST /api/ledger/reservations/:id/commit.
type CommitResponse struct {
	Deductions []DeductionDTO `json:"deductions"`
}

// AvailabilityResponse proyección de lectura de GET /api/ledger/availability.
type AvailabilityResponse struct {
	SkuID     string          `json:"sku_id"`
	StoreID   string          `json:"store_id"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

// ReceiveStockRequest body para POST /api/inventory/receipts.
type ReceiveStockRequest struct {
	SkuID    string          `json:"sku_id"`
	StoreID  string          `json:"store_id"`
	Quantity decimal.Decimal `json:"quantity"`
	ExpiryAt *time.Time      `json:"expiry_at,omitempty"`
}

// ReceiveStockResponse lote creado por la recepción.
type ReceiveStockResponse struct {
	BatchID string          `json:"batch_id"`
	OnHand  decimal.Decimal `json:"on_hand"`
}

// TicketResponse proyección de un ticket de reserva.
type TicketResponse struct {
	TicketID  string            `json:"ticket_id"`
	OrderID   string            `json:"order_id"`
	Status    string            `json:"status"`
	Lines     []ReservedLineDTO `json:"lines"`
	CreatedAt time.Time         `json:"created_at"`
}

// AlertDTO proyección de una alerta de stock.
type AlertDTO struct {
	ID               string          `json:"id"`
	SkuID            string          `json:"sku_id"`
	StoreID          string          `json:"store_id"`
	Severity         string          `json:"severity"`
	CurrentAvailable decimal.Decimal `json:"current_available"`
	Threshold        decimal.Decimal `json:"threshold"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}
