package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia por lote. El orden FIFO
// (received_at, expiry_at, id) lo garantiza ListOpen; el descuento de
// remanente es optimista por versión.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	// ListOpen devuelve los lotes con remanente > 0 de un sku+store en orden
	// FIFO total: received_at asc, expiry_at asc (nulos al final), id asc.
	ListOpen(ctx context.Context, skuID, storeID string) ([]*entity.Batch, error)
	// DecrementRemainingCAS resta qty del remanente condicionado a la versión
	// leída. Devuelve domain.ErrVersionConflict si la fila cambió.
	DecrementRemainingCAS(ctx context.Context, batch *entity.Batch, qty decimal.Decimal) error
	// ListBySKU incluye lotes agotados (auditoría / replay).
	ListBySKU(ctx context.Context, skuID, storeID string) ([]*entity.Batch, error)
	// ListAll recorre todos los lotes (replay del log).
	ListAll(ctx context.Context) ([]*entity.Batch, error)
}
