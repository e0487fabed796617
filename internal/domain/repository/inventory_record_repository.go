package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// InventoryRecordRepository define el puerto para el registro agregado de
// cantidades por sku+store. Las mutaciones son optimistas: UpdateCAS escribe
// condicionado a la versión leída y devuelve domain.ErrVersionConflict si la
// fila cambió entre lectura y escritura.
type InventoryRecordRepository interface {
	// Get devuelve el registro o domain.ErrNotFound si nunca hubo recepción.
	Get(ctx context.Context, skuID, storeID string) (*entity.InventoryRecord, error)
	// UpdateCAS persiste OnHand/Reserved si version no cambió; incrementa la
	// versión en la misma sentencia.
	UpdateCAS(ctx context.Context, rec *entity.InventoryRecord) error
	// IncrementOnHand crea el registro si no existe y suma qty a OnHand
	// (recepción de mercancía). Devuelve el registro resultante.
	IncrementOnHand(ctx context.Context, skuID, storeID string, qty decimal.Decimal) (*entity.InventoryRecord, error)
	// ListByStore lectura de proyección para disponibilidad por sede.
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.InventoryRecord, error)
	// ListAll recorre todos los registros (auditoría / replay).
	ListAll(ctx context.Context) ([]*entity.InventoryRecord, error)
}
