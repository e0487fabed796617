package repository

import (
	"context"
	"time"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// AlertRepository define el puerto de persistencia de alertas de stock.
// El chequeo "a lo sumo una sin resolver por sku+store" se hace contra la
// misma transacción de la mutación para evitar la carrera check-insert.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	// GetUnresolved devuelve la alerta abierta del sku+store o nil si no hay.
	GetUnresolved(ctx context.Context, skuID, storeID string) (*entity.Alert, error)
	Resolve(ctx context.Context, alertID string, at time.Time) error
	ListUnresolved(ctx context.Context, storeID string) ([]*entity.Alert, error)
}
