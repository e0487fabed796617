package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. El cambio de estado, el append al log, el
// ticket y la alerta se confirman atómicamente: una caída entre ellos no es
// observable desde fuera.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		recordRepo repository.InventoryRecordRepository,
		batchRepo repository.BatchRepository,
		ticketRepo repository.TicketRepository,
		txnRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error) error
}

// AlertEvent evento publicado al colaborador de notificaciones cuando se crea
// o resuelve una alerta. Severity "resolved" marca resolución.
type AlertEvent struct {
	SkuID        string          `json:"sku_id"`
	StoreID      string          `json:"store_id"`
	Severity     string          `json:"severity"`
	AvailableQty decimal.Decimal `json:"available_qty"`
	Threshold    decimal.Decimal `json:"threshold"`
	Timestamp    time.Time       `json:"timestamp"`
}

// AlertNotifier puerto hacia el colaborador externo de notificaciones
// (webhook o cola). La publicación ocurre después del commit de la tx; la
// entrega es at-least-once y un fallo de publicación no revierte la mutación.
type AlertNotifier interface {
	Publish(ctx context.Context, event AlertEvent) error
}
