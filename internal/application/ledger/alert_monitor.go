package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var two = decimal.NewFromInt(2)

// AlertMonitor evalúa el stock de seguridad después de cada mutación que
// cambia el disponible (RECEIVE, RESERVE, RELEASE, DEDUCT). Se invoca con el
// alertRepo atado a la misma tx de la mutación, así el chequeo
// "a lo sumo una alerta abierta por sku+store" no corre contra el insert.
type AlertMonitor struct{}

// NewAlertMonitor construye el monitor (sin estado).
func NewAlertMonitor() *AlertMonitor {
	return &AlertMonitor{}
}

// Evaluate aplica las reglas de alerta sobre el registro recién mutado:
//   - disponible < umbral y sin alerta abierta: crear (critical si además
//     disponible < umbral/2, warning si no).
//   - disponible >= umbral y alerta abierta: resolverla.
//
// Devuelve el evento a publicar tras el commit, o nil si no hubo cambio.
func (m *AlertMonitor) Evaluate(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	sku *entity.SKU,
	rec *entity.InventoryRecord,
	now time.Time,
) (*AlertEvent, error) {
	available := rec.Available()
	threshold := sku.SafetyStockThreshold

	open, err := alertRepo.GetUnresolved(ctx, rec.SkuID, rec.StoreID)
	if err != nil {
		return nil, err
	}

	if available.LessThan(threshold) {
		if open != nil {
			// Ya hay alerta abierta: no se duplica aunque el disponible siga bajando.
			return nil, nil
		}
		severity := entity.AlertSeverityWarning
		if available.LessThan(threshold.Div(two)) {
			severity = entity.AlertSeverityCritical
		}
		alert := &entity.Alert{
			ID:               uuid.New().String(),
			SkuID:            rec.SkuID,
			StoreID:          rec.StoreID,
			Severity:         severity,
			CurrentAvailable: available,
			Threshold:        threshold,
			CreatedAt:        now,
		}
		if err := alertRepo.Create(ctx, alert); err != nil {
			return nil, err
		}
		return &AlertEvent{
			SkuID:        rec.SkuID,
			StoreID:      rec.StoreID,
			Severity:     severity,
			AvailableQty: available,
			Threshold:    threshold,
			Timestamp:    now,
		}, nil
	}

	if open != nil {
		if err := alertRepo.Resolve(ctx, open.ID, now); err != nil {
			return nil, err
		}
		return &AlertEvent{
			SkuID:        rec.SkuID,
			StoreID:      rec.StoreID,
			Severity:     "resolved",
			AvailableQty: available,
			Threshold:    threshold,
			Timestamp:    now,
		}, nil
	}
	return nil, nil
}
