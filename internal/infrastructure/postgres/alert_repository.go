package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo implementación sobre PostgreSQL (usable con pool o tx). Un índice
// único parcial sobre (sku_id, store_id) WHERE resolved_at IS NULL respalda
// en BD la regla de una sola alerta abierta por clave.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

// Create inserta una alerta abierta.
func (r *AlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	query := `
		INSERT INTO inventory_alerts (id, sku_id, store_id, severity, current_available, threshold, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)`
	_, err := r.q.Exec(ctx, query,
		alert.ID, alert.SkuID, alert.StoreID, alert.Severity,
		alert.CurrentAvailable, alert.Threshold, alert.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// GetUnresolved devuelve la alerta abierta del sku+store o nil si no hay.
func (r *AlertRepo) GetUnresolved(ctx context.Context, skuID, storeID string) (*entity.Alert, error) {
	query := `
		SELECT id, sku_id, store_id, severity, current_available, threshold, created_at, resolved_at
		FROM inventory_alerts
		WHERE sku_id = $1 AND store_id = $2 AND resolved_at IS NULL`
	var a entity.Alert
	err := r.q.QueryRow(ctx, query, skuID, storeID).Scan(
		&a.ID, &a.SkuID, &a.StoreID, &a.Severity, &a.CurrentAvailable, &a.Threshold, &a.CreatedAt, &a.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unresolved alert: %w", err)
	}
	return &a, nil
}

// Resolve marca la alerta como resuelta.
func (r *AlertRepo) Resolve(ctx context.Context, alertID string, at time.Time) error {
	query := `UPDATE inventory_alerts SET resolved_at = $1 WHERE id = $2 AND resolved_at IS NULL`
	tag, err := r.q.Exec(ctx, query, at, alertID)
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnresolved lista las alertas abiertas (storeID vacío = todas las sedes).
func (r *AlertRepo) ListUnresolved(ctx context.Context, storeID string) ([]*entity.Alert, error) {
	query := `
		SELECT id, sku_id, store_id, severity, current_available, threshold, created_at, resolved_at
		FROM inventory_alerts
		WHERE resolved_at IS NULL AND ($1 = '' OR store_id = $1)
		ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list unresolved alerts: %w", err)
	}
	defer rows.Close()

	var out []*entity.Alert
	for rows.Next() {
		var a entity.Alert
		if err := rows.Scan(&a.ID, &a.SkuID, &a.StoreID, &a.Severity, &a.CurrentAvailable, &a.Threshold, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
