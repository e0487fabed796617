package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
// Las mutaciones son optimistas: el UPDATE va condicionado a la versión leída
// y la incrementa en la misma sentencia.
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// Get obtiene el registro agregado de un sku+store.
func (r *InventoryRecordRepo) Get(ctx context.Context, skuID, storeID string) (*entity.InventoryRecord, error) {
	query := `
		SELECT sku_id, store_id, on_hand, reserved, version, updated_at
		FROM inventory_records WHERE sku_id = $1 AND store_id = $2`
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx, query, skuID, storeID).Scan(
		&rec.SkuID, &rec.StoreID, &rec.OnHand, &rec.Reserved, &rec.Version, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return &rec, nil
}

// UpdateCAS persiste OnHand/Reserved si la versión no cambió desde la
// lectura. Cero filas afectadas = conflicto de versión.
func (r *InventoryRecordRepo) UpdateCAS(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records
		SET on_hand = $1, reserved = $2, version = version + 1, updated_at = $3
		WHERE sku_id = $4 AND store_id = $5 AND version = $6`
	tag, err := r.q.Exec(ctx, query,
		rec.OnHand, rec.Reserved, rec.UpdatedAt, rec.SkuID, rec.StoreID, rec.Version,
	)
	if err != nil {
		if isCheckViolation(err) {
			// El CHECK de BD respalda el invariante; nunca se clampa en silencio.
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	rec.Version++
	return nil
}

// IncrementOnHand crea el registro si no existe (primera recepción) y suma
// qty a on_hand. El incremento es atómico en el upsert, no necesita CAS.
func (r *InventoryRecordRepo) IncrementOnHand(ctx context.Context, skuID, storeID string, qty decimal.Decimal) (*entity.InventoryRecord, error) {
	query := `
		INSERT INTO inventory_records (sku_id, store_id, on_hand, reserved, version, updated_at)
		VALUES ($1, $2, $3, 0, 1, now())
		ON CONFLICT (sku_id, store_id)
		DO UPDATE SET on_hand = inventory_records.on_hand + EXCLUDED.on_hand,
		              version = inventory_records.version + 1,
		              updated_at = now()
		RETURNING sku_id, store_id, on_hand, reserved, version, updated_at`
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx, query, skuID, storeID, qty).Scan(
		&rec.SkuID, &rec.StoreID, &rec.OnHand, &rec.Reserved, &rec.Version, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("increment on_hand: %w", err)
	}
	return &rec, nil
}

// ListByStore proyección de disponibilidad por sede.
func (r *InventoryRecordRepo) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT sku_id, store_id, on_hand, reserved, version, updated_at
		FROM inventory_records WHERE store_id = $1
		ORDER BY sku_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, storeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records by store: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListAll recorre todos los registros (auditoría / replay).
func (r *InventoryRecordRepo) ListAll(ctx context.Context) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT sku_id, store_id, on_hand, reserved, version, updated_at
		FROM inventory_records ORDER BY sku_id, store_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	for rows.Next() {
		var rec entity.InventoryRecord
		if err := rows.Scan(&rec.SkuID, &rec.StoreID, &rec.OnHand, &rec.Reserved, &rec.Version, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
