package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote nuevo (recepción de mercancía).
func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	query := `
		INSERT INTO inventory_batches (id, sku_id, store_id, received_at, expiry_at, quantity, remaining, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)`
	_, err := r.q.Exec(ctx, query,
		batch.ID, batch.SkuID, batch.StoreID, batch.ReceivedAt, batch.ExpiryAt,
		batch.Quantity, batch.Remaining, batch.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create batch: %w", err)
	}
	batch.Version = 1
	return nil
}

// ListOpen devuelve los lotes con remanente > 0 en orden FIFO total:
// received_at asc, expiry_at asc con nulos al final, id asc.
func (r *BatchRepo) ListOpen(ctx context.Context, skuID, storeID string) ([]*entity.Batch, error) {
	query := `
		SELECT id, sku_id, store_id, received_at, expiry_at, quantity, remaining, version, created_at
		FROM inventory_batches
		WHERE sku_id = $1 AND store_id = $2 AND remaining > 0
		ORDER BY received_at, expiry_at NULLS LAST, id`
	rows, err := r.q.Query(ctx, query, skuID, storeID)
	if err != nil {
		return nil, fmt.Errorf("list open batches: %w", err)
	}
	defer rows.Close()
	return scanBatches(rows)
}

// DecrementRemainingCAS resta qty del remanente condicionado a la versión
// leída. Cero filas afectadas = conflicto de versión.
func (r *BatchRepo) DecrementRemainingCAS(ctx context.Context, batch *entity.Batch, qty decimal.Decimal) error {
	query := `
		UPDATE inventory_batches
		SET remaining = remaining - $1, version = version + 1
		WHERE id = $2 AND version = $3`
	tag, err := r.q.Exec(ctx, query, qty, batch.ID, batch.Version)
	if err != nil {
		if isCheckViolation(err) {
			// Remanente quedaría fuera de [0, quantity]: deriva de lotes.
			return domain.ErrInsufficientBatchStock
		}
		return fmt.Errorf("decrement batch remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	batch.Remaining = batch.Remaining.Sub(qty)
	batch.Version++
	return nil
}

// ListBySKU incluye lotes agotados (auditoría).
func (r *BatchRepo) ListBySKU(ctx context.Context, skuID, storeID string) ([]*entity.Batch, error) {
	query := `
		SELECT id, sku_id, store_id, received_at, expiry_at, quantity, remaining, version, created_at
		FROM inventory_batches
		WHERE sku_id = $1 AND store_id = $2
		ORDER BY received_at, expiry_at NULLS LAST, id`
	rows, err := r.q.Query(ctx, query, skuID, storeID)
	if err != nil {
		return nil, fmt.Errorf("list batches by sku: %w", err)
	}
	defer rows.Close()
	return scanBatches(rows)
}

// ListAll recorre todos los lotes (replay del log).
func (r *BatchRepo) ListAll(ctx context.Context) ([]*entity.Batch, error) {
	query := `
		SELECT id, sku_id, store_id, received_at, expiry_at, quantity, remaining, version, created_at
		FROM inventory_batches ORDER BY id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all batches: %w", err)
	}
	defer rows.Close()
	return scanBatches(rows)
}

func scanBatches(rows pgx.Rows) ([]*entity.Batch, error) {
	var out []*entity.Batch
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(&b.ID, &b.SkuID, &b.StoreID, &b.ReceivedAt, &b.ExpiryAt, &b.Quantity, &b.Remaining, &b.Version, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
