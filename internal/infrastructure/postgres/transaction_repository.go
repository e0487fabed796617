package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación del log append-only sobre PostgreSQL. La
// columna seq (bigserial) da el orden total de inserción para el replay; las
// filas nunca se actualizan ni se borran.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// allocationRow forma JSON de una asignación por lote.
type allocationRow struct {
	BatchID  string          `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Append inserta una entrada del log. Reinsertar el mismo id es ErrDuplicate
// (deduplicación para el replay idempotente).
func (r *TransactionRepo) Append(ctx context.Context, tx *entity.LedgerTransaction) error {
	var payload []byte
	if len(tx.Allocations) > 0 {
		rows := make([]allocationRow, 0, len(tx.Allocations))
		for _, a := range tx.Allocations {
			rows = append(rows, allocationRow{BatchID: a.BatchID, Quantity: a.Quantity})
		}
		var err error
		payload, err = json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshal allocations: %w", err)
		}
	}
	query := `
		INSERT INTO inventory_transactions (id, sku_id, store_id, type, quantity, order_id, allocations, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.SkuID, tx.StoreID, tx.Type, tx.Quantity, tx.OrderID, payload, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// ListAfter devuelve las transacciones en orden de inserción. afterID vacío
// arranca desde el principio.
func (r *TransactionRepo) ListAfter(ctx context.Context, afterID string, limit int) ([]*entity.LedgerTransaction, error) {
	query := `
		SELECT id, sku_id, store_id, type, quantity, COALESCE(order_id, ''), allocations, created_at
		FROM inventory_transactions
		WHERE seq > COALESCE((SELECT seq FROM inventory_transactions WHERE id = $1), 0)
		ORDER BY seq
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListByOrder devuelve las transacciones asociadas a un pedido.
func (r *TransactionRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.LedgerTransaction, error) {
	query := `
		SELECT id, sku_id, store_id, type, quantity, COALESCE(order_id, ''), allocations, created_at
		FROM inventory_transactions
		WHERE order_id = $1
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by order: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*entity.LedgerTransaction, error) {
	var out []*entity.LedgerTransaction
	for rows.Next() {
		var t entity.LedgerTransaction
		var payload []byte
		if err := rows.Scan(&t.ID, &t.SkuID, &t.StoreID, &t.Type, &t.Quantity, &t.OrderID, &payload, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if len(payload) > 0 {
			var allocs []allocationRow
			if err := json.Unmarshal(payload, &allocs); err != nil {
				return nil, fmt.Errorf("unmarshal allocations: %w", err)
			}
			t.Allocations = make([]entity.BatchAllocation, 0, len(allocs))
			for _, a := range allocs {
				t.Allocations = append(t.Allocations, entity.BatchAllocation{BatchID: a.BatchID, Quantity: a.Quantity})
			}
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
