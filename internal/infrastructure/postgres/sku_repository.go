package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.SKURepository = (*SKURepo)(nil)

// SKURepo implementación sobre PostgreSQL (usable con pool o tx).
type SKURepo struct {
	q Querier
}

// NewSKURepository construye el adaptador. Pasar pool o tx (Querier).
func NewSKURepository(q Querier) *SKURepo {
	return &SKURepo{q: q}
}

// Create persiste un SKU.
func (r *SKURepo) Create(ctx context.Context, sku *entity.SKU) error {
	query := `
		INSERT INTO skus (id, name, unit, display_precision, safety_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		sku.ID, sku.Name, sku.Unit, sku.DisplayPrecision, sku.SafetyStockThreshold,
		sku.CreatedAt, sku.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create sku: %w", err)
	}
	return nil
}

// GetByID obtiene un SKU por id.
func (r *SKURepo) GetByID(ctx context.Context, id string) (*entity.SKU, error) {
	query := `
		SELECT id, name, unit, display_precision, safety_stock_threshold, created_at, updated_at
		FROM skus WHERE id = $1`
	var s entity.SKU
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Unit, &s.DisplayPrecision, &s.SafetyStockThreshold, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get sku: %w", err)
	}
	return &s, nil
}

// GetByIDs carga varios SKUs de una vez.
func (r *SKURepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.SKU, error) {
	query := `
		SELECT id, name, unit, display_precision, safety_stock_threshold, created_at, updated_at
		FROM skus WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get skus: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*entity.SKU, len(ids))
	for rows.Next() {
		var s entity.SKU
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.DisplayPrecision, &s.SafetyStockThreshold, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		out[s.ID] = &s
	}
	return out, rows.Err()
}
