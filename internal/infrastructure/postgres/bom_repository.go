package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación sobre PostgreSQL (usable con pool o tx). Las líneas
// de la receta se guardan como JSONB en una sola fila por producto, así el
// upsert de la receta completa es una sentencia atómica.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// bomLineRow forma JSON de una línea dentro de la columna lines.
type bomLineRow struct {
	ComponentSkuID  string          `json:"component_sku_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// Upsert reemplaza la receta activa del producto.
func (r *BOMRepo) Upsert(ctx context.Context, recipe *entity.BOMRecipe) error {
	rows := make([]bomLineRow, 0, len(recipe.Lines))
	for _, l := range recipe.Lines {
		rows = append(rows, bomLineRow{ComponentSkuID: l.ComponentSkuID, QuantityPerUnit: l.QuantityPerUnit})
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal recipe lines: %w", err)
	}
	query := `
		INSERT INTO bom_recipes (product_id, lines, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, recipe.ProductID, payload, recipe.UpdatedAt); err != nil {
		return fmt.Errorf("upsert recipe: %w", err)
	}
	return nil
}

// Get devuelve la receta activa o domain.ErrNotFound.
func (r *BOMRepo) Get(ctx context.Context, productID string) (*entity.BOMRecipe, error) {
	query := `SELECT product_id, lines, updated_at FROM bom_recipes WHERE product_id = $1`
	var recipe entity.BOMRecipe
	var payload []byte
	err := r.q.QueryRow(ctx, query, productID).Scan(&recipe.ProductID, &payload, &recipe.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	var rows []bomLineRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal recipe lines: %w", err)
	}
	recipe.Lines = make([]entity.BOMLine, 0, len(rows))
	for _, row := range rows {
		recipe.Lines = append(recipe.Lines, entity.BOMLine{
			ComponentSkuID:  row.ComponentSkuID,
			QuantityPerUnit: row.QuantityPerUnit,
		})
	}
	return &recipe, nil
}
