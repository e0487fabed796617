package repository

import (
	"context"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// BOMRepository define el puerto de persistencia para recetas (BOM).
type BOMRepository interface {
	// Upsert reemplaza la receta activa del producto (las líneas completas).
	Upsert(ctx context.Context, recipe *entity.BOMRecipe) error
	// Get devuelve la receta activa o domain.ErrNotFound.
	Get(ctx context.Context, productID string) (*entity.BOMRecipe, error)
}
