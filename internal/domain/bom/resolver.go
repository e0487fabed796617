package bom

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
)

// RecipeSource abstrae la consulta de recetas durante la expansión: un
// repositorio en producción, un mapa en tests. Devuelve domain.ErrNotFound
// cuando el id no tiene receta (es decir, es un SKU hoja).
type RecipeSource interface {
	Recipe(ctx context.Context, productID string) ([]Line, error)
}

// Line una línea de receta ya normalizada para el resolver.
type Line struct {
	ComponentID     string
	QuantityPerUnit decimal.Decimal
}

// Resolver expande pedidos de producto terminado a requerimientos por SKU
// componente (servicio de dominio, sin estado).
type Resolver struct {
	recipes RecipeSource
}

// NewResolver construye el resolver sobre una fuente de recetas.
func NewResolver(recipes RecipeSource) *Resolver {
	return &Resolver{recipes: recipes}
}

// Expand expande orderQty unidades de productID a un mapa skuID -> cantidad
// requerida exacta (sin redondear; ver Round). Las hojas alcanzadas por
// caminos distintos se fusionan sumando, de modo que el caller nunca ve el
// mismo SKU dos veces.
//
// Errores: domain.ErrRecipeNotFound si el producto raíz no tiene receta;
// domain.ErrCyclicBOM si la expansión revisita un producto del camino actual.
// El ciclo se detecta con DFS sobre el conjunto del camino (no un visited
// global), así los diamantes acíclicos siguen siendo válidos.
func (r *Resolver) Expand(ctx context.Context, productID string, orderQty decimal.Decimal) (map[string]decimal.Decimal, error) {
	if productID == "" || !orderQty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	lines, err := r.recipes.Recipe(ctx, productID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, productID)
		}
		return nil, err
	}

	reqs := make(map[string]decimal.Decimal)
	onPath := map[string]bool{productID: true}
	if err := r.walk(ctx, lines, orderQty, onPath, reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// walk recorre las líneas acumulando cantidad exacta por hoja. qtyPath es la
// cantidad acumulada a lo largo del camino (orderQty × cada quantityPerUnit).
func (r *Resolver) walk(ctx context.Context, lines []Line, qtyPath decimal.Decimal, onPath map[string]bool, reqs map[string]decimal.Decimal) error {
	for _, line := range lines {
		if onPath[line.ComponentID] {
			return fmt.Errorf("%w: %s", domain.ErrCyclicBOM, line.ComponentID)
		}
		required := qtyPath.Mul(line.QuantityPerUnit)

		sub, err := r.recipes.Recipe(ctx, line.ComponentID)
		if err != nil {
			if err == domain.ErrNotFound {
				// Hoja: acumular sin redondear; el redondeo se aplica una
				// sola vez al final (Round), nunca por paso intermedio.
				reqs[line.ComponentID] = reqs[line.ComponentID].Add(required)
				continue
			}
			return err
		}
		// Sub-ensamble: seguir bajando con el componente en el camino.
		onPath[line.ComponentID] = true
		if err := r.walk(ctx, sub, required, onPath, reqs); err != nil {
			return err
		}
		delete(onPath, line.ComponentID)
	}
	return nil
}

// Round redondea cada requerimiento hoja una única vez, half-up, a la
// precisión de presentación del SKU. precisionOf debe resolver la precisión
// de cada skuID presente en reqs.
func Round(reqs map[string]decimal.Decimal, precisionOf func(skuID string) int32) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(reqs))
	for skuID, qty := range reqs {
		// decimal.Round redondea half away from zero, que para cantidades
		// positivas equivale a half-up.
		out[skuID] = qty.Round(precisionOf(skuID))
	}
	return out
}
