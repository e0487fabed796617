package dto

import "github.com/shopspring/decimal"

// CreateSKURequest body para POST /api/catalog/skus.
type CreateSKURequest struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Unit                 string          `json:"unit"`
	DisplayPrecision     int32           `json:"display_precision"`
	SafetyStockThreshold decimal.Decimal `json:"safety_stock_threshold"`
}

// RecipeLineRequest una línea de receta en el upsert.
type RecipeLineRequest struct {
	ComponentSkuID  string          `json:"component_sku_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// UpsertRecipeRequest body para POST /api/catalog/recipes. Reemplaza la
// receta activa completa del producto; los ciclos se detectan al expandir,
// no aquí, porque las recetas se editan de forma independiente.
type UpsertRecipeRequest struct {
	ProductID string              `json:"product_id"`
	Lines     []RecipeLineRequest `json:"lines"`
}
