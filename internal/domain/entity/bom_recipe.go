package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLine una línea de receta: cuánto de un componente requiere una unidad
// del producto. El componente puede ser a su vez un producto con receta
// (sub-ensamble), formando un DAG; los ciclos son inválidos y se detectan al
// expandir, no al editar.
type BOMLine struct {
	ComponentSkuID  string
	QuantityPerUnit decimal.Decimal
}

// BOMRecipe la receta activa de un producto terminado: lista ordenada de
// componentes con su cantidad por unidad.
type BOMRecipe struct {
	ProductID string
	Lines     []BOMLine
	UpdatedAt time.Time
}
