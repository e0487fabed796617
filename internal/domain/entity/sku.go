package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU representa un insumo o componente del inventario (botella de whisky,
// vaso, pieza de maíz, etc.). Los productos terminados viven en el catálogo
// externo; el ledger solo conoce SKUs y recetas.
type SKU struct {
	ID   string
	Name string
	Unit string // ml, g, unidad...
	// DisplayPrecision decimales de presentación del SKU; el BOM Resolver
	// redondea una sola vez, en la hoja, a esta precisión.
	DisplayPrecision int32
	// SafetyStockThreshold cantidad disponible por debajo de la cual se
	// levanta una alerta de stock de seguridad.
	SafetyStockThreshold decimal.Decimal
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
