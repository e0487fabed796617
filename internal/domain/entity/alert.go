package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severidades de alerta de stock.
const (
	AlertSeverityWarning  = "warning"  // available < umbral
	AlertSeverityCritical = "critical" // available < umbral/2
	// AlertSeverityIntegrity alerta diagnóstica: la contabilidad por lotes se
	// desvió del registro agregado. Distinta de un stock-out normal.
	AlertSeverityIntegrity = "integrity"
)

// Alert alerta de stock de seguridad para un sku+store. A lo sumo una alerta
// sin resolver por clave.
type Alert struct {
	ID               string
	SkuID            string
	StoreID          string
	Severity         string
	CurrentAvailable decimal.Decimal
	Threshold        decimal.Decimal
	CreatedAt        time.Time
	ResolvedAt       *time.Time // nil = sin resolver
}

// Resolved indica si la alerta ya fue resuelta.
func (a *Alert) Resolved() bool {
	return a.ResolvedAt != nil
}
