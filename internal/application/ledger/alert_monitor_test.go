package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineops/ledger-api/internal/application/ledger"
	"github.com/cineops/ledger-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida de alertas de stock de seguridad, ejercitado a través de las
// mutaciones reales (recepción, reserva, release).
// ──────────────────────────────────────────────────────────────────────────────

func unresolvedAlerts(e *env) []*entity.Alert {
	var out []*entity.Alert
	for _, a := range e.store.alerts {
		if a.ResolvedAt == nil {
			out = append(out, a)
		}
	}
	return out
}

func reserveRound(t *testing.T, e *env, orderID, qty string) *entity.ReservationTicket {
	t.Helper()
	e.addRecipe("ronda-"+orderID, "whisky-ml", qty)
	ticket, err := e.uc.Reserve(context.Background(), ledger.ReserveInput{
		OrderID: orderID,
		StoreID: testStore,
		Lines:   []ledger.ProductLine{{ProductID: "ronda-" + orderID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	return ticket
}

// Cruce del umbral hacia abajo: alerta warning creada y evento publicado.
func TestAlertas_WarningAlCruzarUmbral(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")
	require.Empty(t, unresolvedAlerts(e), "con disponible 100 y umbral 50 no hay alerta")

	reserveRound(t, e, "p1", "60") // disponible 40 < 50

	open := unresolvedAlerts(e)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertSeverityWarning, open[0].Severity, "40 >= 25 (umbral/2): warning, no critical")
	assert.True(t, dec("40").Equal(open[0].CurrentAvailable))

	events := e.notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AlertSeverityWarning, events[0].Severity)
}

// Disponible por debajo de la mitad del umbral: severidad critical.
func TestAlertas_CriticalBajoMitadDelUmbral(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")

	reserveRound(t, e, "p1", "80") // disponible 20 < 25

	open := unresolvedAlerts(e)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertSeverityCritical, open[0].Severity)
}

// Con una alerta abierta, seguir bajando no duplica alertas.
func TestAlertas_NoDuplicaConAlertaAbierta(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")

	reserveRound(t, e, "p1", "60") // disponible 40: warning
	reserveRound(t, e, "p2", "20") // disponible 20: sigue la misma alerta

	assert.Len(t, unresolvedAlerts(e), 1, "a lo sumo una alerta abierta por sku+store")
	assert.Len(t, e.notifier.published(), 1, "sin alerta nueva no hay evento nuevo")
}

// Cruce hacia arriba: la alerta abierta se resuelve y se publica el evento de
// resolución.
func TestAlertas_SeResuelveAlRecuperarStock(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")

	ticket := reserveRound(t, e, "p1", "60") // disponible 40: warning
	require.Len(t, unresolvedAlerts(e), 1)

	require.NoError(t, e.uc.Release(context.Background(), ticket.ID)) // disponible 100

	assert.Empty(t, unresolvedAlerts(e), "disponible de vuelta sobre el umbral resuelve la alerta")

	events := e.notifier.published()
	require.Len(t, events, 2)
	assert.Equal(t, "resolved", events[1].Severity)

	// El historial conserva la alerta resuelta.
	assert.Len(t, e.store.alerts, 1)
}

// Una recepción también puede resolver la alerta (no solo release).
func TestAlertas_RecepcionResuelve(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")
	reserveRound(t, e, "p1", "60")
	require.Len(t, unresolvedAlerts(e), 1)

	e.receiveStock(t, "whisky-ml", "100") // disponible 140 >= 50

	assert.Empty(t, unresolvedAlerts(e))
}

// Tras resolverse, un nuevo cruce hacia abajo crea una alerta nueva.
func TestAlertas_NuevoCruceTrasResolucion(t *testing.T) {
	e := newEnv()
	e.addSKU("whisky-ml", 0, "50")
	e.receiveStock(t, "whisky-ml", "100")

	ticket := reserveRound(t, e, "p1", "60")
	require.NoError(t, e.uc.Release(context.Background(), ticket.ID))
	require.Empty(t, unresolvedAlerts(e))

	reserveRound(t, e, "p2", "70") // disponible 30: alerta nueva

	assert.Len(t, unresolvedAlerts(e), 1)
	assert.Len(t, e.store.alerts, 2, "la resuelta queda en el historial, la nueva abierta")
}
