package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cineops/ledger-api/internal/application/catalog"
	"github.com/cineops/ledger-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReservationUC  *ledger.ReservationUseCase
	ReceiveUC      *ledger.ReceiveStockUseCase
	AvailabilityUC *ledger.AvailabilityUseCase
	CatalogUC      *catalog.CatalogUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	ledgerHandler := NewLedgerHandler(deps.ReservationUC, deps.ReceiveUC, deps.AvailabilityUC)

	// Ledger: reservas, disponibilidad y alertas
	ledgerGroup := api.Group("/ledger")
	ledgerGroup.Post("/reservations", ledgerHandler.Reserve)
	ledgerGroup.Get("/reservations/:id", ledgerHandler.GetTicket)
	ledgerGroup.Post("/reservations/:id/commit", ledgerHandler.Commit)
	ledgerGroup.Post("/reservations/:id/release", ledgerHandler.Release)
	ledgerGroup.Get("/availability", ledgerHandler.GetAvailability)
	ledgerGroup.Get("/stores/:store_id/availability", ledgerHandler.ListStoreAvailability)
	ledgerGroup.Get("/alerts", ledgerHandler.ListAlerts)

	// Inventory: recepciones de mercancía (única entrada de stock)
	invGroup := api.Group("/inventory")
	invGroup.Post("/receipts", ledgerHandler.ReceiveStock)

	// Catalog: datos de referencia (SKUs y recetas)
	catalogGroup := api.Group("/catalog")
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	catalogGroup.Post("/skus", catalogHandler.CreateSKU)
	catalogGroup.Post("/recipes", catalogHandler.UpsertRecipe)
}
