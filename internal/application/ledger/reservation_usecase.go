package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/bom"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/inventory"
	"github.com/cineops/ledger-api/internal/domain/repository"
	"github.com/cineops/ledger-api/pkg/logger"
)

// ReservationUseCase orquesta reservar, liberar y confirmar (deducir)
// cantidades para un pedido como una transacción lógica: BOM Resolver para
// expandir, Batch Allocator para elegir lotes y Ledger Store para mutar.
// Cada operación es todo-o-nada sobre todas sus claves.
type ReservationUseCase struct {
	txRunner  TxRunner
	bomRepo   repository.BOMRepository
	skuRepo   repository.SKURepository
	alertRepo repository.AlertRepository // fuera de tx: solo alerta diagnóstica de integridad
	monitor   *AlertMonitor
	notifier  AlertNotifier
	retry     RetryPolicy
	log       *logger.Logger
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(
	txRunner TxRunner,
	bomRepo repository.BOMRepository,
	skuRepo repository.SKURepository,
	alertRepo repository.AlertRepository,
	notifier AlertNotifier,
	retry RetryPolicy,
	log *logger.Logger,
) *ReservationUseCase {
	return &ReservationUseCase{
		txRunner:  txRunner,
		bomRepo:   bomRepo,
		skuRepo:   skuRepo,
		alertRepo: alertRepo,
		monitor:   NewAlertMonitor(),
		notifier:  notifier,
		retry:     retry,
		log:       log,
	}
}

// ProductLine una línea del pedido: producto terminado y cantidad.
type ProductLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ReserveInput entrada de Reserve. StoreID es la sede del pedido.
type ReserveInput struct {
	OrderID string
	StoreID string
	Lines   []ProductLine
}

// Deduction resultado de descontar una línea congelada en Commit.
type Deduction struct {
	SkuID       string
	StoreID     string
	Quantity    decimal.Decimal
	Allocations []entity.BatchAllocation
}

// recipeSource adapta BOMRepository al puerto del resolver.
type recipeSource struct {
	repo repository.BOMRepository
}

func (s recipeSource) Recipe(ctx context.Context, productID string) ([]bom.Line, error) {
	recipe, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	lines := make([]bom.Line, 0, len(recipe.Lines))
	for _, l := range recipe.Lines {
		lines = append(lines, bom.Line{ComponentID: l.ComponentSkuID, QuantityPerUnit: l.QuantityPerUnit})
	}
	return lines, nil
}

// Reserve expande cada línea del pedido vía BOM, fusiona requerimientos en un
// mapa sku -> cantidad total, y reserva todo-o-nada: si una sola clave no
// tiene disponible suficiente, nada queda aplicado. Las claves se procesan
// en orden lexicográfico fijo para que tickets concurrentes con SKUs
// solapados no se bloqueen mutuamente en órdenes cruzados.
func (uc *ReservationUseCase) Reserve(ctx context.Context, input ReserveInput) (*entity.ReservationTicket, error) {
	if input.OrderID == "" || input.StoreID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range input.Lines {
		if l.ProductID == "" || !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	// Expansión BOM y fusión entre líneas (exacta, sin redondear aún).
	resolver := bom.NewResolver(recipeSource{uc.bomRepo})
	merged := make(map[string]decimal.Decimal)
	for _, l := range input.Lines {
		reqs, err := resolver.Expand(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, err
		}
		for skuID, qty := range reqs {
			merged[skuID] = merged[skuID].Add(qty)
		}
	}

	skus, err := uc.loadSKUs(ctx, keysOf(merged))
	if err != nil {
		return nil, err
	}
	// Redondeo half-up una sola vez, en la hoja, a la precisión del SKU.
	rounded := bom.Round(merged, func(skuID string) int32 {
		return skus[skuID].DisplayPrecision
	})

	ticket := &entity.ReservationTicket{
		ID:      uuid.New().String(),
		OrderID: input.OrderID,
		Status:  entity.TicketStatusActive,
		Lines:   frozenLines(rounded, input.StoreID),
	}

	var events []*AlertEvent
	attempt := func() error {
		events = events[:0]
		now := time.Now()
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		return uc.txRunner.Run(ctx, func(
			recordRepo repository.InventoryRecordRepository,
			batchRepo repository.BatchRepository,
			ticketRepo repository.TicketRepository,
			txnRepo repository.TransactionRepository,
			alertRepo repository.AlertRepository,
		) error {
			for _, line := range ticket.Lines {
				rec, err := recordRepo.Get(ctx, line.SkuID, line.StoreID)
				if err != nil {
					if errors.Is(err, domain.ErrNotFound) {
						// Sin recepción previa no hay disponible.
						return fmt.Errorf("%w: sku %s", domain.ErrInsufficientStock, line.SkuID)
					}
					return err
				}
				if !rec.CanReserve(line.Quantity) {
					return fmt.Errorf("%w: sku %s", domain.ErrInsufficientStock, line.SkuID)
				}
				rec.Reserved = rec.Reserved.Add(line.Quantity)
				rec.UpdatedAt = now
				if err := recordRepo.UpdateCAS(ctx, rec); err != nil {
					return err
				}
				if err := txnRepo.Append(ctx, &entity.LedgerTransaction{
					ID:        uuid.New().String(),
					SkuID:     line.SkuID,
					StoreID:   line.StoreID,
					Type:      entity.TxTypeReserve,
					Quantity:  line.Quantity,
					OrderID:   input.OrderID,
					CreatedAt: now,
				}); err != nil {
					return err
				}
				ev, err := uc.monitor.Evaluate(ctx, alertRepo, skus[line.SkuID], rec, now)
				if err != nil {
					return err
				}
				if ev != nil {
					events = append(events, ev)
				}
			}
			return ticketRepo.Create(ctx, ticket)
		})
	}

	if err := runWithRetry(ctx, uc.retry, attempt); err != nil {
		return nil, err
	}
	uc.publish(ctx, events)
	return ticket, nil
}

// Release libera las cantidades congeladas de un ticket Activo y lo deja
// RELEASED. Sobre un ticket no Activo falla con ErrInvalidState: un doble
// release nunca pasa por éxito.
func (uc *ReservationUseCase) Release(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return domain.ErrInvalidInput
	}

	var events []*AlertEvent
	attempt := func() error {
		events = events[:0]
		now := time.Now()
		return uc.txRunner.Run(ctx, func(
			recordRepo repository.InventoryRecordRepository,
			batchRepo repository.BatchRepository,
			ticketRepo repository.TicketRepository,
			txnRepo repository.TransactionRepository,
			alertRepo repository.AlertRepository,
		) error {
			ticket, err := ticketRepo.GetByID(ctx, ticketID)
			if err != nil {
				return err
			}
			if !ticket.IsActive() {
				return domain.ErrInvalidState
			}
			skus, err := uc.loadSKUs(ctx, lineSKUs(ticket.Lines))
			if err != nil {
				return err
			}
			for _, line := range ticket.Lines {
				rec, err := recordRepo.Get(ctx, line.SkuID, line.StoreID)
				if err != nil {
					return err
				}
				rec.Reserved = rec.Reserved.Sub(line.Quantity)
				rec.UpdatedAt = now
				if !rec.Consistent() {
					return fmt.Errorf("%w: release dejaría reserved negativo en sku %s", domain.ErrInsufficientBatchStock, line.SkuID)
				}
				if err := recordRepo.UpdateCAS(ctx, rec); err != nil {
					return err
				}
				if err := txnRepo.Append(ctx, &entity.LedgerTransaction{
					ID:        uuid.New().String(),
					SkuID:     line.SkuID,
					StoreID:   line.StoreID,
					Type:      entity.TxTypeRelease,
					Quantity:  line.Quantity,
					OrderID:   ticket.OrderID,
					CreatedAt: now,
				}); err != nil {
					return err
				}
				ev, err := uc.monitor.Evaluate(ctx, alertRepo, skus[line.SkuID], rec, now)
				if err != nil {
					return err
				}
				if ev != nil {
					events = append(events, ev)
				}
			}
			return ticketRepo.UpdateStatusIfActive(ctx, ticketID, entity.TicketStatusReleased)
		})
	}

	if err := runWithRetry(ctx, uc.retry, attempt); err != nil {
		return err
	}
	uc.publish(ctx, events)
	return nil
}

// Commit confirma la producción: por cada línea congelada elige lotes FIFO,
// descuenta on_hand y reserved, descuenta el remanente de los lotes elegidos
// y registra una transacción DEDUCT con el desglose. Usa siempre la cantidad
// congelada al reservar, nunca una re-expansión del BOM. Un intento fallido
// revierte completo: ningún consumo parcial de lote sobrevive.
func (uc *ReservationUseCase) Commit(ctx context.Context, ticketID string) ([]Deduction, error) {
	if ticketID == "" {
		return nil, domain.ErrInvalidInput
	}

	var events []*AlertEvent
	var deductions []Deduction
	var integrityKey *entity.TicketLine

	attempt := func() error {
		events = events[:0]
		deductions = deductions[:0]
		integrityKey = nil
		now := time.Now()
		return uc.txRunner.Run(ctx, func(
			recordRepo repository.InventoryRecordRepository,
			batchRepo repository.BatchRepository,
			ticketRepo repository.TicketRepository,
			txnRepo repository.TransactionRepository,
			alertRepo repository.AlertRepository,
		) error {
			ticket, err := ticketRepo.GetByID(ctx, ticketID)
			if err != nil {
				return err
			}
			if !ticket.IsActive() {
				return domain.ErrInvalidState
			}
			skus, err := uc.loadSKUs(ctx, lineSKUs(ticket.Lines))
			if err != nil {
				return err
			}
			for _, line := range ticket.Lines {
				rec, err := recordRepo.Get(ctx, line.SkuID, line.StoreID)
				if err != nil {
					return err
				}
				batches, err := batchRepo.ListOpen(ctx, line.SkuID, line.StoreID)
				if err != nil {
					return err
				}
				allocs, err := inventory.Allocate(batches, line.Quantity)
				if err != nil {
					if errors.Is(err, domain.ErrInsufficientBatchStock) {
						key := line
						integrityKey = &key
					}
					return err
				}
				rec.OnHand = rec.OnHand.Sub(line.Quantity)
				rec.Reserved = rec.Reserved.Sub(line.Quantity)
				rec.UpdatedAt = now
				if !rec.Consistent() {
					key := line
					integrityKey = &key
					return fmt.Errorf("%w: deducción dejaría cantidades negativas en sku %s", domain.ErrInsufficientBatchStock, line.SkuID)
				}
				if err := recordRepo.UpdateCAS(ctx, rec); err != nil {
					return err
				}
				byID := batchIndex(batches)
				for _, a := range allocs {
					if err := batchRepo.DecrementRemainingCAS(ctx, byID[a.BatchID], a.Quantity); err != nil {
						return err
					}
				}
				if err := txnRepo.Append(ctx, &entity.LedgerTransaction{
					ID:          uuid.New().String(),
					SkuID:       line.SkuID,
					StoreID:     line.StoreID,
					Type:        entity.TxTypeDeduct,
					Quantity:    line.Quantity,
					OrderID:     ticket.OrderID,
					Allocations: allocs,
					CreatedAt:   now,
				}); err != nil {
					return err
				}
				ev, err := uc.monitor.Evaluate(ctx, alertRepo, skus[line.SkuID], rec, now)
				if err != nil {
					return err
				}
				if ev != nil {
					events = append(events, ev)
				}
				deductions = append(deductions, Deduction{
					SkuID:       line.SkuID,
					StoreID:     line.StoreID,
					Quantity:    line.Quantity,
					Allocations: allocs,
				})
			}
			return ticketRepo.UpdateStatusIfActive(ctx, ticketID, entity.TicketStatusCommitted)
		})
	}

	if err := runWithRetry(ctx, uc.retry, attempt); err != nil {
		if errors.Is(err, domain.ErrInsufficientBatchStock) && integrityKey != nil {
			uc.raiseIntegrityAlert(ctx, *integrityKey)
		}
		return nil, err
	}
	uc.publish(ctx, events)
	return deductions, nil
}

// raiseIntegrityAlert levanta la alerta diagnóstica cuando la contabilidad
// por lotes se desvió del agregado. Corre fuera de la tx fallida (que ya fue
// revertida) y respeta la regla de una sola alerta abierta por clave.
func (uc *ReservationUseCase) raiseIntegrityAlert(ctx context.Context, line entity.TicketLine) {
	now := time.Now()
	open, err := uc.alertRepo.GetUnresolved(ctx, line.SkuID, line.StoreID)
	if err != nil {
		uc.log.Error().Err(err).Str("sku_id", line.SkuID).Msg("consultar alerta abierta para diagnóstico")
		return
	}
	if open == nil {
		alert := &entity.Alert{
			ID:               uuid.New().String(),
			SkuID:            line.SkuID,
			StoreID:          line.StoreID,
			Severity:         entity.AlertSeverityIntegrity,
			CurrentAvailable: decimal.Zero,
			Threshold:        decimal.Zero,
			CreatedAt:        now,
		}
		if err := uc.alertRepo.Create(ctx, alert); err != nil {
			uc.log.Error().Err(err).Str("sku_id", line.SkuID).Msg("crear alerta de integridad")
		}
	}
	uc.publish(ctx, []*AlertEvent{{
		SkuID:        line.SkuID,
		StoreID:      line.StoreID,
		Severity:     entity.AlertSeverityIntegrity,
		AvailableQty: decimal.Zero,
		Threshold:    decimal.Zero,
		Timestamp:    now,
	}})
	uc.log.Error().
		Str("sku_id", line.SkuID).
		Str("store_id", line.StoreID).
		Str("quantity", line.Quantity.String()).
		Msg("lotes desincronizados del registro agregado")
}

// publish envía los eventos acumulados tras el commit. Un fallo de
// publicación se registra pero no revierte la mutación (at-least-once).
func (uc *ReservationUseCase) publish(ctx context.Context, events []*AlertEvent) {
	for _, ev := range events {
		if err := uc.notifier.Publish(ctx, *ev); err != nil {
			uc.log.Warn().Err(err).
				Str("sku_id", ev.SkuID).
				Str("severity", ev.Severity).
				Msg("publicar evento de alerta")
		}
	}
}

// loadSKUs carga los SKUs referenciados y falla si alguno no existe.
func (uc *ReservationUseCase) loadSKUs(ctx context.Context, ids []string) (map[string]*entity.SKU, error) {
	skus, err := uc.skuRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if skus[id] == nil {
			return nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, id)
		}
	}
	return skus, nil
}

// frozenLines materializa el mapa fusionado en líneas congeladas, ordenadas
// lexicográficamente por (sku, store) para fijar el orden de adquisición.
func frozenLines(reqs map[string]decimal.Decimal, storeID string) []entity.TicketLine {
	lines := make([]entity.TicketLine, 0, len(reqs))
	for skuID, qty := range reqs {
		lines = append(lines, entity.TicketLine{SkuID: skuID, StoreID: storeID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].SkuID != lines[j].SkuID {
			return lines[i].SkuID < lines[j].SkuID
		}
		return lines[i].StoreID < lines[j].StoreID
	})
	return lines
}

func keysOf(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lineSKUs(lines []entity.TicketLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.SkuID)
	}
	return ids
}

func batchIndex(batches []*entity.Batch) map[string]*entity.Batch {
	byID := make(map[string]*entity.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	return byID
}
