package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
	"github.com/cineops/ledger-api/pkg/logger"
)

// ReceiveStockUseCase registra recepciones de mercancía: crea el lote, suma
// on_hand del registro agregado (creándolo en la primera recepción) y anota
// la transacción RECEIVE, todo en una sola tx. Es la única entrada de stock
// del ledger; sin ella el log no sería reproducible.
type ReceiveStockUseCase struct {
	txRunner TxRunner
	skuRepo  repository.SKURepository
	monitor  *AlertMonitor
	notifier AlertNotifier
	log      *logger.Logger
}

// NewReceiveStockUseCase construye el caso de uso.
func NewReceiveStockUseCase(txRunner TxRunner, skuRepo repository.SKURepository, notifier AlertNotifier, log *logger.Logger) *ReceiveStockUseCase {
	return &ReceiveStockUseCase{
		txRunner: txRunner,
		skuRepo:  skuRepo,
		monitor:  NewAlertMonitor(),
		notifier: notifier,
		log:      log,
	}
}

// ReceiveInput entrada de Receive.
type ReceiveInput struct {
	SkuID    string
	StoreID  string
	Quantity decimal.Decimal
	ExpiryAt *time.Time
}

// Receive aplica la recepción y devuelve el lote creado junto con el registro
// agregado resultante. Una recepción puede resolver una alerta abierta.
func (uc *ReceiveStockUseCase) Receive(ctx context.Context, input ReceiveInput) (*entity.Batch, *entity.InventoryRecord, error) {
	if input.SkuID == "" || input.StoreID == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidInput
	}
	sku, err := uc.skuRepo.GetByID(ctx, input.SkuID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, input.SkuID)
		}
		return nil, nil, err
	}

	now := time.Now()
	batch := &entity.Batch{
		ID:         uuid.New().String(),
		SkuID:      input.SkuID,
		StoreID:    input.StoreID,
		ReceivedAt: now,
		ExpiryAt:   input.ExpiryAt,
		Quantity:   input.Quantity,
		Remaining:  input.Quantity,
		CreatedAt:  now,
	}

	var rec *entity.InventoryRecord
	var event *AlertEvent
	err = uc.txRunner.Run(ctx, func(
		recordRepo repository.InventoryRecordRepository,
		batchRepo repository.BatchRepository,
		ticketRepo repository.TicketRepository,
		txnRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		var err error
		rec, err = recordRepo.IncrementOnHand(ctx, input.SkuID, input.StoreID, input.Quantity)
		if err != nil {
			return err
		}
		if err := batchRepo.Create(ctx, batch); err != nil {
			return err
		}
		if err := txnRepo.Append(ctx, &entity.LedgerTransaction{
			ID:          uuid.New().String(),
			SkuID:       input.SkuID,
			StoreID:     input.StoreID,
			Type:        entity.TxTypeReceive,
			Quantity:    input.Quantity,
			Allocations: []entity.BatchAllocation{{BatchID: batch.ID, Quantity: input.Quantity}},
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		event, err = uc.monitor.Evaluate(ctx, alertRepo, sku, rec, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if event != nil {
		if err := uc.notifier.Publish(ctx, *event); err != nil {
			uc.log.Warn().Err(err).Str("sku_id", event.SkuID).Msg("publicar evento de alerta")
		}
	}
	return batch, rec, nil
}
