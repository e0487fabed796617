package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
	"github.com/cineops/ledger-api/pkg/logger"
)

// ReplayUseCase reproduce el log de transacciones de forma idempotente
// (deduplicando por id) y contrasta el estado reconstruido contra los
// registros y lotes persistidos. Como cada mutación confirma estado y log en
// la misma tx, una divergencia aquí es deriva de integridad, no un estado
// intermedio; se reporta, nunca se corrige en silencio.
type ReplayUseCase struct {
	txnRepo    repository.TransactionRepository
	recordRepo repository.InventoryRecordRepository
	batchRepo  repository.BatchRepository
	log        *logger.Logger
}

// NewReplayUseCase construye la auditoría de log.
func NewReplayUseCase(
	txnRepo repository.TransactionRepository,
	recordRepo repository.InventoryRecordRepository,
	batchRepo repository.BatchRepository,
	log *logger.Logger,
) *ReplayUseCase {
	return &ReplayUseCase{txnRepo: txnRepo, recordRepo: recordRepo, batchRepo: batchRepo, log: log}
}

// Drift una divergencia entre el estado reconstruido y el persistido.
type Drift struct {
	Kind     string // "on_hand", "reserved", "batch_remaining"
	Key      string // "sku/store" o id de lote
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

// ReplayReport resultado de la reproducción del log.
type ReplayReport struct {
	Transactions int
	Duplicates   int
	Drifts       []Drift
}

type recordState struct {
	onHand   decimal.Decimal
	reserved decimal.Decimal
}

const replayPageSize = 500

// Replay recorre el log completo en orden de inserción y devuelve el reporte.
func (uc *ReplayUseCase) Replay(ctx context.Context) (*ReplayReport, error) {
	report := &ReplayReport{}
	seen := make(map[string]bool)
	records := make(map[string]recordState)
	batchRemaining := make(map[string]decimal.Decimal)

	afterID := ""
	for {
		page, err := uc.txnRepo.ListAfter(ctx, afterID, replayPageSize)
		if err != nil {
			return nil, fmt.Errorf("leer log de transacciones: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, tx := range page {
			if seen[tx.ID] {
				report.Duplicates++
				continue
			}
			seen[tx.ID] = true
			report.Transactions++
			uc.apply(records, batchRemaining, tx)
		}
		afterID = page[len(page)-1].ID
		if len(page) < replayPageSize {
			break
		}
	}

	if err := uc.compareRecords(ctx, records, report); err != nil {
		return nil, err
	}
	if err := uc.compareBatches(ctx, batchRemaining, report); err != nil {
		return nil, err
	}

	for _, d := range report.Drifts {
		uc.log.Error().
			Str("kind", d.Kind).
			Str("key", d.Key).
			Str("expected", d.Expected.String()).
			Str("actual", d.Actual.String()).
			Msg("deriva de integridad detectada al reproducir el log")
	}
	return report, nil
}

// apply pliega una transacción sobre el estado reconstruido.
func (uc *ReplayUseCase) apply(records map[string]recordState, batchRemaining map[string]decimal.Decimal, tx *entity.LedgerTransaction) {
	key := tx.SkuID + "/" + tx.StoreID
	st := records[key]
	switch tx.Type {
	case entity.TxTypeReceive:
		st.onHand = st.onHand.Add(tx.Quantity)
		for _, a := range tx.Allocations {
			batchRemaining[a.BatchID] = batchRemaining[a.BatchID].Add(a.Quantity)
		}
	case entity.TxTypeReserve:
		st.reserved = st.reserved.Add(tx.Quantity)
	case entity.TxTypeRelease:
		st.reserved = st.reserved.Sub(tx.Quantity)
	case entity.TxTypeDeduct:
		st.onHand = st.onHand.Sub(tx.Quantity)
		st.reserved = st.reserved.Sub(tx.Quantity)
		for _, a := range tx.Allocations {
			batchRemaining[a.BatchID] = batchRemaining[a.BatchID].Sub(a.Quantity)
		}
	}
	records[key] = st
}

func (uc *ReplayUseCase) compareRecords(ctx context.Context, expected map[string]recordState, report *ReplayReport) error {
	stored, err := uc.recordRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("leer registros de inventario: %w", err)
	}
	for _, rec := range stored {
		key := rec.SkuID + "/" + rec.StoreID
		exp := expected[key]
		if !exp.onHand.Equal(rec.OnHand) {
			report.Drifts = append(report.Drifts, Drift{Kind: "on_hand", Key: key, Expected: exp.onHand, Actual: rec.OnHand})
		}
		if !exp.reserved.Equal(rec.Reserved) {
			report.Drifts = append(report.Drifts, Drift{Kind: "reserved", Key: key, Expected: exp.reserved, Actual: rec.Reserved})
		}
		delete(expected, key)
	}
	// Claves que el log conoce pero la tabla no: también son deriva.
	for key, exp := range expected {
		if !exp.onHand.IsZero() || !exp.reserved.IsZero() {
			report.Drifts = append(report.Drifts, Drift{Kind: "on_hand", Key: key, Expected: exp.onHand, Actual: decimal.Zero})
		}
	}
	return nil
}

func (uc *ReplayUseCase) compareBatches(ctx context.Context, expected map[string]decimal.Decimal, report *ReplayReport) error {
	stored, err := uc.batchRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("leer lotes: %w", err)
	}
	for _, b := range stored {
		exp := expected[b.ID]
		if !exp.Equal(b.Remaining) {
			report.Drifts = append(report.Drifts, Drift{Kind: "batch_remaining", Key: b.ID, Expected: exp, Actual: b.Remaining})
		}
		delete(expected, b.ID)
	}
	for id, exp := range expected {
		if !exp.IsZero() {
			report.Drifts = append(report.Drifts, Drift{Kind: "batch_remaining", Key: id, Expected: exp, Actual: decimal.Zero})
		}
	}
	return nil
}
