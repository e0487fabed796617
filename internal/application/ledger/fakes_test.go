package ledger_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/application/ledger"
	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ledger Store en memoria para tests: implementa los puertos de persistencia
// con la misma semántica observable que la implementación PostgreSQL (CAS por
// versión, todo-o-nada por transacción, orden FIFO en ListOpen).
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu sync.Mutex
	// catMu protege el catálogo (skus, recipes), que vive fuera del dominio
	// transaccional (no participa del snapshot/rollback) y puede consultarse
	// desde dentro de una tx sin bloquearse contra el mutex de Run.
	catMu   sync.Mutex
	skus    map[string]*entity.SKU
	recipes map[string]*entity.BOMRecipe
	records map[string]*entity.InventoryRecord // clave sku|store
	batches map[string]*entity.Batch
	tickets map[string]*entity.ReservationTicket
	txns    []*entity.LedgerTransaction
	txnIDs  map[string]bool
	alerts  map[string]*entity.Alert
}

func newMemStore() *memStore {
	return &memStore{
		skus:    make(map[string]*entity.SKU),
		recipes: make(map[string]*entity.BOMRecipe),
		records: make(map[string]*entity.InventoryRecord),
		batches: make(map[string]*entity.Batch),
		tickets: make(map[string]*entity.ReservationTicket),
		txnIDs:  make(map[string]bool),
		alerts:  make(map[string]*entity.Alert),
	}
}

func rkey(skuID, storeID string) string { return skuID + "|" + storeID }

// ── snapshot / restore: simulan el rollback de la transacción ────────────────

type memSnapshot struct {
	records map[string]*entity.InventoryRecord
	batches map[string]*entity.Batch
	tickets map[string]*entity.ReservationTicket
	txns    []*entity.LedgerTransaction
	txnIDs  map[string]bool
	alerts  map[string]*entity.Alert
}

func (s *memStore) snapshot() *memSnapshot {
	snap := &memSnapshot{
		records: make(map[string]*entity.InventoryRecord, len(s.records)),
		batches: make(map[string]*entity.Batch, len(s.batches)),
		tickets: make(map[string]*entity.ReservationTicket, len(s.tickets)),
		txns:    append([]*entity.LedgerTransaction(nil), s.txns...),
		txnIDs:  make(map[string]bool, len(s.txnIDs)),
		alerts:  make(map[string]*entity.Alert, len(s.alerts)),
	}
	for k, v := range s.records {
		snap.records[k] = copyRecord(v)
	}
	for k, v := range s.batches {
		snap.batches[k] = copyBatch(v)
	}
	for k, v := range s.tickets {
		snap.tickets[k] = copyTicket(v)
	}
	for k, v := range s.txnIDs {
		snap.txnIDs[k] = v
	}
	for k, v := range s.alerts {
		snap.alerts[k] = copyAlert(v)
	}
	return snap
}

func (s *memStore) restore(snap *memSnapshot) {
	s.records = snap.records
	s.batches = snap.batches
	s.tickets = snap.tickets
	s.txns = snap.txns
	s.txnIDs = snap.txnIDs
	s.alerts = snap.alerts
}

func copyRecord(r *entity.InventoryRecord) *entity.InventoryRecord {
	c := *r
	return &c
}

func copyBatch(b *entity.Batch) *entity.Batch {
	c := *b
	return &c
}

func copyTicket(t *entity.ReservationTicket) *entity.ReservationTicket {
	c := *t
	c.Lines = append([]entity.TicketLine(nil), t.Lines...)
	return &c
}

func copyAlert(a *entity.Alert) *entity.Alert {
	c := *a
	return &c
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

// Run serializa las transacciones con el mutex del store y revierte todo el
// estado si fn falla, igual que el rollback de una tx real.
func (s *memStore) Run(_ context.Context, fn func(
	recordRepo repository.InventoryRecordRepository,
	batchRepo repository.BatchRepository,
	ticketRepo repository.TicketRepository,
	txnRepo repository.TransactionRepository,
	alertRepo repository.AlertRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	err := fn(
		&memRecordRepo{s: s, inTx: true},
		&memBatchRepo{s: s, inTx: true},
		&memTicketRepo{s: s, inTx: true},
		&memTxnRepo{s: s, inTx: true},
		&memAlertRepo{s: s, inTx: true},
	)
	if err != nil {
		s.restore(snap)
	}
	return err
}

var _ ledger.TxRunner = (*memStore)(nil)

// lockUnless toma el mutex para repos atados al "pool"; los atados a la tx ya
// corren bajo el mutex de Run.
func (s *memStore) lockUnless(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ── InventoryRecordRepository ─────────────────────────────────────────────────

type memRecordRepo struct {
	s    *memStore
	inTx bool
}

func (r *memRecordRepo) Get(_ context.Context, skuID, storeID string) (*entity.InventoryRecord, error) {
	defer r.s.lockUnless(r.inTx)()
	rec, ok := r.s.records[rkey(skuID, storeID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (r *memRecordRepo) UpdateCAS(_ context.Context, rec *entity.InventoryRecord) error {
	defer r.s.lockUnless(r.inTx)()
	stored, ok := r.s.records[rkey(rec.SkuID, rec.StoreID)]
	if !ok || stored.Version != rec.Version {
		return domain.ErrVersionConflict
	}
	if !rec.Consistent() {
		return domain.ErrInsufficientStock
	}
	updated := copyRecord(rec)
	updated.Version++
	r.s.records[rkey(rec.SkuID, rec.StoreID)] = updated
	rec.Version++
	return nil
}

func (r *memRecordRepo) IncrementOnHand(_ context.Context, skuID, storeID string, qty decimal.Decimal) (*entity.InventoryRecord, error) {
	defer r.s.lockUnless(r.inTx)()
	key := rkey(skuID, storeID)
	rec, ok := r.s.records[key]
	if !ok {
		rec = &entity.InventoryRecord{SkuID: skuID, StoreID: storeID, Version: 0}
	}
	rec.OnHand = rec.OnHand.Add(qty)
	rec.Version++
	rec.UpdatedAt = time.Now()
	r.s.records[key] = rec
	return copyRecord(rec), nil
}

func (r *memRecordRepo) ListByStore(_ context.Context, storeID string, _, _ int) ([]*entity.InventoryRecord, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.InventoryRecord
	for _, rec := range r.s.records {
		if rec.StoreID == storeID {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

func (r *memRecordRepo) ListAll(_ context.Context) ([]*entity.InventoryRecord, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.InventoryRecord
	for _, rec := range r.s.records {
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

// ── BatchRepository ───────────────────────────────────────────────────────────

type memBatchRepo struct {
	s    *memStore
	inTx bool
}

func (r *memBatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	defer r.s.lockUnless(r.inTx)()
	if batch.Version == 0 {
		batch.Version = 1
	}
	r.s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (r *memBatchRepo) ListOpen(_ context.Context, skuID, storeID string) ([]*entity.Batch, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.Batch
	for _, b := range r.s.batches {
		if b.SkuID == skuID && b.StoreID == storeID && b.Remaining.GreaterThan(decimal.Zero) {
			out = append(out, copyBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		switch {
		case a.ExpiryAt == nil && b.ExpiryAt != nil:
			return false
		case a.ExpiryAt != nil && b.ExpiryAt == nil:
			return true
		case a.ExpiryAt != nil && b.ExpiryAt != nil && !a.ExpiryAt.Equal(*b.ExpiryAt):
			return a.ExpiryAt.Before(*b.ExpiryAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *memBatchRepo) DecrementRemainingCAS(_ context.Context, batch *entity.Batch, qty decimal.Decimal) error {
	defer r.s.lockUnless(r.inTx)()
	stored, ok := r.s.batches[batch.ID]
	if !ok || stored.Version != batch.Version {
		return domain.ErrVersionConflict
	}
	remaining := stored.Remaining.Sub(qty)
	if remaining.IsNegative() {
		return domain.ErrInsufficientBatchStock
	}
	stored.Remaining = remaining
	stored.Version++
	batch.Remaining = remaining
	batch.Version = stored.Version
	return nil
}

func (r *memBatchRepo) ListBySKU(_ context.Context, skuID, storeID string) ([]*entity.Batch, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.Batch
	for _, b := range r.s.batches {
		if b.SkuID == skuID && b.StoreID == storeID {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) ListAll(_ context.Context) ([]*entity.Batch, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.Batch
	for _, b := range r.s.batches {
		out = append(out, copyBatch(b))
	}
	return out, nil
}

// ── TicketRepository ──────────────────────────────────────────────────────────

type memTicketRepo struct {
	s    *memStore
	inTx bool
}

func (r *memTicketRepo) Create(_ context.Context, ticket *entity.ReservationTicket) error {
	defer r.s.lockUnless(r.inTx)()
	r.s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*entity.ReservationTicket, error) {
	defer r.s.lockUnless(r.inTx)()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyTicket(t), nil
}

func (r *memTicketRepo) UpdateStatusIfActive(_ context.Context, id, newStatus string) error {
	defer r.s.lockUnless(r.inTx)()
	t, ok := r.s.tickets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != entity.TicketStatusActive {
		return domain.ErrInvalidState
	}
	t.Status = newStatus
	t.UpdatedAt = time.Now()
	return nil
}

// ── TransactionRepository ─────────────────────────────────────────────────────

type memTxnRepo struct {
	s    *memStore
	inTx bool
}

func (r *memTxnRepo) Append(_ context.Context, tx *entity.LedgerTransaction) error {
	defer r.s.lockUnless(r.inTx)()
	if r.s.txnIDs[tx.ID] {
		return domain.ErrDuplicate
	}
	r.s.txnIDs[tx.ID] = true
	c := *tx
	c.Allocations = append([]entity.BatchAllocation(nil), tx.Allocations...)
	r.s.txns = append(r.s.txns, &c)
	return nil
}

func (r *memTxnRepo) ListAfter(_ context.Context, afterID string, limit int) ([]*entity.LedgerTransaction, error) {
	defer r.s.lockUnless(r.inTx)()
	start := 0
	if afterID != "" {
		for i, tx := range r.s.txns {
			if tx.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	var out []*entity.LedgerTransaction
	for i := start; i < len(r.s.txns) && len(out) < limit; i++ {
		c := *r.s.txns[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memTxnRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.LedgerTransaction, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.LedgerTransaction
	for _, tx := range r.s.txns {
		if tx.OrderID == orderID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── AlertRepository ───────────────────────────────────────────────────────────

type memAlertRepo struct {
	s    *memStore
	inTx bool
}

func (r *memAlertRepo) Create(_ context.Context, alert *entity.Alert) error {
	defer r.s.lockUnless(r.inTx)()
	r.s.alerts[alert.ID] = copyAlert(alert)
	return nil
}

func (r *memAlertRepo) GetUnresolved(_ context.Context, skuID, storeID string) (*entity.Alert, error) {
	defer r.s.lockUnless(r.inTx)()
	for _, a := range r.s.alerts {
		if a.SkuID == skuID && a.StoreID == storeID && a.ResolvedAt == nil {
			return copyAlert(a), nil
		}
	}
	return nil, nil
}

func (r *memAlertRepo) Resolve(_ context.Context, alertID string, at time.Time) error {
	defer r.s.lockUnless(r.inTx)()
	a, ok := r.s.alerts[alertID]
	if !ok {
		return domain.ErrNotFound
	}
	a.ResolvedAt = &at
	return nil
}

func (r *memAlertRepo) ListUnresolved(_ context.Context, storeID string) ([]*entity.Alert, error) {
	defer r.s.lockUnless(r.inTx)()
	var out []*entity.Alert
	for _, a := range r.s.alerts {
		if a.ResolvedAt == nil && (storeID == "" || a.StoreID == storeID) {
			out = append(out, copyAlert(a))
		}
	}
	return out, nil
}

// ── SKURepository / BOMRepository ─────────────────────────────────────────────

type memSKURepo struct{ s *memStore }

func (r *memSKURepo) Create(_ context.Context, sku *entity.SKU) error {
	r.s.catMu.Lock()
	defer r.s.catMu.Unlock()
	c := *sku
	r.s.skus[sku.ID] = &c
	return nil
}

func (r *memSKURepo) GetByID(_ context.Context, id string) (*entity.SKU, error) {
	r.s.catMu.Lock()
	defer r.s.catMu.Unlock()
	sku, ok := r.s.skus[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *sku
	return &c, nil
}

func (r *memSKURepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.SKU, error) {
	r.s.catMu.Lock()
	defer r.s.catMu.Unlock()
	out := make(map[string]*entity.SKU, len(ids))
	for _, id := range ids {
		if sku, ok := r.s.skus[id]; ok {
			c := *sku
			out[id] = &c
		}
	}
	return out, nil
}

type memBOMRepo struct{ s *memStore }

func (r *memBOMRepo) Upsert(_ context.Context, recipe *entity.BOMRecipe) error {
	r.s.catMu.Lock()
	defer r.s.catMu.Unlock()
	c := *recipe
	c.Lines = append([]entity.BOMLine(nil), recipe.Lines...)
	r.s.recipes[recipe.ProductID] = &c
	return nil
}

func (r *memBOMRepo) Get(_ context.Context, productID string) (*entity.BOMRecipe, error) {
	r.s.catMu.Lock()
	defer r.s.catMu.Unlock()
	recipe, ok := r.s.recipes[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *recipe
	c.Lines = append([]entity.BOMLine(nil), recipe.Lines...)
	return &c, nil
}

// ── Notifier de captura ───────────────────────────────────────────────────────

type captureNotifier struct {
	mu     sync.Mutex
	events []ledger.AlertEvent
}

func (n *captureNotifier) Publish(_ context.Context, event ledger.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) published() []ledger.AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ledger.AlertEvent(nil), n.events...)
}

// ── TxRunner que inyecta conflictos CAS ───────────────────────────────────────

type flakyTxRunner struct {
	inner    ledger.TxRunner
	failures int
}

func (f *flakyTxRunner) Run(ctx context.Context, fn func(
	repository.InventoryRecordRepository,
	repository.BatchRepository,
	repository.TicketRepository,
	repository.TransactionRepository,
	repository.AlertRepository,
) error) error {
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return domain.ErrVersionConflict
	}
	return f.inner.Run(ctx, fn)
}
