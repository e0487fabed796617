package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
)

// Allocate selecciona de qué lotes descontar qty usando FIFO estricto
// (servicio de dominio, puro). Candidatos: lotes con remanente > 0 en orden
// total received_at asc, expiry_at asc (nulos al final), id asc; el orden
// total hace la asignación determinista y reproducible.
//
// Consume greedy desde el frente; el último lote tocado puede quedar
// parcialmente consumido. Si la suma de remanentes no alcanza qty devuelve
// domain.ErrInsufficientBatchStock: el caller lo trata como violación de
// integridad (el agregado on_hand prometía stock que los lotes no tienen),
// no como un stock-out normal.
func Allocate(batches []*entity.Batch, qty decimal.Decimal) ([]entity.BatchAllocation, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	candidates := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Remaining.GreaterThan(decimal.Zero) {
			candidates = append(candidates, b)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		if c := compareExpiry(a.ExpiryAt, b.ExpiryAt); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	var allocations []entity.BatchAllocation
	pending := qty
	for _, b := range candidates {
		if !pending.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(b.Remaining, pending)
		allocations = append(allocations, entity.BatchAllocation{BatchID: b.ID, Quantity: take})
		pending = pending.Sub(take)
	}
	if pending.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: faltan %s", domain.ErrInsufficientBatchStock, pending.String())
	}
	return allocations, nil
}

// compareExpiry ordena vencimientos ascendentes con los nulos al final.
func compareExpiry(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}
