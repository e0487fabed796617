package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

// AvailabilityUseCase proyecciones de solo lectura del Ledger Store. Ningún
// caller muta cantidades por fuera de Reserve/Commit/Release; esta vista
// reemplaza cualquier "stock actual" calculado ad hoc en los clientes.
type AvailabilityUseCase struct {
	recordRepo repository.InventoryRecordRepository
	ticketRepo repository.TicketRepository
	alertRepo  repository.AlertRepository
}

// NewAvailabilityUseCase construye las consultas sobre repos atados al pool.
func NewAvailabilityUseCase(
	recordRepo repository.InventoryRecordRepository,
	ticketRepo repository.TicketRepository,
	alertRepo repository.AlertRepository,
) *AvailabilityUseCase {
	return &AvailabilityUseCase{recordRepo: recordRepo, ticketRepo: ticketRepo, alertRepo: alertRepo}
}

// GetAvailability devuelve on_hand/reserved/available del sku+store. Para un
// par sin recepciones devuelve el registro en cero, no un error.
func (uc *AvailabilityUseCase) GetAvailability(ctx context.Context, skuID, storeID string) (*entity.InventoryRecord, error) {
	if skuID == "" || storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.recordRepo.Get(ctx, skuID, storeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &entity.InventoryRecord{
				SkuID:    skuID,
				StoreID:  storeID,
				OnHand:   decimal.Zero,
				Reserved: decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListByStore lista los registros de una sede, paginado.
func (uc *AvailabilityUseCase) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.InventoryRecord, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.recordRepo.ListByStore(ctx, storeID, limit, offset)
}

// GetTicket devuelve un ticket por id (estado y líneas congeladas).
func (uc *AvailabilityUseCase) GetTicket(ctx context.Context, ticketID string) (*entity.ReservationTicket, error) {
	if ticketID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.ticketRepo.GetByID(ctx, ticketID)
}

// ListUnresolvedAlerts lista las alertas abiertas (storeID vacío = todas las sedes).
func (uc *AvailabilityUseCase) ListUnresolvedAlerts(ctx context.Context, storeID string) ([]*entity.Alert, error) {
	return uc.alertRepo.ListUnresolved(ctx, storeID)
}
