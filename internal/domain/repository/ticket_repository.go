package repository

import (
	"context"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// TicketRepository define el puerto de persistencia de tickets de reserva.
// La transición de estado es condicional (optimista): UpdateStatusIfActive
// solo escribe si el estado sigue ACTIVE, igual que un CAS sobre la fila.
type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.ReservationTicket) error
	GetByID(ctx context.Context, id string) (*entity.ReservationTicket, error)
	// UpdateStatusIfActive transiciona ACTIVE -> newStatus. Devuelve
	// domain.ErrInvalidState si el ticket ya está en estado terminal.
	UpdateStatusIfActive(ctx context.Context, id, newStatus string) error
}
