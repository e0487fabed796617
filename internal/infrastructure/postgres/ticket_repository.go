package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

var _ repository.TicketRepository = (*TicketRepo)(nil)

// TicketRepo implementación sobre PostgreSQL (usable con pool o tx). Las
// líneas congeladas se guardan como JSONB: el ticket es inmutable salvo el
// estado, que transiciona con un UPDATE condicional.
type TicketRepo struct {
	q Querier
}

// NewTicketRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTicketRepository(q Querier) *TicketRepo {
	return &TicketRepo{q: q}
}

// ticketLineRow forma JSON de una línea congelada.
type ticketLineRow struct {
	SkuID    string          `json:"sku_id"`
	StoreID  string          `json:"store_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Create persiste el ticket con sus líneas congeladas.
func (r *TicketRepo) Create(ctx context.Context, ticket *entity.ReservationTicket) error {
	rows := make([]ticketLineRow, 0, len(ticket.Lines))
	for _, l := range ticket.Lines {
		rows = append(rows, ticketLineRow{SkuID: l.SkuID, StoreID: l.StoreID, Quantity: l.Quantity})
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal ticket lines: %w", err)
	}
	query := `
		INSERT INTO reservation_tickets (id, order_id, status, lines, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.q.Exec(ctx, query,
		ticket.ID, ticket.OrderID, ticket.Status, payload, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

// GetByID obtiene un ticket por id.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*entity.ReservationTicket, error) {
	query := `
		SELECT id, order_id, status, lines, created_at, updated_at
		FROM reservation_tickets WHERE id = $1`
	var t entity.ReservationTicket
	var payload []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.OrderID, &t.Status, &payload, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	var rows []ticketLineRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal ticket lines: %w", err)
	}
	t.Lines = make([]entity.TicketLine, 0, len(rows))
	for _, row := range rows {
		t.Lines = append(t.Lines, entity.TicketLine{SkuID: row.SkuID, StoreID: row.StoreID, Quantity: row.Quantity})
	}
	return &t, nil
}

// UpdateStatusIfActive transiciona ACTIVE -> newStatus de forma condicional:
// cero filas afectadas significa que el ticket ya estaba en estado terminal.
func (r *TicketRepo) UpdateStatusIfActive(ctx context.Context, id, newStatus string) error {
	query := `
		UPDATE reservation_tickets
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`
	tag, err := r.q.Exec(ctx, query, newStatus, id, entity.TicketStatusActive)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}
