package repository

import (
	"context"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// TransactionRepository define el puerto del log append-only de inventario.
// Las entradas nunca se mutan ni se borran.
type TransactionRepository interface {
	Append(ctx context.Context, tx *entity.LedgerTransaction) error
	// ListAfter devuelve las transacciones en orden de inserción (created_at,
	// id) para reproducir el log; afterID vacío = desde el principio.
	ListAfter(ctx context.Context, afterID string, limit int) ([]*entity.LedgerTransaction, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.LedgerTransaction, error)
}
