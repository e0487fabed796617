package repository

import (
	"context"

	"github.com/cineops/ledger-api/internal/domain/entity"
)

// SKURepository define el puerto de persistencia para el maestro de SKUs que
// el ledger necesita (umbral de seguridad y precisión de redondeo).
type SKURepository interface {
	Create(ctx context.Context, sku *entity.SKU) error
	GetByID(ctx context.Context, id string) (*entity.SKU, error)
	// GetByIDs carga varios SKUs de una vez (expansión de BOM, reportes).
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.SKU, error)
}
