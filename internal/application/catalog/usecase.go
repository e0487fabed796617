package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cineops/ledger-api/internal/application/dto"
	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
	"github.com/cineops/ledger-api/internal/domain/repository"
)

// CatalogUseCase mantiene los datos de referencia que el ledger necesita:
// SKUs (umbral de seguridad, precisión) y recetas BOM. El catálogo completo
// de productos/precios vive en el sistema externo; aquí solo lo mínimo.
type CatalogUseCase struct {
	skuRepo repository.SKURepository
	bomRepo repository.BOMRepository
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(skuRepo repository.SKURepository, bomRepo repository.BOMRepository) *CatalogUseCase {
	return &CatalogUseCase{skuRepo: skuRepo, bomRepo: bomRepo}
}

// CreateSKU registra un SKU. El umbral de seguridad no puede ser negativo.
func (uc *CatalogUseCase) CreateSKU(ctx context.Context, in dto.CreateSKURequest) (*entity.SKU, error) {
	if in.ID == "" || in.Name == "" || in.Unit == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.DisplayPrecision < 0 || in.SafetyStockThreshold.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.skuRepo.GetByID(ctx, in.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	sku := &entity.SKU{
		ID:                   in.ID,
		Name:                 in.Name,
		Unit:                 in.Unit,
		DisplayPrecision:     in.DisplayPrecision,
		SafetyStockThreshold: in.SafetyStockThreshold,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := uc.skuRepo.Create(ctx, sku); err != nil {
		return nil, err
	}
	return sku, nil
}

// UpsertRecipe reemplaza la receta activa del producto. Los ciclos se
// detectan al expandir (las recetas se editan de forma independiente entre
// sí); aquí solo se valida la forma de las líneas.
func (uc *CatalogUseCase) UpsertRecipe(ctx context.Context, in dto.UpsertRecipeRequest) (*entity.BOMRecipe, error) {
	if in.ProductID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	lines := make([]entity.BOMLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.ComponentSkuID == "" || !l.QuantityPerUnit.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if l.ComponentSkuID == in.ProductID {
			// Auto-referencia directa: ciclo trivial, rechazable de inmediato.
			return nil, domain.ErrCyclicBOM
		}
		lines = append(lines, entity.BOMLine{ComponentSkuID: l.ComponentSkuID, QuantityPerUnit: l.QuantityPerUnit})
	}
	recipe := &entity.BOMRecipe{
		ProductID: in.ProductID,
		Lines:     lines,
		UpdatedAt: time.Now(),
	}
	if err := uc.bomRepo.Upsert(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}
