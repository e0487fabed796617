package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineops/ledger-api/internal/application/catalog"
	"github.com/cineops/ledger-api/internal/application/dto"
	"github.com/cineops/ledger-api/internal/domain"
	"github.com/cineops/ledger-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeSKURepo struct {
	skus map[string]*entity.SKU
}

func (r *fakeSKURepo) Create(_ context.Context, sku *entity.SKU) error {
	if _, ok := r.skus[sku.ID]; ok {
		return domain.ErrDuplicate
	}
	r.skus[sku.ID] = sku
	return nil
}

func (r *fakeSKURepo) GetByID(_ context.Context, id string) (*entity.SKU, error) {
	sku, ok := r.skus[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sku, nil
}

func (r *fakeSKURepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.SKU, error) {
	out := make(map[string]*entity.SKU)
	for _, id := range ids {
		if sku, ok := r.skus[id]; ok {
			out[id] = sku
		}
	}
	return out, nil
}

type fakeBOMRepo struct {
	recipes map[string]*entity.BOMRecipe
}

func (r *fakeBOMRepo) Upsert(_ context.Context, recipe *entity.BOMRecipe) error {
	r.recipes[recipe.ProductID] = recipe
	return nil
}

func (r *fakeBOMRepo) Get(_ context.Context, productID string) (*entity.BOMRecipe, error) {
	recipe, ok := r.recipes[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

func newUC() (*catalog.CatalogUseCase, *fakeSKURepo, *fakeBOMRepo) {
	skuRepo := &fakeSKURepo{skus: make(map[string]*entity.SKU)}
	bomRepo := &fakeBOMRepo{recipes: make(map[string]*entity.BOMRecipe)}
	return catalog.NewCatalogUseCase(skuRepo, bomRepo), skuRepo, bomRepo
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// SKUs
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateSKU_Exitoso(t *testing.T) {
	uc, repo, _ := newUC()

	sku, err := uc.CreateSKU(context.Background(), dto.CreateSKURequest{
		ID: "whisky-ml", Name: "Whisky", Unit: "ml",
		DisplayPrecision: 0, SafetyStockThreshold: dec("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "whisky-ml", sku.ID)
	assert.NotNil(t, repo.skus["whisky-ml"])
}

func TestCreateSKU_Duplicado(t *testing.T) {
	uc, _, _ := newUC()

	req := dto.CreateSKURequest{ID: "whisky-ml", Name: "Whisky", Unit: "ml"}
	_, err := uc.CreateSKU(context.Background(), req)
	require.NoError(t, err)

	_, err = uc.CreateSKU(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateSKU_UmbralNegativoInvalido(t *testing.T) {
	uc, _, _ := newUC()

	_, err := uc.CreateSKU(context.Background(), dto.CreateSKURequest{
		ID: "x", Name: "X", Unit: "ml", SafetyStockThreshold: dec("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateSKU_CamposObligatorios(t *testing.T) {
	uc, _, _ := newUC()

	_, err := uc.CreateSKU(context.Background(), dto.CreateSKURequest{ID: "", Name: "X", Unit: "ml"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recetas
// ──────────────────────────────────────────────────────────────────────────────

func TestUpsertRecipe_ReemplazaCompleta(t *testing.T) {
	uc, _, bomRepo := newUC()

	_, err := uc.UpsertRecipe(context.Background(), dto.UpsertRecipeRequest{
		ProductID: "coctel",
		Lines:     []dto.RecipeLineRequest{{ComponentSkuID: "whisky-ml", QuantityPerUnit: dec("45")}},
	})
	require.NoError(t, err)

	_, err = uc.UpsertRecipe(context.Background(), dto.UpsertRecipeRequest{
		ProductID: "coctel",
		Lines:     []dto.RecipeLineRequest{{ComponentSkuID: "ron-ml", QuantityPerUnit: dec("60")}},
	})
	require.NoError(t, err)

	recipe := bomRepo.recipes["coctel"]
	require.Len(t, recipe.Lines, 1, "el upsert reemplaza la receta, no la acumula")
	assert.Equal(t, "ron-ml", recipe.Lines[0].ComponentSkuID)
}

func TestUpsertRecipe_AutoReferenciaEsCiclo(t *testing.T) {
	uc, _, _ := newUC()

	_, err := uc.UpsertRecipe(context.Background(), dto.UpsertRecipeRequest{
		ProductID: "coctel",
		Lines:     []dto.RecipeLineRequest{{ComponentSkuID: "coctel", QuantityPerUnit: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrCyclicBOM)
}

func TestUpsertRecipe_SinLineasInvalido(t *testing.T) {
	uc, _, _ := newUC()

	_, err := uc.UpsertRecipe(context.Background(), dto.UpsertRecipeRequest{ProductID: "coctel"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsertRecipe_CantidadNoPositivaInvalida(t *testing.T) {
	uc, _, _ := newUC()

	_, err := uc.UpsertRecipe(context.Background(), dto.UpsertRecipeRequest{
		ProductID: "coctel",
		Lines:     []dto.RecipeLineRequest{{ComponentSkuID: "whisky-ml", QuantityPerUnit: decimal.Zero}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
