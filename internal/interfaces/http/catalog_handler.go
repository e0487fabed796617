package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cineops/ledger-api/internal/application/catalog"
	"github.com/cineops/ledger-api/internal/application/dto"
)

// CatalogHandler maneja los datos de referencia: SKUs y recetas BOM.
type CatalogHandler struct {
	catalog *catalog.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{catalog: uc}
}

// CreateSKU godoc
// @Summary      Registrar un SKU
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSKURequest  true  "id, name, unit, display_precision, safety_stock_threshold"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/catalog/skus [post]
func (h *CatalogHandler) CreateSKU(c *fiber.Ctx) error {
	var in dto.CreateSKURequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sku, err := h.catalog.CreateSKU(c.Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": sku.ID})
}

// UpsertRecipe godoc
// @Summary      Reemplazar la receta BOM de un producto
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpsertRecipeRequest  true  "product_id, lines"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/catalog/recipes [post]
func (h *CatalogHandler) UpsertRecipe(c *fiber.Ctx) error {
	var in dto.UpsertRecipeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	recipe, err := h.catalog.UpsertRecipe(c.Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"product_id": recipe.ProductID})
}
