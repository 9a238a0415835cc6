package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/model"
)

// BulkIngredientItem is one element of a bulk ingredient payload. The id
// is required for updates and ignored on creation.
type BulkIngredientItem struct {
	ID         string          `json:"id"`
	Attributes IngredientInput `json:"attributes"`
}

// BulkIngredientPayload is the envelope of the bulk ingredient endpoints.
type BulkIngredientPayload struct {
	Data []BulkIngredientItem `json:"data" binding:"required"`
}

// BulkFormulaItem is one element of a bulk formula payload.
type BulkFormulaItem struct {
	ID         string       `json:"id"`
	Attributes FormulaInput `json:"attributes"`
}

// BulkFormulaPayload is the envelope of the bulk formula endpoints.
type BulkFormulaPayload struct {
	Data []BulkFormulaItem `json:"data" binding:"required"`
}

// BulkDeletePayload lists the ids of a bulk delete.
type BulkDeletePayload struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data" binding:"required"`
}

// BulkCreateIngredientsHandler handles POST /api/v1/bulk/ingredients. The
// batch is atomic: one invalid item rejects the whole request.
func (api *API) BulkCreateIngredientsHandler(c *gin.Context) {
	var payload BulkIngredientPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ingredients := make([]*model.Ingredient, 0, len(payload.Data))
	for _, item := range payload.Data {
		ingredients = append(ingredients, &model.Ingredient{
			Name:        item.Attributes.Name,
			Unit:        item.Attributes.Unit,
			CostPerUnit: item.Attributes.CostPerUnit,
			Density:     item.Attributes.Density,
		})
	}
	if err := api.catalog.BulkCreateIngredients(c.Request.Context(), ingredients); err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(ingredients))
	for _, ingredient := range ingredients {
		data = append(data, ingredientResource(ingredient))
	}
	c.JSON(http.StatusCreated, gin.H{
		"data": data,
		"meta": gin.H{"total_count": len(data)},
	})
}

// BulkUpdateIngredientsHandler handles PATCH /api/v1/bulk/ingredients.
// Every id must exist or nothing is written.
func (api *API) BulkUpdateIngredientsHandler(c *gin.Context) {
	var payload BulkIngredientPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ingredients := make([]*model.Ingredient, 0, len(payload.Data))
	for _, item := range payload.Data {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id '" + item.ID + "': " + err.Error()})
			return
		}
		ingredients = append(ingredients, &model.Ingredient{
			ID:          id,
			Name:        item.Attributes.Name,
			Unit:        item.Attributes.Unit,
			CostPerUnit: item.Attributes.CostPerUnit,
			Density:     item.Attributes.Density,
		})
	}
	if err := api.catalog.BulkUpdateIngredients(c.Request.Context(), ingredients); err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(ingredients))
	for _, ingredient := range ingredients {
		data = append(data, ingredientResource(ingredient))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{"total_count": len(data)},
	})
}

// BulkDeleteIngredientsHandler handles DELETE /api/v1/bulk/ingredients.
// Every id must exist or nothing is deleted.
func (api *API) BulkDeleteIngredientsHandler(c *gin.Context) {
	var payload BulkDeletePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ids := make([]uuid.UUID, 0, len(payload.Data))
	for _, item := range payload.Data {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id '" + item.ID + "': " + err.Error()})
			return
		}
		ids = append(ids, id)
	}
	if err := api.catalog.BulkDeleteIngredients(c.Request.Context(), ids); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"deleted_count": len(ids)},
	})
}

// BulkCreateFormulasHandler handles POST /api/v1/bulk/formulas.
func (api *API) BulkCreateFormulasHandler(c *gin.Context) {
	var payload BulkFormulaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	formulas := make([]*model.Formula, 0, len(payload.Data))
	for _, item := range payload.Data {
		formulas = append(formulas, &model.Formula{
			Name:        item.Attributes.Name,
			Description: item.Attributes.Description,
			Ingredients: item.Attributes.Ingredients,
			Mass:        item.Attributes.Mass,
		})
	}
	if err := api.catalog.BulkCreateFormulas(c.Request.Context(), formulas); err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(formulas))
	for _, formula := range formulas {
		data = append(data, formulaResource(formula))
	}
	c.JSON(http.StatusCreated, gin.H{
		"data": data,
		"meta": gin.H{"total_count": len(data)},
	})
}

// BulkUpdateFormulasHandler handles PATCH /api/v1/bulk/formulas.
func (api *API) BulkUpdateFormulasHandler(c *gin.Context) {
	var payload BulkFormulaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	formulas := make([]*model.Formula, 0, len(payload.Data))
	for _, item := range payload.Data {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id '" + item.ID + "': " + err.Error()})
			return
		}
		formulas = append(formulas, &model.Formula{
			ID:          id,
			Name:        item.Attributes.Name,
			Description: item.Attributes.Description,
			Ingredients: item.Attributes.Ingredients,
			Mass:        item.Attributes.Mass,
		})
	}
	if err := api.catalog.BulkUpdateFormulas(c.Request.Context(), formulas); err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(formulas))
	for _, formula := range formulas {
		data = append(data, formulaResource(formula))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{"total_count": len(data)},
	})
}

// FormulasByIngredientHandler handles GET
// /api/v1/formulas/by-ingredient/:id.
func (api *API) FormulasByIngredientHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	formulas, err := api.catalog.ListFormulasByIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(formulas))
	for i := range formulas {
		data = append(data, formulaResource(&formulas[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{"total_count": len(data)},
	})
}
