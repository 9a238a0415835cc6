// Package api exposes the catalog service over HTTP using Gin. The derived
// search vector appears in responses as read-only metadata; the write DTOs
// simply have no field for it, so it can never be set by a client.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/model"
	"github.com/tendelabs/catalog-search/services"
)

// API holds dependencies for the HTTP handlers.
type API struct {
	catalog services.Catalog
}

// NewAPI creates the API handler structure.
func NewAPI(catalog services.Catalog) *API {
	return &API{catalog: catalog}
}

// SetupRoutes defines all routes.
func SetupRoutes(router *gin.Engine, catalog services.Catalog) {
	apiHandler := NewAPI(catalog)

	router.GET("/health", apiHandler.HealthCheckHandler)

	v1 := router.Group("/api/v1")
	{
		ingredientRoutes := v1.Group("/ingredients")
		{
			ingredientRoutes.POST("", apiHandler.CreateIngredientHandler)
			ingredientRoutes.GET("", apiHandler.ListIngredientsHandler)
			ingredientRoutes.GET("/search", apiHandler.SearchIngredientsHandler)
			ingredientRoutes.GET("/:id", apiHandler.GetIngredientHandler)
			ingredientRoutes.PUT("/:id", apiHandler.UpdateIngredientHandler)
			ingredientRoutes.DELETE("/:id", apiHandler.DeleteIngredientHandler)
		}

		formulaRoutes := v1.Group("/formulas")
		{
			formulaRoutes.POST("", apiHandler.CreateFormulaHandler)
			formulaRoutes.GET("", apiHandler.ListFormulasHandler)
			formulaRoutes.GET("/search", apiHandler.SearchFormulasHandler)
			formulaRoutes.GET("/by-ingredient/:id", apiHandler.FormulasByIngredientHandler)
			formulaRoutes.GET("/:id", apiHandler.GetFormulaHandler)
			formulaRoutes.PUT("/:id", apiHandler.UpdateFormulaHandler)
			formulaRoutes.DELETE("/:id", apiHandler.DeleteFormulaHandler)
		}

		bulkRoutes := v1.Group("/bulk")
		{
			bulkRoutes.POST("/ingredients", apiHandler.BulkCreateIngredientsHandler)
			bulkRoutes.PATCH("/ingredients", apiHandler.BulkUpdateIngredientsHandler)
			bulkRoutes.DELETE("/ingredients", apiHandler.BulkDeleteIngredientsHandler)
			bulkRoutes.POST("/formulas", apiHandler.BulkCreateFormulasHandler)
			bulkRoutes.PATCH("/formulas", apiHandler.BulkUpdateFormulasHandler)
		}

		v1.POST("/admin/reindex", apiHandler.ReindexHandler)
	}
}

// HealthCheckHandler reports liveness.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReindexHandler triggers the explicit blocking index rebuild.
func (api *API) ReindexHandler(c *gin.Context) {
	if err := api.catalog.Rebuild(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reindex completed"})
}

// IngredientInput is the write shape for ingredients. The derived search
// vector is intentionally not bindable.
type IngredientInput struct {
	Name        string   `json:"name" binding:"required"`
	Unit        string   `json:"unit" binding:"required"`
	CostPerUnit float64  `json:"cost_per_unit"`
	Density     *float64 `json:"density"`
}

// FormulaInput is the write shape for formulas.
type FormulaInput struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Ingredients map[string]float64 `json:"ingredients"`
	Mass        *float64           `json:"mass"`
}

// CreateIngredientHandler handles POST /api/v1/ingredients.
func (api *API) CreateIngredientHandler(c *gin.Context) {
	var input IngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ingredient := &model.Ingredient{
		Name:        input.Name,
		Unit:        input.Unit,
		CostPerUnit: input.CostPerUnit,
		Density:     input.Density,
	}
	if err := api.catalog.CreateIngredient(c.Request.Context(), ingredient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": ingredientResource(ingredient)})
}

// GetIngredientHandler handles GET /api/v1/ingredients/:id.
func (api *API) GetIngredientHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ingredient, err := api.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ingredientResource(ingredient)})
}

// ListIngredientsHandler handles GET /api/v1/ingredients with pagination
// and an optional name filter.
func (api *API) ListIngredientsHandler(c *gin.Context) {
	query := services.ListQuery{
		Page:       intQuery(c, "page", 1),
		Size:       sizeQuery(c),
		NameFilter: c.Query("name"),
	}
	ingredients, total, err := api.catalog.ListIngredients(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(ingredients))
	for i := range ingredients {
		data = append(data, ingredientResource(&ingredients[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{"page": query.Page, "size": query.Size, "total": total},
	})
}

// UpdateIngredientHandler handles PUT /api/v1/ingredients/:id.
func (api *API) UpdateIngredientHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input IngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ingredient := &model.Ingredient{
		ID:          id,
		Name:        input.Name,
		Unit:        input.Unit,
		CostPerUnit: input.CostPerUnit,
		Density:     input.Density,
	}
	if err := api.catalog.UpdateIngredient(c.Request.Context(), ingredient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ingredientResource(ingredient)})
}

// DeleteIngredientHandler handles DELETE /api/v1/ingredients/:id.
func (api *API) DeleteIngredientHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := api.catalog.DeleteIngredient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateFormulaHandler handles POST /api/v1/formulas.
func (api *API) CreateFormulaHandler(c *gin.Context) {
	var input FormulaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	formula := &model.Formula{
		Name:        input.Name,
		Description: input.Description,
		Ingredients: input.Ingredients,
		Mass:        input.Mass,
	}
	if err := api.catalog.CreateFormula(c.Request.Context(), formula); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": formulaResource(formula)})
}

// GetFormulaHandler handles GET /api/v1/formulas/:id.
func (api *API) GetFormulaHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	formula, err := api.catalog.GetFormula(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": formulaResource(formula)})
}

// ListFormulasHandler handles GET /api/v1/formulas with pagination.
func (api *API) ListFormulasHandler(c *gin.Context) {
	query := services.ListQuery{
		Page: intQuery(c, "page", 1),
		Size: sizeQuery(c),
	}
	formulas, total, err := api.catalog.ListFormulas(c.Request.Context(), query)
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
		"meta": gin.H{"page": query.Page, "size": query.Size, "total": total},
	})
}

// UpdateFormulaHandler handles PUT /api/v1/formulas/:id.
func (api *API) UpdateFormulaHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input FormulaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	formula := &model.Formula{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Ingredients: input.Ingredients,
		Mass:        input.Mass,
	}
	if err := api.catalog.UpdateFormula(c.Request.Context(), formula); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": formulaResource(formula)})
}

// DeleteFormulaHandler handles DELETE /api/v1/formulas/:id.
func (api *API) DeleteFormulaHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := api.catalog.DeleteFormula(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id: " + err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func ingredientResource(ingredient *model.Ingredient) gin.H {
	return gin.H{
		"id":   ingredient.ID.String(),
		"type": string(model.EntityTypeIngredient),
		"attributes": gin.H{
			"name":                  ingredient.Name,
			"unit":                  ingredient.Unit,
			"cost_per_unit":         ingredient.CostPerUnit,
			"density":               ingredient.Density,
			"derived_search_vector": ingredient.SearchVector,
		},
	}
}

func formulaResource(formula *model.Formula) gin.H {
	return gin.H{
		"id":   formula.ID.String(),
		"type": string(model.EntityTypeFormula),
		"attributes": gin.H{
			"name":                  formula.Name,
			"description":           formula.Description,
			"ingredients":           formula.Ingredients,
			"mass":                  formula.Mass,
			"derived_search_vector": formula.SearchVector,
		},
	}
}
