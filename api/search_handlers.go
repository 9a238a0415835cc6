package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
	"github.com/tendelabs/catalog-search/services"
)

// maxPageSize caps list and search pages; larger requests are clamped.
const maxPageSize = 100

// SearchIngredientsHandler handles GET /api/v1/ingredients/search.
func (api *API) SearchIngredientsHandler(c *gin.Context) {
	api.searchHandler(c, model.EntityTypeIngredient)
}

// SearchFormulasHandler handles GET /api/v1/formulas/search. With
// include=ingredients the response carries the referenced ingredient
// resources under "included".
func (api *API) SearchFormulasHandler(c *gin.Context) {
	api.searchHandler(c, model.EntityTypeFormula)
}

// searchHandler parses the shared search query parameters, runs the
// search, and hydrates the ranked ids into full resources.
func (api *API) searchHandler(c *gin.Context, entityType model.EntityType) {
	query := services.SearchQuery{
		Query:    c.Query("q"),
		Type:     entityType,
		Page:     intQuery(c, "page", 1),
		PageSize: sizeQuery(c),
	}

	if raw, exists := c.GetQuery("similarity_threshold"); exists {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "similarity_threshold must be a number between 0 and 1"})
			return
		}
		query.SimilarityThreshold = &threshold
	}
	if raw, exists := c.GetQuery("max_distance"); exists {
		distance, err := strconv.Atoi(raw)
		if err != nil || distance < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_distance must be a non-negative integer"})
			return
		}
		query.MaxTypoDistance = &distance
	}

	includeIngredients := entityType == model.EntityTypeFormula && c.Query("include") == "ingredients"

	result, err := api.catalog.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	referenced := make(map[string]struct{})
	data := make([]gin.H, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var resource gin.H
		switch entityType {
		case model.EntityTypeIngredient:
			ingredient, err := api.catalog.GetIngredient(c.Request.Context(), hit.EntityID)
			if err != nil {
				// Deleted between ranking and hydration. Drop the hit.
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				respondError(c, err)
				return
			}
			resource = ingredientResource(ingredient)
		case model.EntityTypeFormula:
			formula, err := api.catalog.GetFormula(c.Request.Context(), hit.EntityID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				respondError(c, err)
				return
			}
			resource = formulaResource(formula)
			if includeIngredients {
				for ingredientID := range formula.Ingredients {
					referenced[ingredientID] = struct{}{}
				}
			}
		}

		match := gin.H{"kind": string(hit.Match), "score": hit.Score}
		if hit.Match == services.MatchFuzzy {
			match["similarity"] = hit.Similarity
		}
		resource["match"] = match
		data = append(data, resource)
	}

	response := gin.H{
		"data": data,
		"meta": gin.H{
			"query":    query.Query,
			"query_id": result.QueryID,
			"page":     result.Page,
			"size":     result.PageSize,
			"total":    result.Total,
			"took_ms":  result.Took,
		},
	}
	if includeIngredients {
		included, err := api.fetchIncludedIngredients(c, referenced)
		if err != nil {
			respondError(c, err)
			return
		}
		response["included"] = included
	}
	c.JSON(http.StatusOK, response)
}

// fetchIncludedIngredients hydrates the ingredient ids referenced by the
// returned formulas, in id order. Dangling references are skipped.
func (api *API) fetchIncludedIngredients(c *gin.Context, referenced map[string]struct{}) ([]gin.H, error) {
	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	included := make([]gin.H, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ingredient, err := api.catalog.GetIngredient(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		included = append(included, ingredientResource(ingredient))
	}
	return included, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func sizeQuery(c *gin.Context) int {
	size := intQuery(c, "size", 10)
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
