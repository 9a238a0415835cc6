package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
	"github.com/tendelabs/catalog-search/services"
	"github.com/tendelabs/catalog-search/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	backend, err := store.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	service, err := NewService(store.NewStore(backend), nil)
	require.NoError(t, err)
	return service
}

func searchIngredients(t *testing.T, service *Service, query string) services.SearchResult {
	t.Helper()
	result, err := service.Search(context.Background(), services.SearchQuery{
		Query: query,
		Type:  model.EntityTypeIngredient,
	})
	require.NoError(t, err)
	return result
}

func TestCreateIngredientIndexesImmediately(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	ingredient := &model.Ingredient{Name: "Sea Salt", Unit: "kg"}
	require.NoError(t, service.CreateIngredient(ctx, ingredient))
	assert.NotEqual(t, uuid.Nil, ingredient.ID)
	assert.NotEmpty(t, ingredient.SearchVector)

	result := searchIngredients(t, service, "salt")
	require.Equal(t, 1, result.Total)
	assert.Equal(t, ingredient.ID, result.Hits[0].EntityID)

	// The persisted copy carries the derived vector.
	stored, err := service.GetIngredient(ctx, ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, ingredient.SearchVector, stored.SearchVector)
}

func TestUpdateIngredientReplacesIndexState(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	ingredient := &model.Ingredient{Name: "Sea Salt", Unit: "kg"}
	require.NoError(t, service.CreateIngredient(ctx, ingredient))

	ingredient.Name = "Cane Sugar"
	require.NoError(t, service.UpdateIngredient(ctx, ingredient))

	assert.Equal(t, 0, searchIngredients(t, service, "salt").Total)
	assert.Equal(t, 1, searchIngredients(t, service, "sugar").Total)
}

func TestDeleteIngredientRemovesAllIndexState(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	ingredient := &model.Ingredient{Name: "Flour", Unit: "kg"}
	require.NoError(t, service.CreateIngredient(ctx, ingredient))
	require.NoError(t, service.DeleteIngredient(ctx, ingredient.ID))

	// Neither the lexical nor the fuzzy path may surface the deleted id.
	assert.Equal(t, 0, searchIngredients(t, service, "flour").Total)
	assert.Equal(t, 0, searchIngredients(t, service, "flur").Total)

	_, err := service.GetIngredient(ctx, ingredient.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestValidationFailureLeavesNoTrace(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	err := service.CreateIngredient(ctx, &model.Ingredient{Name: "", Unit: "kg"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = service.CreateIngredient(ctx, &model.Ingredient{Name: "Salt", Unit: ""})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, total, err := service.ListIngredients(ctx, services.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestCreateDuplicateIDFails(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	ingredient := &model.Ingredient{ID: uuid.New(), Name: "Salt", Unit: "kg"}
	require.NoError(t, service.CreateIngredient(ctx, ingredient))

	err := service.CreateIngredient(ctx, &model.Ingredient{ID: ingredient.ID, Name: "Other", Unit: "g"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	// The failed write must not have touched the index.
	assert.Equal(t, 0, searchIngredients(t, service, "other").Total)
}

func TestSearchUnknownEntityType(t *testing.T) {
	service := newTestService(t)

	_, err := service.Search(context.Background(), services.SearchQuery{
		Query: "salt",
		Type:  model.EntityType("recipe"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCollectionsAreIsolated(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.CreateIngredient(ctx, &model.Ingredient{Name: "Vanilla", Unit: "g"}))
	require.NoError(t, service.CreateFormula(ctx, &model.Formula{Name: "Vanilla Cream"}))

	ingredientResult := searchIngredients(t, service, "vanilla")
	assert.Equal(t, 1, ingredientResult.Total)

	formulaResult, err := service.Search(ctx, services.SearchQuery{
		Query: "vanilla",
		Type:  model.EntityTypeFormula,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, formulaResult.Total)
}

func TestFormulaLifecycle(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	formula := &model.Formula{
		Name:        "Vanilla Custard",
		Description: "slow cooked base",
		Ingredients: map[string]float64{"milk": 0.9},
	}
	require.NoError(t, service.CreateFormula(ctx, formula))

	// Description lexemes are searchable at the lower tier.
	result, err := service.Search(ctx, services.SearchQuery{Query: "cooked", Type: model.EntityTypeFormula})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	require.NoError(t, service.DeleteFormula(ctx, formula.ID))
	result, err = service.Search(ctx, services.SearchQuery{Query: "custard", Type: model.EntityTypeFormula})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestProvisionBuildsIndexesFromStoredEntities(t *testing.T) {
	backend, err := store.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	st := store.NewStore(backend)

	// Entity written before the service existed, without a derived vector.
	legacy := &model.Ingredient{ID: uuid.New(), Name: "Buckwheat", Unit: "kg"}
	require.NoError(t, st.InsertIngredient(legacy))

	service, err := NewService(st, nil)
	require.NoError(t, err)
	require.NoError(t, service.Provision(context.Background()))

	// reconcile_vectors backfilled the stored vector.
	stored, err := service.GetIngredient(context.Background(), legacy.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.SearchVector)

	// build_indexes made it searchable.
	assert.Equal(t, 1, searchIngredients(t, service, "buckwheat").Total)
}

func TestProvisionIsIdempotent(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.CreateIngredient(ctx, &model.Ingredient{Name: "Salt", Unit: "kg"}))

	require.NoError(t, service.Provision(ctx))
	first := searchIngredients(t, service, "salt")

	require.NoError(t, service.Provision(ctx))
	second := searchIngredients(t, service, "salt")

	assert.Equal(t, first.Total, second.Total)
	require.NotEmpty(t, second.Hits)
	assert.Equal(t, first.Hits[0].EntityID, second.Hits[0].EntityID)
}

func TestRebuildRestoresDroppedIndexState(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	ingredient := &model.Ingredient{Name: "Flour", Unit: "kg"}
	require.NoError(t, service.CreateIngredient(ctx, ingredient))

	// Wipe the in-memory indexes behind the service's back, then rebuild
	// from committed state.
	col := service.collections[model.EntityTypeIngredient]
	col.inverted.Remove(ingredient.ID)
	col.trigrams.Remove(ingredient.ID)
	require.Equal(t, 0, searchIngredients(t, service, "flour").Total)

	require.NoError(t, service.Rebuild(ctx))
	assert.Equal(t, 1, searchIngredients(t, service, "flour").Total)
}

func TestConcurrentWritesKeepIndexConsistent(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	const writers = 8
	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			done <- service.CreateIngredient(ctx, &model.Ingredient{Name: "Salt", Unit: "kg"})
		}()
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-done)
	}

	result := searchIngredients(t, service, "salt")
	assert.Equal(t, writers, result.Total)
}
