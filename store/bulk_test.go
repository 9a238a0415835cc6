package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
)

func TestInsertIngredientsBatch(t *testing.T) {
	store := newTestStore(t)

	batch := []*model.Ingredient{
		testIngredient("Flour"),
		testIngredient("Sugar"),
		testIngredient("Salt"),
	}
	require.NoError(t, store.InsertIngredients(batch))

	_, total, err := store.ListIngredients(1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestInsertIngredientsCollisionAbortsBatch(t *testing.T) {
	store := newTestStore(t)

	existing := testIngredient("Flour")
	require.NoError(t, store.InsertIngredient(existing))

	batch := []*model.Ingredient{
		testIngredient("Sugar"),
		{ID: existing.ID, Name: "Clash", Unit: "kg"},
	}
	err := store.InsertIngredients(batch)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	// Nothing from the failed batch survived.
	_, total, err := store.ListIngredients(1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdateIngredientsMissingIDAbortsBatch(t *testing.T) {
	store := newTestStore(t)

	existing := testIngredient("Flour")
	require.NoError(t, store.InsertIngredient(existing))

	ghost := testIngredient("Ghost")
	updated := *existing
	updated.Name = "Rye Flour"

	err := store.UpdateIngredients([]*model.Ingredient{&updated, ghost})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The existing ingredient was not partially updated.
	got, err := store.GetIngredient(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flour", got.Name)
}

func TestDeleteIngredientsBatch(t *testing.T) {
	store := newTestStore(t)

	first := testIngredient("Flour")
	second := testIngredient("Sugar")
	require.NoError(t, store.InsertIngredient(first))
	require.NoError(t, store.InsertIngredient(second))

	require.NoError(t, store.DeleteIngredients([]uuid.UUID{first.ID, second.ID}))

	_, total, err := store.ListIngredients(1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestDeleteIngredientsMissingIDAbortsBatch(t *testing.T) {
	store := newTestStore(t)

	existing := testIngredient("Flour")
	require.NoError(t, store.InsertIngredient(existing))

	err := store.DeleteIngredients([]uuid.UUID{existing.ID, uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Nothing was deleted.
	_, getErr := store.GetIngredient(existing.ID)
	assert.NoError(t, getErr)
}

func TestInsertAndUpdateFormulasBatch(t *testing.T) {
	store := newTestStore(t)

	batch := []*model.Formula{
		{ID: uuid.New(), Name: "Dough"},
		{ID: uuid.New(), Name: "Glaze"},
	}
	require.NoError(t, store.InsertFormulas(batch))

	batch[0].Description = "overnight rise"
	require.NoError(t, store.UpdateFormulas(batch))

	got, err := store.GetFormula(batch[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "overnight rise", got.Description)
}
