package catalog

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
)

// Bulk operations mirror the single-entity write path with batch atomicity:
// every item is validated and its vector built before one storage
// transaction covers the whole batch, and the indexes are swapped only
// after that transaction commits. A batch either fully applies or leaves
// no trace.

// BulkCreateIngredients validates, persists, and indexes a batch of new
// ingredients. Zero ids are assigned fresh UUIDs.
func (s *Service) BulkCreateIngredients(ctx context.Context, ingredients []*model.Ingredient) error {
	if len(ingredients) == 0 {
		return apperrors.NewValidationError("data", "batch cannot be empty")
	}
	for _, ingredient := range ingredients {
		if err := validateIngredient(ingredient); err != nil {
			return err
		}
		if ingredient.ID == uuid.Nil {
			ingredient.ID = uuid.New()
		}
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	defer s.lockAll(ingredientIDs(ingredients))()

	fields := make([]map[string]string, len(ingredients))
	for i, ingredient := range ingredients {
		fields[i] = ingredient.WeightedFields()
		vec, err := s.builder.Build(model.EntityTypeIngredient, fields[i])
		if err != nil {
			return err
		}
		ingredient.SearchVector = vec
	}

	if err := s.store.InsertIngredients(ingredients); err != nil {
		return err
	}
	for i, ingredient := range ingredients {
		s.indexEntity(model.EntityTypeIngredient, ingredient.ID, fields[i], ingredient.SearchVector)
	}

	s.logger.InfoContext(ctx, "ingredients bulk created",
		"operation", "bulk_create_ingredients",
		"count", len(ingredients),
	)
	return nil
}

// BulkUpdateIngredients validates, persists, and reindexes a batch of
// existing ingredients. Every id must exist or nothing is written.
func (s *Service) BulkUpdateIngredients(ctx context.Context, ingredients []*model.Ingredient) error {
	if len(ingredients) == 0 {
		return apperrors.NewValidationError("data", "batch cannot be empty")
	}
	for _, ingredient := range ingredients {
		if ingredient.ID == uuid.Nil {
			return apperrors.NewValidationError("id", "id is required")
		}
		if err := validateIngredient(ingredient); err != nil {
			return err
		}
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	defer s.lockAll(ingredientIDs(ingredients))()

	fields := make([]map[string]string, len(ingredients))
	for i, ingredient := range ingredients {
		fields[i] = ingredient.WeightedFields()
		vec, err := s.builder.Build(model.EntityTypeIngredient, fields[i])
		if err != nil {
			return err
		}
		ingredient.SearchVector = vec
	}

	if err := s.store.UpdateIngredients(ingredients); err != nil {
		return err
	}
	for i, ingredient := range ingredients {
		s.indexEntity(model.EntityTypeIngredient, ingredient.ID, fields[i], ingredient.SearchVector)
	}

	s.logger.InfoContext(ctx, "ingredients bulk updated",
		"operation", "bulk_update_ingredients",
		"count", len(ingredients),
	)
	return nil
}

// BulkDeleteIngredients removes a batch of ingredients and all of their
// index state. Every id must exist or nothing is deleted.
func (s *Service) BulkDeleteIngredients(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return apperrors.NewValidationError("data", "batch cannot be empty")
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	defer s.lockAll(ids)()

	if err := s.store.DeleteIngredients(ids); err != nil {
		return err
	}
	for _, id := range ids {
		s.unindexEntity(model.EntityTypeIngredient, id)
	}

	s.logger.InfoContext(ctx, "ingredients bulk deleted",
		"operation", "bulk_delete_ingredients",
		"count", len(ids),
	)
	return nil
}

// BulkCreateFormulas validates, persists, and indexes a batch of new
// formulas.
func (s *Service) BulkCreateFormulas(ctx context.Context, formulas []*model.Formula) error {
	if len(formulas) == 0 {
		return apperrors.NewValidationError("data", "batch cannot be empty")
	}
	for _, formula := range formulas {
		if err := validateFormula(formula); err != nil {
			return err
		}
		if formula.ID == uuid.Nil {
			formula.ID = uuid.New()
		}
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	defer s.lockAll(formulaIDs(formulas))()

	fields := make([]map[string]string, len(formulas))
	for i, formula := range formulas {
		fields[i] = formula.WeightedFields()
		vec, err := s.builder.Build(model.EntityTypeFormula, fields[i])
		if err != nil {
			return err
		}
		formula.SearchVector = vec
	}

	if err := s.store.InsertFormulas(formulas); err != nil {
		return err
	}
	for i, formula := range formulas {
		s.indexEntity(model.EntityTypeFormula, formula.ID, fields[i], formula.SearchVector)
	}

	s.logger.InfoContext(ctx, "formulas bulk created",
		"operation", "bulk_create_formulas",
		"count", len(formulas),
	)
	return nil
}

// BulkUpdateFormulas validates, persists, and reindexes a batch of
// existing formulas. Every id must exist or nothing is written.
func (s *Service) BulkUpdateFormulas(ctx context.Context, formulas []*model.Formula) error {
	if len(formulas) == 0 {
		return apperrors.NewValidationError("data", "batch cannot be empty")
	}
	for _, formula := range formulas {
		if formula.ID == uuid.Nil {
			return apperrors.NewValidationError("id", "id is required")
		}
		if err := validateFormula(formula); err != nil {
			return err
		}
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	defer s.lockAll(formulaIDs(formulas))()

	fields := make([]map[string]string, len(formulas))
	for i, formula := range formulas {
		fields[i] = formula.WeightedFields()
		vec, err := s.builder.Build(model.EntityTypeFormula, fields[i])
		if err != nil {
			return err
		}
		formula.SearchVector = vec
	}

	if err := s.store.UpdateFormulas(formulas); err != nil {
		return err
	}
	for i, formula := range formulas {
		s.indexEntity(model.EntityTypeFormula, formula.ID, fields[i], formula.SearchVector)
	}

	s.logger.InfoContext(ctx, "formulas bulk updated",
		"operation", "bulk_update_formulas",
		"count", len(formulas),
	)
	return nil
}

// ListFormulasByIngredient returns every formula whose composition
// references the ingredient. The ingredient must exist.
func (s *Service) ListFormulasByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]model.Formula, error) {
	if _, err := s.store.GetIngredient(ingredientID); err != nil {
		return nil, err
	}

	key := ingredientID.String()
	matched := make([]model.Formula, 0)
	err := s.store.ForEachFormula(func(formula *model.Formula) error {
		if _, ok := formula.Ingredients[key]; ok {
			matched = append(matched, *formula)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matched, nil
}

func ingredientIDs(ingredients []*model.Ingredient) []uuid.UUID {
	ids := make([]uuid.UUID, len(ingredients))
	for i, ingredient := range ingredients {
		ids[i] = ingredient.ID
	}
	return ids
}

func formulaIDs(formulas []*model.Formula) []uuid.UUID {
	ids := make([]uuid.UUID, len(formulas))
	for i, formula := range formulas {
		ids[i] = formula.ID
	}
	return ids
}
