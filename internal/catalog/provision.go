package catalog

import (
	"context"
	"reflect"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
)

// Provision runs the ordered setup steps: verify the storage schema
// marker, reconcile stored derived vectors with the current field weight
// policy, and build both search indexes from committed entity state. Each
// step is idempotent; running Provision twice yields identical state. A
// step failure stops the sequence and is fatal to provisioning.
func (s *Service) Provision(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ensure_schema", func(context.Context) error { return s.store.EnsureSchema() }},
		{"reconcile_vectors", s.reconcileVectors},
		{"build_indexes", s.Rebuild},
	}

	for _, step := range steps {
		s.logger.InfoContext(ctx, "provisioning step", "operation", "provision", "step", step.name)
		if err := step.run(ctx); err != nil {
			return apperrors.NewProvisionError(step.name, err)
		}
	}
	return nil
}

// reconcileVectors recomputes the derived search vector of every entity
// and persists those that differ from the stored value. This backfills
// entities written before the vector existed and repairs drift after a
// field weight policy change.
func (s *Service) reconcileVectors(ctx context.Context) error {
	var staleIngredients []*model.Ingredient
	err := s.store.ForEachIngredient(func(ingredient *model.Ingredient) error {
		vec, err := s.builder.Build(model.EntityTypeIngredient, ingredient.WeightedFields())
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(ingredient.SearchVector, vec) {
			stale := *ingredient
			stale.SearchVector = vec
			staleIngredients = append(staleIngredients, &stale)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var staleFormulas []*model.Formula
	err = s.store.ForEachFormula(func(formula *model.Formula) error {
		vec, err := s.builder.Build(model.EntityTypeFormula, formula.WeightedFields())
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(formula.SearchVector, vec) {
			stale := *formula
			stale.SearchVector = vec
			staleFormulas = append(staleFormulas, &stale)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ingredient := range staleIngredients {
		if err := s.store.UpdateIngredient(ingredient); err != nil {
			return err
		}
	}
	for _, formula := range staleFormulas {
		if err := s.store.UpdateFormula(formula); err != nil {
			return err
		}
	}

	if len(staleIngredients)+len(staleFormulas) > 0 {
		s.logger.InfoContext(ctx, "derived vectors reconciled",
			"operation", "provision",
			"ingredients", len(staleIngredients),
			"formulas", len(staleFormulas),
		)
	}
	return nil
}
