package store

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/model"
)

// bulkItem is one entity of a batch write.
type bulkItem struct {
	key   []byte
	value any
	id    string
}

// bulkInsert stores a batch in one transaction; any id collision aborts the
// whole batch.
func (s *Store) bulkInsert(entityType string, items []bulkItem) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		for _, item := range items {
			_, err := txn.Get(item.key)
			if err == nil {
				return apperrors.NewAlreadyExistsError(entityType, item.id)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			data, err := json.Marshal(item.value)
			if err != nil {
				return err
			}
			if err := txn.Set(item.key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// bulkUpdate overwrites a batch in one transaction. Every id must exist;
// the error names all missing ids and nothing is written.
func (s *Store) bulkUpdate(entityType string, items []bulkItem) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		if err := verifyAllExist(txn, entityType, items); err != nil {
			return err
		}
		for _, item := range items {
			data, err := json.Marshal(item.value)
			if err != nil {
				return err
			}
			if err := txn.Set(item.key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// bulkDelete removes a batch in one transaction. Every id must exist;
// the error names all missing ids and nothing is deleted.
func (s *Store) bulkDelete(entityType string, items []bulkItem) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		if err := verifyAllExist(txn, entityType, items); err != nil {
			return err
		}
		for _, item := range items {
			if err := txn.Delete(item.key); err != nil {
				return err
			}
		}
		return nil
	})
}

func verifyAllExist(txn *badger.Txn, entityType string, items []bulkItem) error {
	var missing []string
	for _, item := range items {
		if _, err := txn.Get(item.key); err != nil {
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			missing = append(missing, item.id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewNotFoundError(entityType, strings.Join(missing, ", "))
	}
	return nil
}

// InsertIngredients stores a batch of new ingredients atomically.
func (s *Store) InsertIngredients(ingredients []*model.Ingredient) error {
	items := make([]bulkItem, 0, len(ingredients))
	for _, ingredient := range ingredients {
		items = append(items, bulkItem{
			key:   makeEntityKey(model.EntityTypeIngredient, ingredient.ID),
			value: ingredient,
			id:    ingredient.ID.String(),
		})
	}
	return s.bulkInsert(string(model.EntityTypeIngredient), items)
}

// UpdateIngredients overwrites a batch of existing ingredients atomically.
func (s *Store) UpdateIngredients(ingredients []*model.Ingredient) error {
	items := make([]bulkItem, 0, len(ingredients))
	for _, ingredient := range ingredients {
		items = append(items, bulkItem{
			key:   makeEntityKey(model.EntityTypeIngredient, ingredient.ID),
			value: ingredient,
			id:    ingredient.ID.String(),
		})
	}
	return s.bulkUpdate(string(model.EntityTypeIngredient), items)
}

// DeleteIngredients removes a batch of ingredients atomically.
func (s *Store) DeleteIngredients(ids []uuid.UUID) error {
	items := make([]bulkItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, bulkItem{
			key: makeEntityKey(model.EntityTypeIngredient, id),
			id:  id.String(),
		})
	}
	return s.bulkDelete(string(model.EntityTypeIngredient), items)
}

// InsertFormulas stores a batch of new formulas atomically.
func (s *Store) InsertFormulas(formulas []*model.Formula) error {
	items := make([]bulkItem, 0, len(formulas))
	for _, formula := range formulas {
		items = append(items, bulkItem{
			key:   makeEntityKey(model.EntityTypeFormula, formula.ID),
			value: formula,
			id:    formula.ID.String(),
		})
	}
	return s.bulkInsert(string(model.EntityTypeFormula), items)
}

// UpdateFormulas overwrites a batch of existing formulas atomically.
func (s *Store) UpdateFormulas(formulas []*model.Formula) error {
	items := make([]bulkItem, 0, len(formulas))
	for _, formula := range formulas {
		items = append(items, bulkItem{
			key:   makeEntityKey(model.EntityTypeFormula, formula.ID),
			value: formula,
			id:    formula.ID.String(),
		})
	}
	return s.bulkUpdate(string(model.EntityTypeFormula), items)
}
