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

// Store provides typed CRUD over the two catalog collections. Every write
// is a single Badger transaction; partially applied mutations are never
// observable.
type Store struct {
	backend *Backend
}

// NewStore creates a Store over an open backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Backend exposes the underlying backend, mainly for provisioning.
func (s *Store) Backend() *Backend {
	return s.backend
}

func (s *Store) insert(key []byte, value any, entityType, id string) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return apperrors.NewAlreadyExistsError(entityType, id)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *Store) update(key []byte, value any, entityType, id string) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFoundError(entityType, id)
			}
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *Store) get(key []byte, out any, entityType, id string) error {
	return s.backend.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFoundError(entityType, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func (s *Store) delete(key []byte, entityType, id string) error {
	return s.backend.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFoundError(entityType, id)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// InsertIngredient stores a new ingredient; the id must be unused.
func (s *Store) InsertIngredient(ingredient *model.Ingredient) error {
	key := makeEntityKey(model.EntityTypeIngredient, ingredient.ID)
	return s.insert(key, ingredient, string(model.EntityTypeIngredient), ingredient.ID.String())
}

// UpdateIngredient overwrites an existing ingredient.
func (s *Store) UpdateIngredient(ingredient *model.Ingredient) error {
	key := makeEntityKey(model.EntityTypeIngredient, ingredient.ID)
	return s.update(key, ingredient, string(model.EntityTypeIngredient), ingredient.ID.String())
}

// GetIngredient fetches an ingredient by id.
func (s *Store) GetIngredient(id uuid.UUID) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	key := makeEntityKey(model.EntityTypeIngredient, id)
	if err := s.get(key, &ingredient, string(model.EntityTypeIngredient), id.String()); err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// DeleteIngredient removes an ingredient by id.
func (s *Store) DeleteIngredient(id uuid.UUID) error {
	key := makeEntityKey(model.EntityTypeIngredient, id)
	return s.delete(key, string(model.EntityTypeIngredient), id.String())
}

// ListIngredients returns one page of ingredients in id order, optionally
// filtered by a case-insensitive name substring, plus the total count of
// matching ingredients.
func (s *Store) ListIngredients(page, size int, nameFilter string) ([]model.Ingredient, int, error) {
	filter := strings.ToLower(nameFilter)
	matched := make([]model.Ingredient, 0)

	err := s.ForEachIngredient(func(ingredient *model.Ingredient) error {
		if filter != "" && !strings.Contains(strings.ToLower(ingredient.Name), filter) {
			return nil
		}
		matched = append(matched, *ingredient)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return paginate(matched, page, size), len(matched), nil
}

// ForEachIngredient calls fn for every ingredient in id order.
func (s *Store) ForEachIngredient(fn func(*model.Ingredient) error) error {
	return s.scan(model.EntityTypeIngredient, func(val []byte) error {
		var ingredient model.Ingredient
		if err := json.Unmarshal(val, &ingredient); err != nil {
			return err
		}
		return fn(&ingredient)
	})
}

// InsertFormula stores a new formula; the id must be unused.
func (s *Store) InsertFormula(formula *model.Formula) error {
	key := makeEntityKey(model.EntityTypeFormula, formula.ID)
	return s.insert(key, formula, string(model.EntityTypeFormula), formula.ID.String())
}

// UpdateFormula overwrites an existing formula.
func (s *Store) UpdateFormula(formula *model.Formula) error {
	key := makeEntityKey(model.EntityTypeFormula, formula.ID)
	return s.update(key, formula, string(model.EntityTypeFormula), formula.ID.String())
}

// GetFormula fetches a formula by id.
func (s *Store) GetFormula(id uuid.UUID) (*model.Formula, error) {
	var formula model.Formula
	key := makeEntityKey(model.EntityTypeFormula, id)
	if err := s.get(key, &formula, string(model.EntityTypeFormula), id.String()); err != nil {
		return nil, err
	}
	return &formula, nil
}

// DeleteFormula removes a formula by id.
func (s *Store) DeleteFormula(id uuid.UUID) error {
	key := makeEntityKey(model.EntityTypeFormula, id)
	return s.delete(key, string(model.EntityTypeFormula), id.String())
}

// ListFormulas returns one page of formulas in id order plus the total
// count.
func (s *Store) ListFormulas(page, size int) ([]model.Formula, int, error) {
	matched := make([]model.Formula, 0)

	err := s.ForEachFormula(func(formula *model.Formula) error {
		matched = append(matched, *formula)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return paginate(matched, page, size), len(matched), nil
}

// ForEachFormula calls fn for every formula in id order.
func (s *Store) ForEachFormula(fn func(*model.Formula) error) error {
	return s.scan(model.EntityTypeFormula, func(val []byte) error {
		var formula model.Formula
		if err := json.Unmarshal(val, &formula); err != nil {
			return err
		}
		return fn(&formula)
	})
}

func (s *Store) scan(entityType model.EntityType, fn func(val []byte) error) error {
	return s.backend.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScanPrefix(entityType)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func paginate[T any](items []T, page, size int) []T {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
