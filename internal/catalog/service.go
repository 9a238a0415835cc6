// Package catalog implements the catalog service: entity lifecycle with
// write-time index maintenance, search dispatch, provisioning, and the
// explicit blocking reindex.
//
// Every insert or update recomputes the entity's derived search vector and
// swaps its postings and shingle sets only after the storage transaction
// commits. A failure at any step aborts the whole write, so the indexes
// never reference a stale or missing entity state. Visibility in search is
// guaranteed once the write call returns; a search racing a still-pending
// write may not yet see its entity.
package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/config"
	"github.com/tendelabs/catalog-search/index"
	apperrors "github.com/tendelabs/catalog-search/internal/errors"
	"github.com/tendelabs/catalog-search/internal/search"
	"github.com/tendelabs/catalog-search/internal/vector"
	"github.com/tendelabs/catalog-search/model"
	"github.com/tendelabs/catalog-search/services"
	"github.com/tendelabs/catalog-search/store"
)

const lockStripes = 64

// collection bundles the index pair and searcher of one entity type.
type collection struct {
	inverted *index.InvertedIndex
	trigrams *index.TrigramIndex
	searcher *search.Service
}

// Service implements services.Catalog.
type Service struct {
	store       *store.Store
	settings    *config.Settings
	builder     *vector.Builder
	collections map[model.EntityType]*collection
	logger      *slog.Logger

	// rebuildMu lets normal writes proceed concurrently while making the
	// explicit full rebuild exclusive.
	rebuildMu sync.RWMutex
	// locks serialize writers of the same entity id; distinct ids land on
	// distinct stripes and proceed independently.
	locks [lockStripes]sync.Mutex
}

var _ services.Catalog = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the catalog service over an open store. Settings get
// defaults applied and are validated.
func NewService(st *store.Store, settings *config.Settings, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings: %v", problems)
	}

	builder, err := vector.NewBuilder(settings)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:       st,
		settings:    settings,
		builder:     builder,
		collections: make(map[model.EntityType]*collection),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, entityType := range []model.EntityType{model.EntityTypeIngredient, model.EntityTypeFormula} {
		inverted := index.NewInvertedIndex()
		trigrams := index.NewTrigramIndex()
		searcher, err := search.NewService(inverted, trigrams, settings, search.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create searcher for '%s': %w", entityType, err)
		}
		s.collections[entityType] = &collection{
			inverted: inverted,
			trigrams: trigrams,
			searcher: searcher,
		}
	}

	return s, nil
}

func stripeFor(id uuid.UUID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % lockStripes)
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	return &s.locks[stripeFor(id)]
}

// lockAll acquires the stripes covering a batch of ids in index order,
// deduplicated, and returns the matching unlock. Ordered acquisition keeps
// concurrent batches from deadlocking.
func (s *Service) lockAll(ids []uuid.UUID) func() {
	seen := make(map[int]struct{}, len(ids))
	stripes := make([]int, 0, len(ids))
	for _, id := range ids {
		stripe := stripeFor(id)
		if _, ok := seen[stripe]; ok {
			continue
		}
		seen[stripe] = struct{}{}
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		s.locks[stripe].Lock()
	}
	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			s.locks[stripes[i]].Unlock()
		}
	}
}

// indexEntity swaps the entity's postings and shingle sets. Called only
// after the storage transaction committed; map swaps cannot fail, so the
// committed entity and the indexes move together.
func (s *Service) indexEntity(entityType model.EntityType, id uuid.UUID, fields map[string]string, vec model.SearchVector) {
	col := s.collections[entityType]
	col.inverted.Replace(id, s.builder.Terms(vec))
	col.trigrams.Replace(id, s.builder.FieldEntries(fields))
}

func (s *Service) unindexEntity(entityType model.EntityType, id uuid.UUID) {
	col := s.collections[entityType]
	col.inverted.Remove(id)
	col.trigrams.Remove(id)
}

// Search dispatches a query to the collection named by its entity type.
func (s *Service) Search(ctx context.Context, query services.SearchQuery) (services.SearchResult, error) {
	col, ok := s.collections[query.Type]
	if !ok {
		return services.SearchResult{}, apperrors.NewValidationError("entity_type", fmt.Sprintf("unknown entity type '%s'", query.Type))
	}
	return col.searcher.Search(ctx, query)
}

// CreateIngredient validates, persists, and indexes a new ingredient. A
// zero id is assigned a fresh UUID.
func (s *Service) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	if err := validateIngredient(ingredient); err != nil {
		return err
	}
	if ingredient.ID == uuid.Nil {
		ingredient.ID = uuid.New()
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(ingredient.ID)
	lock.Lock()
	defer lock.Unlock()

	fields := ingredient.WeightedFields()
	vec, err := s.builder.Build(model.EntityTypeIngredient, fields)
	if err != nil {
		return err
	}
	ingredient.SearchVector = vec

	if err := s.store.InsertIngredient(ingredient); err != nil {
		return err
	}
	s.indexEntity(model.EntityTypeIngredient, ingredient.ID, fields, vec)

	s.logger.InfoContext(ctx, "ingredient created",
		"operation", "create_ingredient",
		"ingredient_id", ingredient.ID.String(),
		"ingredient_name", ingredient.Name,
	)
	return nil
}

// UpdateIngredient validates, persists, and reindexes an existing
// ingredient.
func (s *Service) UpdateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	if err := validateIngredient(ingredient); err != nil {
		return err
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(ingredient.ID)
	lock.Lock()
	defer lock.Unlock()

	fields := ingredient.WeightedFields()
	vec, err := s.builder.Build(model.EntityTypeIngredient, fields)
	if err != nil {
		return err
	}
	ingredient.SearchVector = vec

	if err := s.store.UpdateIngredient(ingredient); err != nil {
		return err
	}
	s.indexEntity(model.EntityTypeIngredient, ingredient.ID, fields, vec)

	s.logger.InfoContext(ctx, "ingredient updated",
		"operation", "update_ingredient",
		"ingredient_id", ingredient.ID.String(),
		"ingredient_name", ingredient.Name,
	)
	return nil
}

// GetIngredient fetches an ingredient by id.
func (s *Service) GetIngredient(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	return s.store.GetIngredient(id)
}

// ListIngredients returns a page of ingredients with the total matching
// count.
func (s *Service) ListIngredients(ctx context.Context, query services.ListQuery) ([]model.Ingredient, int, error) {
	return s.store.ListIngredients(query.Page, query.Size, query.NameFilter)
}

// DeleteIngredient removes an ingredient and all of its postings and
// shingle sets.
func (s *Service) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteIngredient(id); err != nil {
		return err
	}
	s.unindexEntity(model.EntityTypeIngredient, id)

	s.logger.InfoContext(ctx, "ingredient deleted",
		"operation", "delete_ingredient",
		"ingredient_id", id.String(),
	)
	return nil
}

// CreateFormula validates, persists, and indexes a new formula.
func (s *Service) CreateFormula(ctx context.Context, formula *model.Formula) error {
	if err := validateFormula(formula); err != nil {
		return err
	}
	if formula.ID == uuid.Nil {
		formula.ID = uuid.New()
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(formula.ID)
	lock.Lock()
	defer lock.Unlock()

	fields := formula.WeightedFields()
	vec, err := s.builder.Build(model.EntityTypeFormula, fields)
	if err != nil {
		return err
	}
	formula.SearchVector = vec

	if err := s.store.InsertFormula(formula); err != nil {
		return err
	}
	s.indexEntity(model.EntityTypeFormula, formula.ID, fields, vec)

	s.logger.InfoContext(ctx, "formula created",
		"operation", "create_formula",
		"formula_id", formula.ID.String(),
		"formula_name", formula.Name,
	)
	return nil
}

// UpdateFormula validates, persists, and reindexes an existing formula.
func (s *Service) UpdateFormula(ctx context.Context, formula *model.Formula) error {
	if err := validateFormula(formula); err != nil {
		return err
	}

	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(formula.ID)
	lock.Lock()
	defer lock.Unlock()

	fields := formula.WeightedFields()
	vec, err := s.builder.Build(model.EntityTypeFormula, fields)
	if err != nil {
		return err
	}
	formula.SearchVector = vec

	if err := s.store.UpdateFormula(formula); err != nil {
		return err
	}
	s.indexEntity(model.EntityTypeFormula, formula.ID, fields, vec)

	s.logger.InfoContext(ctx, "formula updated",
		"operation", "update_formula",
		"formula_id", formula.ID.String(),
		"formula_name", formula.Name,
	)
	return nil
}

// GetFormula fetches a formula by id.
func (s *Service) GetFormula(ctx context.Context, id uuid.UUID) (*model.Formula, error) {
	return s.store.GetFormula(id)
}

// ListFormulas returns a page of formulas with the total count.
func (s *Service) ListFormulas(ctx context.Context, query services.ListQuery) ([]model.Formula, int, error) {
	return s.store.ListFormulas(query.Page, query.Size)
}

// DeleteFormula removes a formula and all of its postings and shingle
// sets.
func (s *Service) DeleteFormula(ctx context.Context, id uuid.UUID) error {
	s.rebuildMu.RLock()
	defer s.rebuildMu.RUnlock()
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteFormula(id); err != nil {
		return err
	}
	s.unindexEntity(model.EntityTypeFormula, id)

	s.logger.InfoContext(ctx, "formula deleted",
		"operation", "delete_formula",
		"formula_id", id.String(),
	)
	return nil
}

func validateIngredient(ingredient *model.Ingredient) error {
	if ingredient == nil {
		return apperrors.NewValidationError("", "ingredient cannot be nil")
	}
	if ingredient.Name == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	if ingredient.Unit == "" {
		return apperrors.NewValidationError("unit", "unit is required")
	}
	return nil
}

func validateFormula(formula *model.Formula) error {
	if formula == nil {
		return apperrors.NewValidationError("", "formula cannot be nil")
	}
	if formula.Name == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	return nil
}
