// Package services defines the interfaces and result types shared between
// the catalog engine and the API layer.
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/model"
)

// MatchKind says which signal ranked a hit.
type MatchKind string

const (
	// MatchLexical means the hit matched query lexemes in the inverted
	// index.
	MatchLexical MatchKind = "lexical"
	// MatchFuzzy means the hit had no lexical match and was admitted by
	// trigram similarity or edit distance.
	MatchFuzzy MatchKind = "fuzzy"
)

// SearchQuery is a single search request against one collection.
type SearchQuery struct {
	Query    string
	Type     model.EntityType
	Page     int
	PageSize int

	// SimilarityThreshold overrides the configured trigram threshold for
	// this query when set.
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	// MaxTypoDistance overrides the configured edit-distance admission
	// limit for this query when set.
	MaxTypoDistance *int `json:"max_typo_distance,omitempty"`
}

// Hit is one ranked search result.
type Hit struct {
	EntityID   uuid.UUID `json:"entity_id"`
	Score      float64   `json:"score"`
	Match      MatchKind `json:"match"`
	Similarity float64   `json:"similarity,omitempty"`
}

// SearchResult is the ordered, deduplicated outcome of one query.
type SearchResult struct {
	Hits     []Hit  `json:"hits"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Took     int64  `json:"took"` // milliseconds
	QueryID  string `json:"query_id"`
}

// ListQuery selects a page of a collection listing.
type ListQuery struct {
	Page       int
	Size       int
	NameFilter string // substring match on the name field, ingredients only
}

// Searcher answers ranked queries against one collection.
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) (SearchResult, error)
}

// Catalog is the full catalog service: entity lifecycle, search, and
// maintenance. Every write keeps the derived search vector and both
// indexes transactionally consistent with the entity.
type Catalog interface {
	Searcher

	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	GetIngredient(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	ListIngredients(ctx context.Context, query ListQuery) ([]model.Ingredient, int, error)
	UpdateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	DeleteIngredient(ctx context.Context, id uuid.UUID) error

	CreateFormula(ctx context.Context, formula *model.Formula) error
	GetFormula(ctx context.Context, id uuid.UUID) (*model.Formula, error)
	ListFormulas(ctx context.Context, query ListQuery) ([]model.Formula, int, error)
	UpdateFormula(ctx context.Context, formula *model.Formula) error
	DeleteFormula(ctx context.Context, id uuid.UUID) error

	// ListFormulasByIngredient returns every formula whose composition
	// references the ingredient.
	ListFormulasByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]model.Formula, error)

	// Bulk operations apply a whole batch atomically: every item is
	// validated first, one storage transaction covers the batch, and a
	// failure leaves neither entities nor index state behind.
	BulkCreateIngredients(ctx context.Context, ingredients []*model.Ingredient) error
	BulkUpdateIngredients(ctx context.Context, ingredients []*model.Ingredient) error
	BulkDeleteIngredients(ctx context.Context, ids []uuid.UUID) error
	BulkCreateFormulas(ctx context.Context, formulas []*model.Formula) error
	BulkUpdateFormulas(ctx context.Context, formulas []*model.Formula) error

	// Rebuild recomputes every derived vector and rebuilds both indexes
	// from committed entity state. Explicit and blocking; there is no
	// background reindexing.
	Rebuild(ctx context.Context) error
}
