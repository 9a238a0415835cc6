package search

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/config"
	"github.com/tendelabs/catalog-search/index"
	"github.com/tendelabs/catalog-search/internal/vector"
	"github.com/tendelabs/catalog-search/model"
	"github.com/tendelabs/catalog-search/services"
)

// setupTestSearchService builds a search service over fresh indexes and
// returns a helper that indexes an ingredient with a fixed id.
func setupTestSearchService(t *testing.T, settings *config.Settings) (*Service, func(id uuid.UUID, name, unit string)) {
	t.Helper()
	if settings == nil {
		settings = config.DefaultSettings()
	}

	inverted := index.NewInvertedIndex()
	trigrams := index.NewTrigramIndex()

	service, err := NewService(inverted, trigrams, settings)
	if err != nil {
		t.Fatalf("Failed to create search service: %v", err)
	}

	builder, err := vector.NewBuilder(settings)
	if err != nil {
		t.Fatalf("Failed to create vector builder: %v", err)
	}

	add := func(id uuid.UUID, name, unit string) {
		fields := map[string]string{"name": name, "unit": unit}
		vec, err := builder.Build(model.EntityTypeIngredient, fields)
		if err != nil {
			t.Fatalf("Failed to build vector: %v", err)
		}
		inverted.Replace(id, builder.Terms(vec))
		trigrams.Replace(id, builder.FieldEntries(fields))
	}
	return service, add
}

func search(t *testing.T, service *Service, query services.SearchQuery) services.SearchResult {
	t.Helper()
	result, err := service.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	return result
}

func TestSearchLexicalRanksNameAboveUnit(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	nameMatch := uuid.New()
	unitMatch := uuid.New()
	add(nameMatch, "Gram Flour", "kg")
	add(unitMatch, "Sea Salt", "gram")

	result := search(t, service, services.SearchQuery{Query: "gram", Type: model.EntityTypeIngredient})

	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}
	// "gram" in the A-tier name outranks "gram" in the B-tier unit.
	if result.Hits[0].EntityID != nameMatch {
		t.Errorf("first hit = %s, want the name match", result.Hits[0].EntityID)
	}
	if result.Hits[1].EntityID != unitMatch {
		t.Errorf("second hit = %s, want the unit match", result.Hits[1].EntityID)
	}
	for _, hit := range result.Hits {
		if hit.Match != services.MatchLexical {
			t.Errorf("hit %s has match kind %s, want lexical", hit.EntityID, hit.Match)
		}
	}
}

func TestSearchTiesBreakByEntityIDAscending(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	// Identical fields produce identical scores; rank must come from the id.
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		add(id, "Salt", "kg")
	}

	result := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient})

	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3", result.Total)
	}
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i-1].EntityID.String() >= result.Hits[i].EntityID.String() {
			t.Errorf("hits not in id order at %d: %s >= %s", i, result.Hits[i-1].EntityID, result.Hits[i].EntityID)
		}
	}

	// The full ranking is reproducible.
	again := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient})
	for i := range result.Hits {
		if result.Hits[i].EntityID != again.Hits[i].EntityID {
			t.Errorf("ranking not deterministic at %d", i)
		}
	}
}

func TestSearchUnitTieBreaksByEntityID(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	flour := uuid.New()
	sugar := uuid.New()
	add(flour, "Flour", "kg")
	add(sugar, "Sugar", "kg")

	// Both match "kg" only in the B-tier unit with the same score.
	result := search(t, service, services.SearchQuery{Query: "kg", Type: model.EntityTypeIngredient})

	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}
	first, second := flour, sugar
	if second.String() < first.String() {
		first, second = second, first
	}
	if result.Hits[0].EntityID != first || result.Hits[1].EntityID != second {
		t.Errorf("tie not broken by id ascending: got %s, %s", result.Hits[0].EntityID, result.Hits[1].EntityID)
	}
}

func TestSearchTrigramFallbackCatchesTypo(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	flour := uuid.New()
	sugar := uuid.New()
	add(flour, "Flour", "kg")
	add(sugar, "Sugar", "kg")

	// "flur" matches no lexeme; the trigram path admits flour at 0.375.
	result := search(t, service, services.SearchQuery{Query: "flur", Type: model.EntityTypeIngredient})

	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	hit := result.Hits[0]
	if hit.EntityID != flour {
		t.Errorf("hit = %s, want flour", hit.EntityID)
	}
	if hit.Match != services.MatchFuzzy {
		t.Errorf("match kind = %s, want fuzzy", hit.Match)
	}
	if hit.Similarity < 0.30 {
		t.Errorf("similarity = %v, want >= 0.30", hit.Similarity)
	}
}

func TestSearchFuzzyBelowThresholdExcluded(t *testing.T) {
	service, add := setupTestSearchService(t, nil)
	add(uuid.New(), "Sugar", "kg")

	result := search(t, service, services.SearchQuery{Query: "flur", Type: model.EntityTypeIngredient})
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0 for a dissimilar query", result.Total)
	}
}

func TestSearchZeroConfiguredThresholdAdmitsAllCandidates(t *testing.T) {
	settings := config.DefaultSettings()
	zero := 0.0
	settings.SimilarityThreshold = &zero
	service, add := setupTestSearchService(t, settings)

	sugar := uuid.New()
	add(sugar, "Sugar", "kg")

	// "flur" shares no shingles with "sugar"; only a zero threshold lets
	// it through the fuzzy branch.
	result := search(t, service, services.SearchQuery{Query: "flur", Type: model.EntityTypeIngredient})
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1 with a zero threshold", result.Total)
	}
	if result.Hits[0].Match != services.MatchFuzzy {
		t.Errorf("match kind = %s, want fuzzy", result.Hits[0].Match)
	}
}

func TestSearchThresholdOverridePerQuery(t *testing.T) {
	service, add := setupTestSearchService(t, nil)
	add(uuid.New(), "Flour", "kg")

	strict := 0.9
	result := search(t, service, services.SearchQuery{
		Query:               "flur",
		Type:                model.EntityTypeIngredient,
		SimilarityThreshold: &strict,
	})
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0 with a 0.9 threshold", result.Total)
	}
}

func TestSearchEditDistanceAdmission(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	peppercorn := uuid.New()
	add(peppercorn, "Pepr", "kg")

	// "pepp" vs "pepr": similarity is below the trigram threshold but the
	// edit distance is 1, so max_distance 1 admits it.
	strict := 0.9
	maxDistance := 1
	result := search(t, service, services.SearchQuery{
		Query:               "pepp",
		Type:                model.EntityTypeIngredient,
		SimilarityThreshold: &strict,
		MaxTypoDistance:     &maxDistance,
	})

	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1 via edit-distance admission", result.Total)
	}
	if result.Hits[0].Match != services.MatchFuzzy {
		t.Errorf("match kind = %s, want fuzzy", result.Hits[0].Match)
	}
}

func TestSearchLexicalBranchWinsOverFuzzy(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	exact := uuid.New()
	near := uuid.New()
	add(exact, "Flour", "kg")
	add(near, "Flou", "kg")

	// "flour" matches the first lexically; it also resembles both via
	// trigrams. The exact match ranks first and appears exactly once.
	result := search(t, service, services.SearchQuery{Query: "flour", Type: model.EntityTypeIngredient})

	seen := make(map[uuid.UUID]int)
	for _, hit := range result.Hits {
		seen[hit.EntityID]++
	}
	if seen[exact] != 1 {
		t.Errorf("exact match appeared %d times, want 1", seen[exact])
	}
	if result.Hits[0].EntityID != exact {
		t.Errorf("first hit = %s, want the lexical match", result.Hits[0].EntityID)
	}
	if result.Hits[0].Match != services.MatchLexical {
		t.Errorf("first hit match kind = %s, want lexical", result.Hits[0].Match)
	}
}

func TestSearchEmptyQueryYieldsEmptyResult(t *testing.T) {
	service, add := setupTestSearchService(t, nil)
	add(uuid.New(), "Flour", "kg")

	for _, query := range []string{"", "   ", "!!!"} {
		result := search(t, service, services.SearchQuery{Query: query, Type: model.EntityTypeIngredient})
		if result.Total != 0 || len(result.Hits) != 0 {
			t.Errorf("query %q: Total = %d, hits = %d, want empty result", query, result.Total, len(result.Hits))
		}
	}
}

func TestSearchPagination(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	for i := 0; i < 5; i++ {
		add(uuid.New(), "Salt", "kg")
	}

	first := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient, Page: 1, PageSize: 2})
	second := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient, Page: 2, PageSize: 2})
	third := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient, Page: 3, PageSize: 2})
	fourth := search(t, service, services.SearchQuery{Query: "salt", Type: model.EntityTypeIngredient, Page: 4, PageSize: 2})

	if first.Total != 5 || second.Total != 5 {
		t.Errorf("Total = %d/%d, want 5 on every page", first.Total, second.Total)
	}
	if len(first.Hits) != 2 || len(second.Hits) != 2 || len(third.Hits) != 1 || len(fourth.Hits) != 0 {
		t.Errorf("page sizes = %d/%d/%d/%d, want 2/2/1/0",
			len(first.Hits), len(second.Hits), len(third.Hits), len(fourth.Hits))
	}
	if first.Hits[1].EntityID.String() >= second.Hits[0].EntityID.String() {
		t.Error("pages overlap or are out of order")
	}
}

func TestSearchStopwordOnlyQueryFallsThroughToTrigrams(t *testing.T) {
	service, add := setupTestSearchService(t, nil)

	the := uuid.New()
	add(the, "Theobromine", "g")

	// "the" is a stopword, so there is no lexical signal, but the trigram
	// path still sees the raw token.
	result := search(t, service, services.SearchQuery{Query: "the", Type: model.EntityTypeIngredient})
	for _, hit := range result.Hits {
		if hit.Match != services.MatchFuzzy {
			t.Errorf("stopword-only query produced a %s hit", hit.Match)
		}
	}
}
