package index

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestInvertedIndexReplaceAndScore(t *testing.T) {
	ii := NewInvertedIndex()
	idA := uuid.New()
	idB := uuid.New()

	// Entity A: "flour" at full weight plus a low-weight "kg".
	ii.Replace(idA, map[string]TermInfo{
		"flour": {Weight: 1.0, Count: 1},
		"kg":    {Weight: 0.4, Count: 1},
	})
	// Entity B only matches "kg".
	ii.Replace(idB, map[string]TermInfo{
		"sugar": {Weight: 1.0, Count: 1},
		"kg":    {Weight: 0.4, Count: 1},
	})

	scores := ii.Score([]string{"flour"})
	if len(scores) != 1 {
		t.Fatalf("expected 1 scored entity, got %d", len(scores))
	}
	if !almostEqual(scores[idA], 1.0/2.0) {
		t.Errorf("score for idA = %v, want 0.5", scores[idA])
	}

	scores = ii.Score([]string{"flour", "kg"})
	if len(scores) != 2 {
		t.Fatalf("expected 2 scored entities, got %d", len(scores))
	}
	if !almostEqual(scores[idA], 0.5+0.2) {
		t.Errorf("score for idA = %v, want 0.7", scores[idA])
	}
	if !almostEqual(scores[idB], 0.2) {
		t.Errorf("score for idB = %v, want 0.2", scores[idB])
	}
}

func TestInvertedIndexScoreDeduplicatesQueryLexemes(t *testing.T) {
	ii := NewInvertedIndex()
	id := uuid.New()
	ii.Replace(id, map[string]TermInfo{"salt": {Weight: 1.0, Count: 1}})

	once := ii.Score([]string{"salt"})
	twice := ii.Score([]string{"salt", "salt"})
	if !almostEqual(once[id], twice[id]) {
		t.Errorf("duplicate query lexeme changed score: %v vs %v", once[id], twice[id])
	}
}

func TestInvertedIndexTermFrequencyNormalization(t *testing.T) {
	ii := NewInvertedIndex()
	id := uuid.New()

	// "salt" occurs twice out of four total occurrences.
	ii.Replace(id, map[string]TermInfo{
		"salt": {Weight: 1.0, Count: 2},
		"sea":  {Weight: 1.0, Count: 1},
		"fine": {Weight: 0.4, Count: 1},
	})

	scores := ii.Score([]string{"salt"})
	if !almostEqual(scores[id], 1.0*2.0/4.0) {
		t.Errorf("score = %v, want 0.5", scores[id])
	}
}

func TestInvertedIndexReplaceSwapsOldPostings(t *testing.T) {
	ii := NewInvertedIndex()
	id := uuid.New()

	ii.Replace(id, map[string]TermInfo{"flour": {Weight: 1.0, Count: 1}})
	ii.Replace(id, map[string]TermInfo{"sugar": {Weight: 1.0, Count: 1}})

	if scores := ii.Score([]string{"flour"}); len(scores) != 0 {
		t.Errorf("stale posting survived replace: %v", scores)
	}
	if scores := ii.Score([]string{"sugar"}); len(scores) != 1 {
		t.Errorf("new posting missing after replace: %v", scores)
	}
	if got := ii.LexemeCount(); got != 1 {
		t.Errorf("LexemeCount() = %d, want 1", got)
	}
}

func TestInvertedIndexRemove(t *testing.T) {
	ii := NewInvertedIndex()
	idA := uuid.New()
	idB := uuid.New()

	ii.Replace(idA, map[string]TermInfo{"salt": {Weight: 1.0, Count: 1}})
	ii.Replace(idB, map[string]TermInfo{"salt": {Weight: 1.0, Count: 1}})
	ii.Remove(idA)

	scores := ii.Score([]string{"salt"})
	if _, ok := scores[idA]; ok {
		t.Error("removed entity still scored")
	}
	if _, ok := scores[idB]; !ok {
		t.Error("unrelated entity lost its posting")
	}
	if got := ii.EntityCount(); got != 1 {
		t.Errorf("EntityCount() = %d, want 1", got)
	}
}

func TestInvertedIndexReplaceWithEmptyTermsRemoves(t *testing.T) {
	ii := NewInvertedIndex()
	id := uuid.New()

	ii.Replace(id, map[string]TermInfo{"salt": {Weight: 1.0, Count: 1}})
	ii.Replace(id, nil)

	if got := ii.EntityCount(); got != 0 {
		t.Errorf("EntityCount() = %d, want 0", got)
	}
	if got := ii.LexemeCount(); got != 0 {
		t.Errorf("LexemeCount() = %d, want 0", got)
	}
}

func TestInvertedIndexRebuild(t *testing.T) {
	ii := NewInvertedIndex()
	stale := uuid.New()
	ii.Replace(stale, map[string]TermInfo{"old": {Weight: 1.0, Count: 1}})

	idA := uuid.New()
	idB := uuid.New()
	ii.Rebuild(map[uuid.UUID]map[string]TermInfo{
		idA: {"flour": {Weight: 1.0, Count: 1}},
		idB: {"sugar": {Weight: 1.0, Count: 1}},
	})

	if scores := ii.Score([]string{"old"}); len(scores) != 0 {
		t.Errorf("rebuild kept stale posting: %v", scores)
	}
	if got := ii.EntityCount(); got != 2 {
		t.Errorf("EntityCount() = %d, want 2", got)
	}
	if scores := ii.Score([]string{"flour"}); !almostEqual(scores[idA], 1.0) {
		t.Errorf("score after rebuild = %v, want 1.0", scores[idA])
	}
}

func TestInvertedIndexPostingOrderDeterministic(t *testing.T) {
	ii := NewInvertedIndex()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		ii.Replace(id, map[string]TermInfo{"salt": {Weight: 1.0, Count: 1}})
	}

	ii.mu.RLock()
	list := ii.postings["salt"]
	ii.mu.RUnlock()

	if len(list) != len(ids) {
		t.Fatalf("posting list has %d entries, want %d", len(list), len(ids))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].EntityID.String() >= list[i].EntityID.String() {
			t.Errorf("posting list not ordered at %d: %s >= %s", i, list[i-1].EntityID, list[i].EntityID)
		}
	}
}
