package index

import (
	"sync"

	"github.com/google/uuid"
)

// FieldEntry holds the normalized text of one weighted field and its
// trigram shingle set. The text is retained so the planner can run
// edit-distance checks against the exact indexed form.
type FieldEntry struct {
	Text     string
	Shingles map[string]struct{}
}

// Candidate is the fuzzy-match information for one entity: the best
// Jaccard similarity across its fields and the normalized field texts.
type Candidate struct {
	Similarity float64
	Fields     []string
}

// TrigramIndex stores per-entity, per-field shingle sets and answers
// approximate similarity queries. It is the fallback signal for typo
// tolerance, never the primary rank.
type TrigramIndex struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]map[string]FieldEntry
}

// NewTrigramIndex creates an empty trigram index.
func NewTrigramIndex() *TrigramIndex {
	return &TrigramIndex{entities: make(map[uuid.UUID]map[string]FieldEntry)}
}

// Replace atomically swaps all shingle sets of an entity. Fields with no
// text are expected to be omitted by the caller.
func (ti *TrigramIndex) Replace(id uuid.UUID, fields map[string]FieldEntry) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	if len(fields) == 0 {
		delete(ti.entities, id)
		return
	}
	ti.entities[id] = fields
}

// Remove deletes every shingle set of an entity.
func (ti *TrigramIndex) Remove(id uuid.UUID) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	delete(ti.entities, id)
}

// Candidates computes, in a single consistent read, the maximum similarity
// between the query shingle set and each entity's fields, together with the
// field texts. Filtering against the similarity threshold is the planner's
// job; this method reports every indexed entity with similarity > 0 or at
// least one non-empty field.
func (ti *TrigramIndex) Candidates(query map[string]struct{}) map[uuid.UUID]Candidate {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	candidates := make(map[uuid.UUID]Candidate, len(ti.entities))
	for id, fields := range ti.entities {
		best := 0.0
		texts := make([]string, 0, len(fields))
		for _, entry := range fields {
			texts = append(texts, entry.Text)
			if sim := jaccard(query, entry.Shingles); sim > best {
				best = sim
			}
		}
		candidates[id] = Candidate{Similarity: best, Fields: texts}
	}
	return candidates
}

// Rebuild replaces the entire index contents in one critical section.
func (ti *TrigramIndex) Rebuild(entities map[uuid.UUID]map[string]FieldEntry) {
	ti.mu.Lock()
	ti.entities = entities
	ti.mu.Unlock()
}

// EntityCount returns the number of indexed entities.
func (ti *TrigramIndex) EntityCount() int {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return len(ti.entities)
}

// jaccard computes |a ∩ b| / |a ∪ b|. Empty sets never match.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for shingle := range small {
		if _, ok := large[shingle]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(a)+len(b)-intersection)
}
