// Package index provides the two in-memory index structures behind catalog
// search: an inverted index over weighted lexemes for exact lexical
// ranking, and a trigram index over field shingles for typo-tolerant
// fallback matching. Both are independent of the storage backend; the
// catalog layer keeps them consistent with committed entity state.
package index

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InvertedIndex maps each lexeme to the ordered list of entities containing
// it. Mutation is serialized by the catalog write path; reads take the
// shared lock and see only fully committed postings.
type InvertedIndex struct {
	mu       sync.RWMutex
	postings map[string]PostingList
	lengths  map[uuid.UUID]int      // total token occurrences per entity
	terms    map[uuid.UUID][]string // reverse map for posting removal
}

// NewInvertedIndex creates an empty inverted index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]PostingList),
		lengths:  make(map[uuid.UUID]int),
		terms:    make(map[uuid.UUID][]string),
	}
}

// Replace atomically swaps all postings of an entity for the given terms.
// Passing an empty map is equivalent to Remove.
func (ii *InvertedIndex) Replace(id uuid.UUID, terms map[string]TermInfo) {
	ii.mu.Lock()
	defer ii.mu.Unlock()

	ii.removeLocked(id)

	if len(terms) == 0 {
		return
	}

	length := 0
	lexemes := make([]string, 0, len(terms))
	for lexeme, info := range terms {
		length += info.Count
		lexemes = append(lexemes, lexeme)
		ii.insertLocked(lexeme, Posting{EntityID: id, Weight: info.Weight, TermFreq: info.Count})
	}
	sort.Strings(lexemes)

	ii.lengths[id] = length
	ii.terms[id] = lexemes
}

// Remove deletes every posting of an entity.
func (ii *InvertedIndex) Remove(id uuid.UUID) {
	ii.mu.Lock()
	defer ii.mu.Unlock()
	ii.removeLocked(id)
}

func (ii *InvertedIndex) removeLocked(id uuid.UUID) {
	for _, lexeme := range ii.terms[id] {
		list := ii.postings[lexeme]
		kept := list[:0]
		for _, posting := range list {
			if posting.EntityID != id {
				kept = append(kept, posting)
			}
		}
		if len(kept) == 0 {
			delete(ii.postings, lexeme)
		} else {
			ii.postings[lexeme] = kept
		}
	}
	delete(ii.terms, id)
	delete(ii.lengths, id)
}

func (ii *InvertedIndex) insertLocked(lexeme string, posting Posting) {
	list := ii.postings[lexeme]
	at := sort.Search(len(list), func(i int) bool {
		return bytes.Compare(list[i].EntityID[:], posting.EntityID[:]) >= 0
	})
	list = append(list, Posting{})
	copy(list[at+1:], list[at:])
	list[at] = posting
	ii.postings[lexeme] = list
}

// Score returns the aggregate lexical score of every entity matching at
// least one of the query lexemes: the sum over matched lexemes of tier
// weight times length-normalized term frequency. Entities matching nothing
// are absent from the result.
func (ii *InvertedIndex) Score(lexemes []string) map[uuid.UUID]float64 {
	ii.mu.RLock()
	defer ii.mu.RUnlock()

	scores := make(map[uuid.UUID]float64)
	seen := make(map[string]struct{}, len(lexemes))
	for _, lexeme := range lexemes {
		if _, dup := seen[lexeme]; dup {
			continue
		}
		seen[lexeme] = struct{}{}

		for _, posting := range ii.postings[lexeme] {
			length := ii.lengths[posting.EntityID]
			if length == 0 {
				continue
			}
			scores[posting.EntityID] += posting.Weight * float64(posting.TermFreq) / float64(length)
		}
	}
	return scores
}

// Rebuild replaces the entire index contents in one critical section. Used
// by the explicit blocking reindex; readers block until the swap completes
// and never observe a half-built index.
func (ii *InvertedIndex) Rebuild(entities map[uuid.UUID]map[string]TermInfo) {
	postings := make(map[string]PostingList)
	lengths := make(map[uuid.UUID]int, len(entities))
	terms := make(map[uuid.UUID][]string, len(entities))

	fresh := &InvertedIndex{postings: postings, lengths: lengths, terms: terms}
	for id, entityTerms := range entities {
		length := 0
		lexemes := make([]string, 0, len(entityTerms))
		for lexeme, info := range entityTerms {
			length += info.Count
			lexemes = append(lexemes, lexeme)
			fresh.insertLocked(lexeme, Posting{EntityID: id, Weight: info.Weight, TermFreq: info.Count})
		}
		sort.Strings(lexemes)
		lengths[id] = length
		terms[id] = lexemes
	}

	ii.mu.Lock()
	ii.postings = postings
	ii.lengths = lengths
	ii.terms = terms
	ii.mu.Unlock()
}

// EntityCount returns the number of indexed entities.
func (ii *InvertedIndex) EntityCount() int {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	return len(ii.terms)
}

// LexemeCount returns the number of distinct indexed lexemes.
func (ii *InvertedIndex) LexemeCount() int {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	return len(ii.postings)
}
