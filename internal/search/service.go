// Package search implements the query planner: it combines exact lexical
// ranking from the inverted index with trigram-similarity fallback into one
// deterministic, deduplicated result list.
package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/config"
	"github.com/tendelabs/catalog-search/index"
	"github.com/tendelabs/catalog-search/internal/tokenizer"
	"github.com/tendelabs/catalog-search/internal/typoutil"
	"github.com/tendelabs/catalog-search/services"
)

const defaultPageSize = 10

// Service plans and executes queries against one collection's index pair.
type Service struct {
	inverted *index.InvertedIndex
	trigrams *index.TrigramIndex
	settings *config.Settings
	logger   *slog.Logger
}

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

// NewService creates a search Service over the given index pair.
func NewService(inverted *index.InvertedIndex, trigrams *index.TrigramIndex, settings *config.Settings, opts ...Option) (*Service, error) {
	if inverted == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if trigrams == nil {
		return nil, fmt.Errorf("trigram index cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	s := &Service{
		inverted: inverted,
		trigrams: trigrams,
		settings: settings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search executes a query. Entities with a lexical match rank first,
// ordered by lexical score descending; the remainder are admitted by
// trigram similarity (or edit distance) and ordered by similarity
// descending. Ties at any level break by entity id ascending. An entity
// contributing both signals appears once, via the lexical branch. An
// empty or whitespace-only query yields an empty result, not an error.
func (s *Service) Search(ctx context.Context, query services.SearchQuery) (services.SearchResult, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := services.SearchResult{
		Hits:     []services.Hit{},
		Page:     page,
		PageSize: pageSize,
		QueryID:  queryID,
	}

	tokens := tokenizer.Tokenize(query.Query)
	if len(tokens) == 0 {
		result.Took = time.Since(startTime).Milliseconds()
		return result, nil
	}

	threshold := *s.settings.SimilarityThreshold
	if query.SimilarityThreshold != nil {
		threshold = *query.SimilarityThreshold
	}
	maxDistance := s.settings.MaxTypoDistance
	if query.MaxTypoDistance != nil {
		maxDistance = *query.MaxTypoDistance
	}

	lexemes := tokenizer.UniqueLexemes(query.Query)
	lexicalScores := s.inverted.Score(lexemes)

	normQuery := tokenizer.Normalize(query.Query)
	shingles := tokenizer.Shingles(normQuery)
	candidates := s.trigrams.Candidates(shingles)

	lexicalHits := make([]services.Hit, 0, len(lexicalScores))
	for id, score := range lexicalScores {
		lexicalHits = append(lexicalHits, services.Hit{
			EntityID:   id,
			Score:      score,
			Match:      services.MatchLexical,
			Similarity: candidates[id].Similarity,
		})
	}
	sort.Slice(lexicalHits, func(i, j int) bool {
		if lexicalHits[i].Score != lexicalHits[j].Score {
			return lexicalHits[i].Score > lexicalHits[j].Score
		}
		return lessID(lexicalHits[i].EntityID, lexicalHits[j].EntityID)
	})

	fuzzyHits := make([]services.Hit, 0)
	for id, candidate := range candidates {
		if _, covered := lexicalScores[id]; covered {
			continue
		}
		if candidate.Similarity < threshold && !withinDistance(normQuery, candidate.Fields, maxDistance) {
			continue
		}
		fuzzyHits = append(fuzzyHits, services.Hit{
			EntityID:   id,
			Score:      candidate.Similarity,
			Match:      services.MatchFuzzy,
			Similarity: candidate.Similarity,
		})
	}
	sort.Slice(fuzzyHits, func(i, j int) bool {
		if fuzzyHits[i].Similarity != fuzzyHits[j].Similarity {
			return fuzzyHits[i].Similarity > fuzzyHits[j].Similarity
		}
		return lessID(fuzzyHits[i].EntityID, fuzzyHits[j].EntityID)
	})

	ranked := append(lexicalHits, fuzzyHits...)
	result.Total = len(ranked)

	start := (page - 1) * pageSize
	if start < len(ranked) {
		end := start + pageSize
		if end > len(ranked) {
			end = len(ranked)
		}
		result.Hits = ranked[start:end]
	}

	result.Took = time.Since(startTime).Milliseconds()
	s.logger.DebugContext(ctx, "search executed",
		"operation", "search",
		"entity_type", string(query.Type),
		"query_id", queryID,
		"lexical_hits", len(lexicalHits),
		"fuzzy_hits", len(fuzzyHits),
		"took_ms", result.Took,
	)
	return result, nil
}

// withinDistance reports whether the normalized query is within
// maxDistance edits of any field text. maxDistance <= 0 disables the
// edit-distance admission path.
func withinDistance(query string, fields []string, maxDistance int) bool {
	if maxDistance <= 0 {
		return false
	}
	for _, field := range fields {
		if typoutil.DistanceWithLimit(query, field, maxDistance) <= maxDistance {
			return true
		}
	}
	return false
}

// lessID orders UUIDs ascending by their byte (and therefore string) form.
func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
