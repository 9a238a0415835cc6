// Package vector computes the derived search vector of a catalog entity:
// the weighted lexeme multiset that feeds the inverted index. The vector is
// a pure function of the entity's weighted fields and the field weight
// policy; it is recomputed on every write and never stored independently.
package vector

import (
	"fmt"

	"github.com/tendelabs/catalog-search/config"
	"github.com/tendelabs/catalog-search/index"
	"github.com/tendelabs/catalog-search/internal/tokenizer"
	"github.com/tendelabs/catalog-search/model"
)

// Builder turns weighted field text into search vectors under a configured
// field weight policy.
type Builder struct {
	settings *config.Settings
}

// NewBuilder creates a Builder. Settings must already have defaults
// applied.
func NewBuilder(settings *config.Settings) (*Builder, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	return &Builder{settings: settings}, nil
}

// Build computes the derived search vector for an entity's weighted
// fields. Tokens from all fields merge into one vector; a lexeme seen in
// several fields keeps the highest tier and the summed occurrence count.
// Empty or absent fields contribute nothing.
func (b *Builder) Build(entityType model.EntityType, fields map[string]string) (model.SearchVector, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("unknown entity type '%s'", entityType)
	}

	policy := b.settings.PolicyFor(entityType)
	vec := make(model.SearchVector)

	for field, text := range fields {
		if text == "" {
			continue
		}
		tier := policy.TierOf(field)

		for _, lexeme := range tokenizer.Lexemes(text) {
			entry, seen := vec[lexeme]
			if !seen {
				vec[lexeme] = model.VectorEntry{Tier: tier, Count: 1}
				continue
			}
			entry.Count++
			if tier.Higher(entry.Tier) {
				entry.Tier = tier
			}
			vec[lexeme] = entry
		}
	}

	return vec, nil
}

// Terms converts a search vector into the per-lexeme payload of the
// inverted index, resolving tiers to their numeric ranking weights.
func (b *Builder) Terms(vec model.SearchVector) map[string]index.TermInfo {
	terms := make(map[string]index.TermInfo, len(vec))
	for lexeme, entry := range vec {
		terms[lexeme] = index.TermInfo{
			Weight: config.TierWeight(entry.Tier),
			Count:  entry.Count,
		}
	}
	return terms
}

// FieldEntries builds the per-field trigram payload for an entity: the
// normalized text and shingle set of every non-empty weighted field.
func (b *Builder) FieldEntries(fields map[string]string) map[string]index.FieldEntry {
	entries := make(map[string]index.FieldEntry, len(fields))
	for field, text := range fields {
		norm := tokenizer.Normalize(text)
		if norm == "" {
			continue
		}
		entries[field] = index.FieldEntry{
			Text:     norm,
			Shingles: tokenizer.Shingles(norm),
		}
	}
	return entries
}
