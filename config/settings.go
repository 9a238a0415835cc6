// Package config provides configuration for the catalog search subsystem:
// the field weight policy that assigns importance tiers to entity fields,
// and the fuzzy-matching knobs used by the query planner.
package config

import (
	"fmt"

	"github.com/tendelabs/catalog-search/model"
)

// Tier weights mirror the classic four-level full-text ranking scheme:
// an A-tier match is worth 2.5x a B-tier match, and so on down.
const (
	WeightTierA = 1.0
	WeightTierB = 0.4
	WeightTierC = 0.2
	WeightTierD = 0.1
)

// TierWeight returns the numeric ranking weight of a tier.
func TierWeight(t model.Tier) float64 {
	switch t {
	case model.TierA:
		return WeightTierA
	case model.TierB:
		return WeightTierB
	case model.TierC:
		return WeightTierC
	default:
		return WeightTierD
	}
}

// FieldWeightPolicy maps each weighted field of an entity type to its
// importance tier. The policy is static configuration: changing it requires
// an explicit full reindex.
type FieldWeightPolicy map[string]model.Tier

// TierOf returns the tier assigned to a field, or TierD if the field is not
// listed in the policy.
func (p FieldWeightPolicy) TierOf(field string) model.Tier {
	if tier, ok := p[field]; ok {
		return tier
	}
	return model.TierD
}

// Settings contains all configuration for the search subsystem.
type Settings struct {
	// Policies assigns a field weight policy per entity type.
	Policies map[model.EntityType]FieldWeightPolicy `json:"policies"`

	// SimilarityThreshold is the minimum trigram similarity for an entity
	// with no lexical match to appear in results. A pointer so that an
	// explicit 0.0 (admit every fuzzy candidate) is distinguishable from
	// unset; nil takes the default.
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`

	// MaxTypoDistance admits fuzzy candidates below the similarity
	// threshold when the edit distance between the query and a field is at
	// most this value. Zero disables the edit-distance path.
	MaxTypoDistance int `json:"max_typo_distance"`
}

// DefaultSimilarityThreshold applies when no threshold is configured.
const DefaultSimilarityThreshold = 0.30

// DefaultSettings returns the settings used when nothing is configured:
// ingredient names and formula names rank at tier A, units and descriptions
// at tier B.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills in zero-valued settings.
func (s *Settings) ApplyDefaults() {
	if s.Policies == nil {
		s.Policies = map[model.EntityType]FieldWeightPolicy{}
	}
	if _, ok := s.Policies[model.EntityTypeIngredient]; !ok {
		s.Policies[model.EntityTypeIngredient] = FieldWeightPolicy{
			"name": model.TierA,
			"unit": model.TierB,
		}
	}
	if _, ok := s.Policies[model.EntityTypeFormula]; !ok {
		s.Policies[model.EntityTypeFormula] = FieldWeightPolicy{
			"name":        model.TierA,
			"description": model.TierB,
		}
	}
	if s.SimilarityThreshold == nil {
		threshold := DefaultSimilarityThreshold
		s.SimilarityThreshold = &threshold
	}
}

// Validate returns a list of configuration problems, empty when the
// settings are usable.
func (s *Settings) Validate() []string {
	var problems []string

	if s.SimilarityThreshold != nil && (*s.SimilarityThreshold < 0 || *s.SimilarityThreshold > 1) {
		problems = append(problems, fmt.Sprintf("similarity_threshold %v is outside [0, 1]", *s.SimilarityThreshold))
	}
	if s.MaxTypoDistance < 0 {
		problems = append(problems, fmt.Sprintf("max_typo_distance %d is negative", s.MaxTypoDistance))
	}

	for entityType, policy := range s.Policies {
		if !entityType.Valid() {
			problems = append(problems, fmt.Sprintf("unknown entity type '%s' in policies", entityType))
		}
		for field, tier := range policy {
			if field == "" {
				problems = append(problems, fmt.Sprintf("empty field name in policy for '%s'", entityType))
			}
			if tier > model.TierD {
				problems = append(problems, fmt.Sprintf("field '%s' of '%s' has invalid tier %d", field, entityType, tier))
			}
		}
	}

	return problems
}

// PolicyFor returns the field weight policy for an entity type.
func (s *Settings) PolicyFor(entityType model.EntityType) FieldWeightPolicy {
	return s.Policies[entityType]
}
