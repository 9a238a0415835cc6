// Package model defines the catalog entities and their derived search
// representation.
package model

import (
	"github.com/google/uuid"
)

// EntityType identifies a searchable catalog collection.
type EntityType string

const (
	EntityTypeIngredient EntityType = "ingredient"
	EntityTypeFormula    EntityType = "formula"
)

// Valid reports whether t names a known collection.
func (t EntityType) Valid() bool {
	return t == EntityTypeIngredient || t == EntityTypeFormula
}

// Tier is one of four ordered importance levels assigned to a weighted
// field. TierA is the highest; a lexeme found in several fields keeps the
// highest tier it was seen at.
type Tier byte

const (
	TierA Tier = iota
	TierB
	TierC
	TierD
)

func (t Tier) String() string {
	switch t {
	case TierA:
		return "A"
	case TierB:
		return "B"
	case TierC:
		return "C"
	case TierD:
		return "D"
	}
	return "?"
}

// Higher reports whether t outranks other.
func (t Tier) Higher(other Tier) bool {
	return t < other
}

// VectorEntry records the tier and occurrence count of one lexeme in a
// derived search vector.
type VectorEntry struct {
	Tier  Tier `json:"tier"`
	Count int  `json:"count"`
}

// SearchVector is the derived, weighted lexeme multiset of an entity. It is
// a pure function of the entity's committed weighted fields: it is computed
// on every write, never accepted as input, and deleted with its owner.
type SearchVector map[string]VectorEntry

// Length returns the total number of token occurrences in the vector.
func (v SearchVector) Length() int {
	total := 0
	for _, entry := range v {
		total += entry.Count
	}
	return total
}

// Ingredient is a purchasable raw material.
type Ingredient struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Unit         string       `json:"unit"`
	CostPerUnit  float64      `json:"cost_per_unit"`
	Density      *float64     `json:"density,omitempty"`
	SearchVector SearchVector `json:"derived_search_vector,omitempty"`
}

// WeightedFields returns the text fields that feed the derived search
// vector. Absent optional fields contribute nothing.
func (i *Ingredient) WeightedFields() map[string]string {
	return map[string]string{
		"name": i.Name,
		"unit": i.Unit,
	}
}

// Formula is a named composition of ingredients. The composition itself is
// opaque to search; only name and description are indexed.
type Formula struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Ingredients  map[string]float64 `json:"ingredients,omitempty"`
	Mass         *float64           `json:"mass,omitempty"`
	SearchVector SearchVector       `json:"derived_search_vector,omitempty"`
}

// WeightedFields returns the text fields that feed the derived search
// vector.
func (f *Formula) WeightedFields() map[string]string {
	return map[string]string{
		"name":        f.Name,
		"description": f.Description,
	}
}
