package store

import (
	"github.com/google/uuid"

	"github.com/tendelabs/catalog-search/model"
)

// Key prefixes. Entity keys are prefix + ':' + canonical UUID string, so a
// prefix scan enumerates one collection in id order.
const (
	ingredientPrefix = "ing"
	formulaPrefix    = "frm"
	schemaMarkerKey  = "meta:schema"
)

func prefixFor(entityType model.EntityType) string {
	if entityType == model.EntityTypeFormula {
		return formulaPrefix
	}
	return ingredientPrefix
}

func makeEntityKey(entityType model.EntityType, id uuid.UUID) []byte {
	return []byte(prefixFor(entityType) + ":" + id.String())
}

func makeScanPrefix(entityType model.EntityType) []byte {
	return []byte(prefixFor(entityType) + ":")
}
