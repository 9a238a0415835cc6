package index

import "github.com/google/uuid"

// Posting records that a lexeme occurs in one entity: the tier weight of
// the best field it was found in and its occurrence count across fields.
type Posting struct {
	EntityID uuid.UUID
	Weight   float64
	TermFreq int
}

// PostingList is kept ordered by EntityID ascending so that iteration order
// (and therefore scoring and tie-breaking) is deterministic.
type PostingList []Posting

// TermInfo is the per-lexeme payload handed to the inverted index when an
// entity's vector is (re)indexed.
type TermInfo struct {
	Weight float64
	Count  int
}
