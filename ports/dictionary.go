package ports

import (
	"context"

	"sheetwise/domain/mapping"
)

// Dictionary is the read-through field dictionary collaborator.
// Lookups are cheap and consulted for every column before the classifier;
// SaveMapping is the learning-loop write path for high-confidence classifier
// results and user-confirmed manual mappings.
type Dictionary interface {
	// FindStandardField resolves a raw column name by exact or synonym match.
	// Returns (field, matched-via-synonym, found).
	FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error)

	// AllSynonyms lists every registered synonym keyed by standard field name.
	AllSynonyms(ctx context.Context) (map[string][]string, error)

	// SaveMapping records a learned column-to-field mapping.
	SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error
}
