package ports

import (
	"context"

	"sheetwise/domain/mapping"
)

// Classifier is the external semantic classifier collaborator.
// One batched call per sheet; the response joins back to the request by
// original column name, never by position.
type Classifier interface {
	// Available gates every call. Unavailability is not an error: the
	// mapper degrades to its deterministic fallback path.
	Available() bool

	// Classify maps the batch of unmatched columns to standard fields.
	Classify(ctx context.Context, columns []mapping.ColumnSample) ([]mapping.SemanticMapping, error)
}
