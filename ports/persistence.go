package ports

import (
	"context"

	"sheetwise/domain/batch"
)

// Persistence accepts one sheet's classified rows and field mappings.
// The core treats this as a single opaque call per sheet. Writes for the
// same upload target must not interleave; the orchestrator serializes them.
type Persistence interface {
	SaveSheet(ctx context.Context, result *batch.SheetResult) (*batch.PersistReceipt, error)
}
