package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"sheetwise/domain/batch"
	"sheetwise/domain/core"
	"sheetwise/ports"
)

// uploadRepository implements ports.Persistence: one upload row per sheet,
// classified data rows as JSON documents alongside the field mappings.
type uploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *sqlx.DB) ports.Persistence {
	return &uploadRepository{db: db}
}

// SaveSheet persists one sheet's classified rows and mappings in a single
// transaction. A row that cannot be encoded counts as failed but does not
// abort the rest of the sheet.
func (r *uploadRepository) SaveSheet(ctx context.Context, result *batch.SheetResult) (*batch.PersistReceipt, error) {
	uploadID := core.UploadID(core.NewID())

	mappingsJSON, err := json.Marshal(result.Mappings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field mappings: %w", err)
	}
	profilesJSON, err := json.Marshal(result.Profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal column profiles: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sheet_uploads (id, sheet_index, sheet_name, orientation, transposed, headers, field_mappings, column_profiles, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uploadID.String(), result.SheetIndex, result.SheetName, string(result.Orientation),
		result.Transposed, jsonArray(result.Table.Headers), mappingsJSON, profilesJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert upload: %w", err)
	}

	saved := 0
	failed := 0
	for i, row := range result.Table.Rows {
		doc, err := json.Marshal(rowDocument(result.Table.Headers, row))
		if err != nil {
			failed++
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_upload_rows (upload_id, row_index, data) VALUES ($1, $2, $3)`,
			uploadID.String(), i, doc,
		); err != nil {
			return nil, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upload: %w", err)
	}

	log.Printf("[UploadRepository] sheet %q: saved %d/%d rows as upload %s",
		result.SheetName, saved, len(result.Table.Rows), uploadID)
	return &batch.PersistReceipt{
		Success:    true,
		UploadID:   uploadID,
		SavedRows:  saved,
		TotalRows:  len(result.Table.Rows),
		FailedRows: failed,
	}, nil
}

// rowDocument keys a data row by its header names
func rowDocument(headers []string, row []string) map[string]string {
	doc := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			doc[h] = row[i]
		} else {
			doc[h] = ""
		}
	}
	return doc
}

func jsonArray(values []string) []byte {
	data, err := json.Marshal(values)
	if err != nil {
		return []byte("[]")
	}
	return data
}
