package postgres

import (
	"log"

	"github.com/jmoiron/sqlx"

	"sheetwise/internal/errors"
)

// Migrate creates the dictionary and upload tables when missing.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS standard_fields (
		name TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		data_type TEXT NOT NULL,
		required BOOLEAN NOT NULL DEFAULT FALSE,
		match_confidence INT NOT NULL DEFAULT 90
	)`,
	`CREATE TABLE IF NOT EXISTS field_synonyms (
		field_name TEXT NOT NULL REFERENCES standard_fields(name) ON DELETE CASCADE,
		synonym TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'MANUAL',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (field_name, synonym)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_uploads (
		id TEXT PRIMARY KEY,
		sheet_index INT NOT NULL,
		sheet_name TEXT NOT NULL,
		orientation TEXT NOT NULL,
		transposed BOOLEAN NOT NULL,
		headers JSONB NOT NULL,
		field_mappings JSONB NOT NULL,
		column_profiles JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_upload_rows (
		upload_id TEXT NOT NULL REFERENCES sheet_uploads(id) ON DELETE CASCADE,
		row_index INT NOT NULL,
		data JSONB NOT NULL,
		PRIMARY KEY (upload_id, row_index)
	)`,
}

// Migrate applies the schema statements in order
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "schema migration failed")
		}
	}
	log.Printf("[Migrate] schema up to date (%d statements)", len(schema))
	return nil
}
