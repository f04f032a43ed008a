// Package postgres provides the sqlx-backed collaborators: the field
// dictionary and the sheet persistence store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sheetwise/domain/mapping"
	"sheetwise/ports"
)

// dictionaryRepository implements ports.Dictionary on postgres
type dictionaryRepository struct {
	db *sqlx.DB
}

// NewDictionaryRepository creates a new dictionary repository
func NewDictionaryRepository(db *sqlx.DB) ports.Dictionary {
	return &dictionaryRepository{db: db}
}

// FindStandardField resolves a column name against field names first, then
// registered synonyms. Matching is case-insensitive.
func (r *dictionaryRepository) FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error) {
	field, err := r.fieldByExactName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if field != nil {
		return field, false, nil
	}

	query := `SELECT f.name, f.display_name, f.data_type, f.required, f.match_confidence
		FROM standard_fields f
		JOIN field_synonyms s ON s.field_name = f.name
		WHERE LOWER(s.synonym) = LOWER($1)
		LIMIT 1`

	field, err = r.scanField(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, false, err
	}
	if field == nil {
		return nil, false, nil
	}
	return field, true, nil
}

func (r *dictionaryRepository) fieldByExactName(ctx context.Context, name string) (*mapping.StandardField, error) {
	query := `SELECT name, display_name, data_type, required, match_confidence
		FROM standard_fields
		WHERE LOWER(name) = LOWER($1) OR LOWER(display_name) = LOWER($1)
		LIMIT 1`
	return r.scanField(r.db.QueryRowContext(ctx, query, name))
}

func (r *dictionaryRepository) scanField(row *sql.Row) (*mapping.StandardField, error) {
	var f mapping.StandardField
	err := row.Scan(&f.Name, &f.DisplayName, &f.DataType, &f.Required, &f.MatchConfidence)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query standard field: %w", err)
	}

	synonyms, err := r.synonymsOf(f.Name)
	if err != nil {
		return nil, err
	}
	f.Synonyms = synonyms
	return &f, nil
}

func (r *dictionaryRepository) synonymsOf(fieldName string) ([]string, error) {
	var synonyms pq.StringArray
	err := r.db.QueryRow(
		`SELECT COALESCE(array_agg(synonym ORDER BY synonym), '{}') FROM field_synonyms WHERE field_name = $1`,
		fieldName,
	).Scan(&synonyms)
	if err != nil {
		return nil, fmt.Errorf("failed to query synonyms: %w", err)
	}
	return synonyms, nil
}

// AllSynonyms lists every registered synonym keyed by standard field name
func (r *dictionaryRepository) AllSynonyms(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT field_name, synonym FROM field_synonyms ORDER BY field_name, synonym`)
	if err != nil {
		return nil, fmt.Errorf("failed to query synonyms: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var field, synonym string
		if err := rows.Scan(&field, &synonym); err != nil {
			return nil, fmt.Errorf("failed to scan synonym row: %w", err)
		}
		out[field] = append(out[field], synonym)
	}
	return out, rows.Err()
}

// SaveMapping records a learned column-to-field mapping. Saving the same
// synonym twice is a no-op, so the learning loop stays idempotent.
func (r *dictionaryRepository) SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error {
	query := `INSERT INTO field_synonyms (field_name, synonym, source, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (field_name, synonym) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, field, originalColumn, string(source)); err != nil {
		return fmt.Errorf("failed to save mapping %q -> %q: %w", originalColumn, field, err)
	}
	return nil
}
