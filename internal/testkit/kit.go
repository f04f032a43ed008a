// Package testkit provides in-memory collaborators and workbook fixtures
// for exercising the pipeline without a database or network.
package testkit

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetwise/domain/batch"
	"sheetwise/domain/core"
	"sheetwise/domain/grid"
	"sheetwise/domain/mapping"
	"sheetwise/ports"
)

// SheetSpec describes one sheet of a fixture workbook.
type SheetSpec struct {
	Name   string
	Rows   [][]any
	Merges []string // "A1:C1" style ranges
}

// BuildWorkbook renders real xlsx bytes from the given sheets, merged
// cells included, so adapter-level tests read exactly what production reads.
func BuildWorkbook(sheets ...SheetSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return nil, err
			}
		}
		for r, row := range sheet.Rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
					return nil, err
				}
			}
		}
		for _, rng := range sheet.Merges {
			parts := strings.SplitN(rng, ":", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("merge range %q must be \"A1:C1\" form", rng)
			}
			if err := f.MergeCell(sheet.Name, parts[0], parts[1]); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustBuildWorkbook panics on builder errors; fixtures only.
func MustBuildWorkbook(sheets ...SheetSpec) []byte {
	data, err := BuildWorkbook(sheets...)
	if err != nil {
		panic(err)
	}
	return data
}

// GridSheet is one in-memory sheet for GridWorkbook.
type GridSheet struct {
	Name   string
	Cells  [][]string
	Merges []grid.MergedRegion
}

// GridWorkbook is an in-memory Workbook for pipeline tests that do not
// need the xlsx reader in the loop.
type GridWorkbook struct {
	Sheets  []GridSheet
	ReadErr error
}

func (w *GridWorkbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

func (w *GridWorkbook) ReadGrid(sheetIndex int) (*grid.RawGrid, error) {
	if w.ReadErr != nil {
		return nil, w.ReadErr
	}
	if sheetIndex < 0 || sheetIndex >= len(w.Sheets) {
		return nil, fmt.Errorf("sheet index %d out of range", sheetIndex)
	}
	cells := w.Sheets[sheetIndex].Cells

	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}
	squared := make([][]string, len(cells))
	for i, row := range cells {
		squared[i] = make([]string, width)
		copy(squared[i], row)
	}
	return &grid.RawGrid{Cells: squared}, nil
}

func (w *GridWorkbook) MergedRegions(sheetIndex int) ([]grid.MergedRegion, error) {
	if sheetIndex < 0 || sheetIndex >= len(w.Sheets) {
		return nil, fmt.Errorf("sheet index %d out of range", sheetIndex)
	}
	return w.Sheets[sheetIndex].Merges, nil
}

func (w *GridWorkbook) Close() error { return nil }

// GridOpener hands out the same GridWorkbook for any byte payload.
type GridOpener struct {
	Workbook *GridWorkbook
	Err      error
}

func (o *GridOpener) Open(data []byte) (ports.Workbook, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Workbook, nil
}

// StubClassifier is a scripted semantic classifier.
type StubClassifier struct {
	Online    bool
	Responses []mapping.SemanticMapping
	Err       error

	mu    sync.Mutex
	calls [][]mapping.ColumnSample
}

func (c *StubClassifier) Available() bool { return c.Online }

func (c *StubClassifier) Classify(ctx context.Context, columns []mapping.ColumnSample) ([]mapping.SemanticMapping, error) {
	c.mu.Lock()
	copied := make([]mapping.ColumnSample, len(columns))
	copy(copied, columns)
	c.calls = append(c.calls, copied)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	return c.Responses, nil
}

// Calls returns every batch the classifier received
func (c *StubClassifier) Calls() [][]mapping.ColumnSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]mapping.ColumnSample(nil), c.calls...)
}

// SavedMapping records one learning-loop write.
type SavedMapping struct {
	Field          string
	OriginalColumn string
	Source         mapping.MappingSource
}

// MemoryDictionary is an empty dictionary that tests seed explicitly.
type MemoryDictionary struct {
	mu       sync.Mutex
	fields   map[string]mapping.StandardField
	synonyms map[string]string // normalized synonym -> field name
	saved    []SavedMapping

	FindErr error
}

func NewMemoryDictionary() *MemoryDictionary {
	return &MemoryDictionary{
		fields:   make(map[string]mapping.StandardField),
		synonyms: make(map[string]string),
	}
}

// AddField registers a standard field and its synonyms
func (d *MemoryDictionary) AddField(f mapping.StandardField) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields[f.Name] = f
	for _, syn := range f.Synonyms {
		d.synonyms[normalizeName(syn)] = f.Name
	}
}

func (d *MemoryDictionary) FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error) {
	if d.FindErr != nil {
		return nil, false, d.FindErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	key := normalizeName(name)
	for _, f := range d.fields {
		if normalizeName(f.Name) == key || normalizeName(f.DisplayName) == key {
			copied := f
			return &copied, false, nil
		}
	}
	if fieldName, ok := d.synonyms[key]; ok {
		if f, ok := d.fields[fieldName]; ok {
			copied := f
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (d *MemoryDictionary) AllSynonyms(ctx context.Context) (map[string][]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string][]string)
	for syn, field := range d.synonyms {
		out[field] = append(out[field], syn)
	}
	return out, nil
}

func (d *MemoryDictionary) SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saved = append(d.saved, SavedMapping{Field: field, OriginalColumn: originalColumn, Source: source})
	d.synonyms[normalizeName(originalColumn)] = field
	return nil
}

// Saved returns the learning-loop writes in order
func (d *MemoryDictionary) Saved() []SavedMapping {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SavedMapping(nil), d.saved...)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MemoryBlobStore keeps blobs in a map keyed by sequential paths.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int

	StoreErr error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Store(ctx context.Context, data []byte) (string, error) {
	if s.StoreErr != nil {
		return "", s.StoreErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	path := fmt.Sprintf("blob-%d", s.seq)
	s.blobs[path] = append([]byte(nil), data...)
	return path, nil
}

func (s *MemoryBlobStore) Load(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	return data, nil
}

func (s *MemoryBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[path]
	return ok, nil
}

// Delete drops a blob, for retry precondition tests
func (s *MemoryBlobStore) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
}

// RecordingPersistence records every save and can fail, stall, or panic
// for specific sheets by name.
type RecordingPersistence struct {
	mu    sync.Mutex
	saved []*batch.SheetResult

	FailFor  map[string]error
	DelayFor map[string]time.Duration
	PanicFor map[string]string
}

func NewRecordingPersistence() *RecordingPersistence {
	return &RecordingPersistence{
		FailFor:  make(map[string]error),
		DelayFor: make(map[string]time.Duration),
		PanicFor: make(map[string]string),
	}
}

func (p *RecordingPersistence) SaveSheet(ctx context.Context, result *batch.SheetResult) (*batch.PersistReceipt, error) {
	if d, ok := p.DelayFor[result.SheetName]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if msg, ok := p.PanicFor[result.SheetName]; ok {
		panic(msg)
	}
	if err, ok := p.FailFor[result.SheetName]; ok {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, result)
	rows := len(result.Table.Rows)
	return &batch.PersistReceipt{
		Success:   true,
		UploadID:  core.UploadID(core.NewID()),
		SavedRows: rows,
		TotalRows: rows,
	}, nil
}

// Saved returns the persisted results in save order
func (p *RecordingPersistence) Saved() []*batch.SheetResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*batch.SheetResult(nil), p.saved...)
}

// ProgressCollector accumulates lifecycle events across worker goroutines.
type ProgressCollector struct {
	mu     sync.Mutex
	events []ports.ProgressEvent
}

func (c *ProgressCollector) Publish(event ports.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns the collected events in publish order
func (c *ProgressCollector) Events() []ports.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.ProgressEvent(nil), c.events...)
}

// StatesFor filters the collected states for one sheet name
func (c *ProgressCollector) StatesFor(sheetName string) []batch.TaskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []batch.TaskState
	for _, e := range c.events {
		if e.SheetName == sheetName {
			out = append(out, e.State)
		}
	}
	return out
}
