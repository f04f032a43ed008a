package mapping

import (
	"context"
	"sync"

	"sheetwise/domain/mapping"
	"sheetwise/ports"
)

// StaticDictionary is an in-memory dictionary seeded with the common
// business schema. It backs the CLI and tests, where no database is wired,
// and records learned mappings for the lifetime of the process.
type StaticDictionary struct {
	mu      sync.RWMutex
	fields  []mapping.StandardField
	learned map[string]string // normalized synonym -> field name
}

// NewStaticDictionary seeds the built-in schema
func NewStaticDictionary() *StaticDictionary {
	return &StaticDictionary{
		learned: make(map[string]string),
		fields: []mapping.StandardField{
			{Name: "order_date", DisplayName: "日期", DataType: mapping.FieldDate, MatchConfidence: 95,
				Synonyms: []string{"date", "日期", "时间", "年月", "月份"}},
			{Name: "amount", DisplayName: "金额", DataType: mapping.FieldAmount, MatchConfidence: 95,
				Synonyms: []string{"金额", "销售额", "营业收入", "收入", "revenue", "sales"}},
			{Name: "cost", DisplayName: "成本", DataType: mapping.FieldAmount, MatchConfidence: 92,
				Synonyms: []string{"成本", "费用", "支出", "expense"}},
			{Name: "quantity", DisplayName: "数量", DataType: mapping.FieldQuantity, MatchConfidence: 92,
				Synonyms: []string{"数量", "件数", "qty", "count"}},
			{Name: "ratio", DisplayName: "比率", DataType: mapping.FieldPercentage, MatchConfidence: 90,
				Synonyms: []string{"比例", "占比", "毛利率", "rate"}},
			{Name: "record_id", DisplayName: "编号", DataType: mapping.FieldID, MatchConfidence: 90,
				Synonyms: []string{"编号", "单号", "序号", "id"}},
			{Name: "category", DisplayName: "类别", DataType: mapping.FieldCategorical, MatchConfidence: 88,
				Synonyms: []string{"类别", "分类", "类型", "type"}},
			{Name: "region", DisplayName: "区域", DataType: mapping.FieldCategorical, MatchConfidence: 88,
				Synonyms: []string{"区域", "地区", "省份", "城市", "area"}},
		},
	}
}

// FindStandardField resolves by field name, display name, or synonym
func (d *StaticDictionary) FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error) {
	key := normalize(name)
	if key == "" {
		return nil, false, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := range d.fields {
		f := &d.fields[i]
		if normalize(f.Name) == key || normalize(f.DisplayName) == key {
			copied := *f
			return &copied, false, nil
		}
	}
	for i := range d.fields {
		f := &d.fields[i]
		for _, syn := range f.Synonyms {
			if normalize(syn) == key {
				copied := *f
				return &copied, true, nil
			}
		}
	}
	if fieldName, ok := d.learned[key]; ok {
		for i := range d.fields {
			if d.fields[i].Name == fieldName {
				copied := d.fields[i]
				return &copied, true, nil
			}
		}
	}
	return nil, false, nil
}

// AllSynonyms lists the seeded and learned synonyms per field
func (d *StaticDictionary) AllSynonyms(ctx context.Context) (map[string][]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string][]string, len(d.fields))
	for _, f := range d.fields {
		out[f.Name] = append([]string(nil), f.Synonyms...)
	}
	for syn, field := range d.learned {
		out[field] = append(out[field], syn)
	}
	return out, nil
}

// SaveMapping records a learned synonym in memory
func (d *StaticDictionary) SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.learned[normalize(originalColumn)] = field
	return nil
}

// AddField registers an extra standard field, mainly for tests
func (d *StaticDictionary) AddField(f mapping.StandardField) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = append(d.fields, f)
}

var _ ports.Dictionary = (*StaticDictionary)(nil)
