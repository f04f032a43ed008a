package mapping

import (
	"context"
	"sync"
	"testing"

	"sheetwise/domain/mapping"
	"sheetwise/ports"
)

// countingDictionary counts backing lookups to observe cache behavior.
type countingDictionary struct {
	mu      sync.Mutex
	lookups map[string]int
	inner   ports.Dictionary
}

func newCountingDictionary(inner ports.Dictionary) *countingDictionary {
	return &countingDictionary{lookups: make(map[string]int), inner: inner}
}

func (d *countingDictionary) FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error) {
	d.mu.Lock()
	d.lookups[name]++
	d.mu.Unlock()
	return d.inner.FindStandardField(ctx, name)
}

func (d *countingDictionary) AllSynonyms(ctx context.Context) (map[string][]string, error) {
	return d.inner.AllSynonyms(ctx)
}

func (d *countingDictionary) SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error {
	return d.inner.SaveMapping(ctx, field, originalColumn, source)
}

func (d *countingDictionary) count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups[name]
}

// TestCachedDictionaryReadThrough tests that repeated lookups hit the
// backing store only once
func TestCachedDictionaryReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := newCountingDictionary(NewStaticDictionary())
	cached := NewCachedDictionary(backing)

	for i := 0; i < 3; i++ {
		field, _, err := cached.FindStandardField(ctx, "金额")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if field == nil || field.Name != "amount" {
			t.Fatalf("lookup = %+v, expected amount", field)
		}
	}

	if got := backing.count("金额"); got != 1 {
		t.Errorf("backing lookups = %d, expected 1", got)
	}
}

// TestCachedDictionaryNegativeCaching tests that misses are cached too
func TestCachedDictionaryNegativeCaching(t *testing.T) {
	ctx := context.Background()
	backing := newCountingDictionary(NewStaticDictionary())
	cached := NewCachedDictionary(backing)

	for i := 0; i < 3; i++ {
		field, _, err := cached.FindStandardField(ctx, "完全未知列")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if field != nil {
			t.Fatalf("unexpected hit: %+v", field)
		}
	}

	if got := backing.count("完全未知列"); got != 1 {
		t.Errorf("backing lookups = %d, expected 1", got)
	}
}

// TestCachedDictionarySaveInvalidates tests that a learned mapping drops
// the stale negative entry
func TestCachedDictionarySaveInvalidates(t *testing.T) {
	ctx := context.Background()
	cached := NewCachedDictionary(NewStaticDictionary())

	field, _, err := cached.FindStandardField(ctx, "本月销售")
	if err != nil || field != nil {
		t.Fatalf("expected initial miss, got %+v (%v)", field, err)
	}

	if err := cached.SaveMapping(ctx, "amount", "本月销售", mapping.SourceAISemantic); err != nil {
		t.Fatalf("SaveMapping failed: %v", err)
	}

	field, viaSynonym, err := cached.FindStandardField(ctx, "本月销售")
	if err != nil {
		t.Fatalf("lookup after save failed: %v", err)
	}
	if field == nil || field.Name != "amount" {
		t.Fatalf("lookup after save = %+v, expected amount", field)
	}
	if !viaSynonym {
		t.Error("learned column must resolve via synonym")
	}
}

// TestStaticDictionarySynonyms tests the built-in schema lookups
func TestStaticDictionarySynonyms(t *testing.T) {
	ctx := context.Background()
	d := NewStaticDictionary()

	field, viaSynonym, err := d.FindStandardField(ctx, "营业收入")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if field == nil || field.Name != "amount" || !viaSynonym {
		t.Errorf("synonym lookup = %+v viaSynonym=%v", field, viaSynonym)
	}

	field, viaSynonym, err = d.FindStandardField(ctx, "REGION")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if field == nil || field.Name != "region" || viaSynonym {
		t.Errorf("case-insensitive exact lookup = %+v viaSynonym=%v", field, viaSynonym)
	}

	synonyms, err := d.AllSynonyms(ctx)
	if err != nil {
		t.Fatalf("AllSynonyms failed: %v", err)
	}
	if len(synonyms["amount"]) == 0 {
		t.Error("expected seeded synonyms for amount")
	}
}
