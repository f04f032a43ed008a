package mapping

import (
	"context"
	"strings"
	"sync"

	"sheetwise/domain/mapping"
	"sheetwise/ports"
)

// CachedDictionary is a read-through cache in front of a Dictionary
// implementation. Lookups are normalized to lower case. Writes go through
// to the backing store and update the cache in place.
type CachedDictionary struct {
	backing ports.Dictionary

	mu     sync.RWMutex
	fields map[string]*cacheEntry
}

type cacheEntry struct {
	field      *mapping.StandardField
	viaSynonym bool
}

// NewCachedDictionary wraps a backing dictionary with an in-memory cache
func NewCachedDictionary(backing ports.Dictionary) *CachedDictionary {
	return &CachedDictionary{
		backing: backing,
		fields:  make(map[string]*cacheEntry),
	}
}

// FindStandardField resolves a column name, consulting the cache first.
// Misses are cached too so repeated unknown columns stay cheap.
func (c *CachedDictionary) FindStandardField(ctx context.Context, name string) (*mapping.StandardField, bool, error) {
	key := normalize(name)

	c.mu.RLock()
	entry, hit := c.fields[key]
	c.mu.RUnlock()
	if hit {
		if entry == nil {
			return nil, false, nil
		}
		return entry.field, entry.viaSynonym, nil
	}

	field, viaSynonym, err := c.backing.FindStandardField(ctx, name)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	if field == nil {
		c.fields[key] = nil
	} else {
		c.fields[key] = &cacheEntry{field: field, viaSynonym: viaSynonym}
	}
	c.mu.Unlock()
	return field, viaSynonym, nil
}

// AllSynonyms delegates to the backing store
func (c *CachedDictionary) AllSynonyms(ctx context.Context) (map[string][]string, error) {
	return c.backing.AllSynonyms(ctx)
}

// SaveMapping writes through and primes the cache for the learned column
func (c *CachedDictionary) SaveMapping(ctx context.Context, field string, originalColumn string, source mapping.MappingSource) error {
	if err := c.backing.SaveMapping(ctx, field, originalColumn, source); err != nil {
		return err
	}

	// The freshly learned column now resolves via synonym; invalidate so the
	// next lookup reads the authoritative row back.
	c.mu.Lock()
	delete(c.fields, normalize(originalColumn))
	c.mu.Unlock()
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
