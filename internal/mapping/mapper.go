// Package mapping maps classified columns to standard schema fields and
// chart-display roles: a cheap dictionary pass first, one batched semantic
// classifier call for the residue, then conflict resolution.
package mapping

import (
	"context"
	"log"
	"sort"

	"sheetwise/domain/mapping"
	"sheetwise/domain/profile"
	"sheetwise/ports"
)

const maxClassifierSamples = 5

// Mapper runs the two-phase classification and the post-processing pass.
// The classifier is optional; the dictionary is not.
type Mapper struct {
	dictionary ports.Dictionary
	classifier ports.Classifier
}

// NewMapper creates a field mapper. classifier may be nil.
func NewMapper(dictionary ports.Dictionary, classifier ports.Classifier) *Mapper {
	return &Mapper{dictionary: dictionary, classifier: classifier}
}

// Map resolves every profiled column to a FieldMapping, in input order.
func (m *Mapper) Map(ctx context.Context, profiles []profile.ColumnProfile) ([]mapping.FieldMapping, error) {
	mappings := make([]mapping.FieldMapping, len(profiles))
	var unmatched []int

	// Phase 1: dictionary lookup by column name
	for i := range profiles {
		p := &profiles[i]
		field, viaSynonym, err := m.dictionary.FindStandardField(ctx, p.Name)
		if err != nil {
			log.Printf("[FieldMapper] dictionary lookup failed for %q: %v", p.Name, err)
		}
		if field == nil {
			unmatched = append(unmatched, i)
			continue
		}
		source := mapping.SourceExactMatch
		if viaSynonym {
			source = mapping.SourceSynonymMatch
		}
		role := roleForFieldType(field.DataType, p.UniqueCount)
		mappings[i] = mapping.FieldMapping{
			OriginalColumn: p.Name,
			StandardField:  field.Name,
			Source:         source,
			Confidence:     field.MatchConfidence,
			ChartAxis:      role.axis,
			Aggregation:    role.aggregation,
			AxisPriority:   role.priority,
		}
	}
	log.Printf("[FieldMapper] dictionary matched %d/%d columns", len(profiles)-len(unmatched), len(profiles))

	// Phase 2: one batched classifier call for the residue, joined back by
	// column name. Duplicate names cannot be joined unambiguously: the first
	// occurrence goes to the classifier, the rest straight to the fallback.
	if len(unmatched) > 0 {
		m.classifyResidue(ctx, profiles, mappings, unmatched)
	}

	// Phase 3: conflict resolution and confirmation flags
	resolveAxisConflicts(mappings, profiles)
	for i := range mappings {
		if mappings[i].Confidence < confirmBelow {
			mappings[i].RequiresConfirmation = true
		}
	}
	return mappings, nil
}

func (m *Mapper) classifyResidue(ctx context.Context, profiles []profile.ColumnProfile, mappings []mapping.FieldMapping, unmatched []int) {
	seen := make(map[string]bool)
	var batch []mapping.ColumnSample
	var batchIdx []int
	var fallbackOnly []int

	for _, i := range unmatched {
		p := &profiles[i]
		if seen[p.Name] {
			fallbackOnly = append(fallbackOnly, i)
			continue
		}
		seen[p.Name] = true
		batch = append(batch, mapping.ColumnSample{
			ColumnName:       p.Name,
			InferredDataType: p.DataType,
			SampleValues:     clip(p.SampleValues, maxClassifierSamples),
			UniqueValueCount: p.UniqueCount,
		})
		batchIdx = append(batchIdx, i)
	}

	byName := make(map[string]mapping.SemanticMapping)
	if m.classifier != nil && m.classifier.Available() {
		results, err := m.classifier.Classify(ctx, batch)
		if err != nil {
			log.Printf("[FieldMapper] classifier call failed, falling back: %v", err)
		} else {
			for _, r := range results {
				if _, dup := byName[r.OriginalField]; dup {
					// A duplicated response name cannot be attributed safely
					log.Printf("[FieldMapper] dropping duplicate classifier result for %q", r.OriginalField)
					continue
				}
				byName[r.OriginalField] = r
			}
		}
	} else {
		log.Printf("[FieldMapper] classifier unavailable, using deterministic fallback for %d columns", len(batch))
	}

	for _, i := range batchIdx {
		p := &profiles[i]
		if r, ok := byName[p.Name]; ok {
			mappings[i] = m.fromSemantic(ctx, p, r)
		} else {
			mappings[i] = fallbackMapping(p)
		}
	}
	for _, i := range fallbackOnly {
		mappings[i] = fallbackMapping(&profiles[i])
	}
}

// fromSemantic converts one classifier response entry, scaling its 0..1
// confidence to 0..100 and feeding high-confidence hits back into the
// dictionary so the next upload matches them in Phase 1.
func (m *Mapper) fromSemantic(ctx context.Context, p *profile.ColumnProfile, r mapping.SemanticMapping) mapping.FieldMapping {
	confidence := int(r.Confidence * 100)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	fm := mapping.FieldMapping{
		OriginalColumn: p.Name,
		StandardField:  r.StandardField,
		Source:         mapping.SourceAISemantic,
		Confidence:     confidence,
		ChartAxis:      parseAxis(r.ChartAxis),
		Aggregation:    parseAggregation(r.Aggregation),
		AxisPriority:   r.AxisPriority,
		Reasoning:      r.Reasoning,
	}
	if fm.AxisPriority < 1 {
		fm.AxisPriority = priorityNever
	}

	if confidence >= learnAtOrAbove && r.StandardField != "" {
		if err := m.dictionary.SaveMapping(ctx, r.StandardField, p.Name, mapping.SourceAISemantic); err != nil {
			log.Printf("[FieldMapper] failed to persist learned mapping %q -> %q: %v", p.Name, r.StandardField, err)
		}
	}
	return fm
}

// fallbackMapping is the deterministic rule for columns the classifier
// never answered for. Always flagged for confirmation.
func fallbackMapping(p *profile.ColumnProfile) mapping.FieldMapping {
	role := roleForProfile(p)
	return mapping.FieldMapping{
		OriginalColumn:       p.Name,
		Source:               mapping.SourceFeatureInfer,
		Confidence:           fallbackConfidence,
		RequiresConfirmation: true,
		ChartAxis:            role.axis,
		Aggregation:          role.aggregation,
		AxisPriority:         role.priority,
	}
}

// resolveAxisConflicts enforces the per-sheet invariant: at most one X_AXIS
// and at most one SERIES mapping. Losers demote to SERIES when individually
// eligible, otherwise to NONE.
func resolveAxisConflicts(mappings []mapping.FieldMapping, profiles []profile.ColumnProfile) {
	uniqueOf := func(i int) int {
		if i < len(profiles) {
			return profiles[i].UniqueCount
		}
		return 0
	}

	keepBest := func(axis mapping.ChartAxis, demote func(i int)) {
		var contenders []int
		for i := range mappings {
			if mappings[i].ChartAxis == axis {
				contenders = append(contenders, i)
			}
		}
		if len(contenders) <= 1 {
			return
		}
		// Lowest priority wins; sort is stable so input order breaks ties
		sort.SliceStable(contenders, func(a, b int) bool {
			return mappings[contenders[a]].AxisPriority < mappings[contenders[b]].AxisPriority
		})
		for _, i := range contenders[1:] {
			demote(i)
		}
	}

	keepBest(mapping.AxisX, func(i int) {
		u := uniqueOf(i)
		if u >= seriesMinUnique && u <= seriesMaxUnique {
			mappings[i].ChartAxis = mapping.AxisSeries
		} else {
			mappings[i].ChartAxis = mapping.AxisNone
		}
	})
	keepBest(mapping.AxisSeries, func(i int) {
		mappings[i].ChartAxis = mapping.AxisNone
	})
}

func clip(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
