package graph

import (
	"strings"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
)

// mergeEntities collapses duplicate entities within one extraction batch on
// (name, category) before they reach the store. Later occurrences win on
// attribute fields, provenance tags are unioned. Matching is
// case-insensitive but the first-seen spelling is kept.
func mergeEntities(entities []common.Entity) []common.Entity {
	merged := make([]common.Entity, 0, len(entities))
	index := make(map[string]int, len(entities))

	for _, e := range entities {
		key := strings.ToLower(e.Name) + "|" + string(e.Category)
		if pos, ok := index[key]; ok {
			existing := &merged[pos]
			if e.Role != "" {
				existing.Role = e.Role
			}
			if e.Significance != "" {
				existing.Significance = e.Significance
			}
			existing.Sources = unionStrings(existing.Sources, e.Sources)
			continue
		}
		index[key] = len(merged)
		e.Sources = unionStrings(nil, e.Sources)
		merged = append(merged, e)
	}

	return merged
}

// mergeRelationships collapses duplicate edges within one extraction batch on
// (from, to, type).
func mergeRelationships(relations []common.Relationship) []common.Relationship {
	merged := make([]common.Relationship, 0, len(relations))
	index := make(map[string]int, len(relations))

	for _, r := range relations {
		key := strings.ToLower(r.From) + "|" + strings.ToLower(r.To) + "|" + string(r.Type)
		if pos, ok := index[key]; ok {
			existing := &merged[pos]
			if r.Context != "" {
				existing.Context = r.Context
			}
			existing.Sources = unionStrings(existing.Sources, r.Sources)
			continue
		}
		index[key] = len(merged)
		r.Sources = unionStrings(nil, r.Sources)
		merged = append(merged, r)
	}

	return merged
}

func unionStrings(base []string, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range extra {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
