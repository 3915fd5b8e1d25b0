package graph

import (
	"testing"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
)

func TestMergeEntitiesCollapsesDuplicates(t *testing.T) {
	merged := mergeEntities([]common.Entity{
		{Name: "Asa Jennings", Category: common.CategoryPerson, Role: "YMCA worker", Sources: []string{"book-1"}},
		{Name: "asa jennings", Category: common.CategoryPerson, Significance: "organized the evacuation", Sources: []string{"book-1", "book-2"}},
		{Name: "Asa Jennings", Category: common.CategoryEvent},
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 entities after merge, got %d", len(merged))
	}

	person := merged[0]
	if person.Name != "Asa Jennings" {
		t.Errorf("first-seen spelling should survive, got %q", person.Name)
	}
	if person.Role != "YMCA worker" || person.Significance != "organized the evacuation" {
		t.Errorf("attribute merge wrong: %+v", person)
	}
	if len(person.Sources) != 2 {
		t.Errorf("expected provenance union of 2, got %v", person.Sources)
	}
}

func TestMergeRelationshipsCollapsesOnTriple(t *testing.T) {
	merged := mergeRelationships([]common.Relationship{
		{From: "Jennings", To: "Smyrna", Type: common.RelationTravelsTo, Sources: []string{"book-1"}},
		{From: "jennings", To: "smyrna", Type: common.RelationTravelsTo, Context: "arrived in August 1922", Sources: []string{"book-2"}},
		{From: "Jennings", To: "Smyrna", Type: common.RelationLivesIn},
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 relationships after merge, got %d", len(merged))
	}
	if merged[0].Context != "arrived in August 1922" {
		t.Errorf("later context should win, got %q", merged[0].Context)
	}
	if len(merged[0].Sources) != 2 {
		t.Errorf("expected provenance union, got %v", merged[0].Sources)
	}
}

func TestExtractEntitiesByPattern(t *testing.T) {
	text := "The fire spread quickly. Asa Jennings watched from the harbor of Smyrna. " +
		"Later, Halsey Powell arrived with the destroyers."

	entities := extractEntitiesByPattern(text, "book-1")

	byName := make(map[string]common.Entity)
	for _, e := range entities {
		byName[e.Name] = e
	}

	if e, ok := byName["Asa Jennings"]; !ok || e.Category != common.CategoryPerson {
		t.Errorf("expected Asa Jennings as PERSON, got %+v", byName)
	}
	if e, ok := byName["Smyrna"]; !ok || e.Category != common.CategoryPlace {
		t.Errorf("expected Smyrna as PLACE via lexicon, got %+v", byName)
	}
	if _, ok := byName["Halsey Powell"]; !ok {
		t.Errorf("expected Halsey Powell, got %+v", byName)
	}
	if _, ok := byName["The"]; ok {
		t.Errorf("sentence starters must not become entities")
	}
	if _, ok := byName["Later"]; ok {
		t.Errorf("lone capitalized words outside the lexicon must not become entities")
	}
	for _, e := range entities {
		if len(e.Sources) != 1 || e.Sources[0] != "book-1" {
			t.Errorf("entity %s missing provenance: %v", e.Name, e.Sources)
		}
	}
}
