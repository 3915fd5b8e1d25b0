package memory

import (
	"context"
	"testing"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
)

func TestSaveEntitiesMergesOnNameAndCategory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveEntities(ctx, []common.Entity{
		{Name: "Asa Jennings", Category: common.CategoryPerson, Role: "YMCA worker", Sources: []string{"book-1"}},
	})
	if err != nil {
		t.Fatalf("save entities: %v", err)
	}
	err = s.SaveEntities(ctx, []common.Entity{
		{Name: "Asa Jennings", Category: common.CategoryPerson, Role: "evacuation organizer", Sources: []string{"book-2"}},
	})
	if err != nil {
		t.Fatalf("save entities again: %v", err)
	}

	count, err := s.CountEntities(ctx)
	if err != nil {
		t.Fatalf("count entities: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entity after merge, got %d", count)
	}

	found, err := s.SearchEntities(ctx, "jennings", 10)
	if err != nil {
		t.Fatalf("search entities: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}
	if found[0].Role != "evacuation organizer" {
		t.Errorf("expected last-write-wins role, got %q", found[0].Role)
	}
	if len(found[0].Sources) != 2 {
		t.Errorf("expected provenance union of 2 sources, got %v", found[0].Sources)
	}
}

func TestSaveEntitiesKeepsSeparateCategories(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveEntities(ctx, []common.Entity{
		{Name: "Smyrna", Category: common.CategoryPlace},
		{Name: "Smyrna", Category: common.CategoryEvent},
	})
	if err != nil {
		t.Fatalf("save entities: %v", err)
	}

	count, _ := s.CountEntities(ctx)
	if count != 2 {
		t.Fatalf("same name in different categories must stay distinct, got %d entities", count)
	}
}

func TestSaveRelationshipsCreatesMissingEndpoints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveRelationships(ctx, []common.Relationship{
		{From: "Asa Jennings", To: "Smyrna", Type: common.RelationTravelsTo, Context: "arrived weeks before the fire", Sources: []string{"book-1"}},
	})
	if err != nil {
		t.Fatalf("save relationships: %v", err)
	}

	count, _ := s.CountEntities(ctx)
	if count != 2 {
		t.Fatalf("expected both endpoints to be created, got %d entities", count)
	}

	rels, err := s.GetEntityRelations(ctx, "Asa Jennings", 10)
	if err != nil {
		t.Fatalf("get relations: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
}

func TestSaveRelationshipsMergesOnTriple(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	rel := common.Relationship{From: "Garabed", To: "Smyrna", Type: common.RelationEscapesFrom, Sources: []string{"book-1"}}
	if err := s.SaveRelationships(ctx, []common.Relationship{rel}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rel.Context = "fled by boat during the fire"
	rel.Sources = []string{"book-2"}
	if err := s.SaveRelationships(ctx, []common.Relationship{rel}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	if s.RelationCount() != 1 {
		t.Fatalf("expected merge on (from, to, type), got %d relationships", s.RelationCount())
	}
	rels, _ := s.GetEntityRelations(ctx, "Garabed", 10)
	if rels[0].Context != "fled by boat during the fire" {
		t.Errorf("expected updated context, got %q", rels[0].Context)
	}
	if len(rels[0].Sources) != 2 {
		t.Errorf("expected provenance union, got %v", rels[0].Sources)
	}

	// a different type between the same endpoints is a new edge
	other := common.Relationship{From: "Garabed", To: "Smyrna", Type: common.RelationLivesIn}
	if err := s.SaveRelationships(ctx, []common.Relationship{other}); err != nil {
		t.Fatalf("save other type: %v", err)
	}
	if s.RelationCount() != 2 {
		t.Fatalf("expected 2 relationships for distinct types, got %d", s.RelationCount())
	}
}

func TestLinkMentionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	if err := s.LinkMention(ctx, "ep-1", "Asa Jennings", "first mention"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := s.LinkMention(ctx, "ep-1", "Asa Jennings", "updated mention"); err != nil {
		t.Fatalf("relink: %v", err)
	}
	if s.MentionCount() != 1 {
		t.Fatalf("expected 1 mention link, got %d", s.MentionCount())
	}
}

func TestSearchEpisodesOrdersByNarrativePosition(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	episodes := []common.Episode{
		{ID: "c", SourceID: "b1", Chapter: common.Chapter{Number: 3}, Sequence: 1, Content: "the harbor burned"},
		{ID: "a", SourceID: "b1", Chapter: common.Chapter{Number: 1}, Sequence: 2, Content: "the harbor was calm"},
		{ID: "b", SourceID: "b1", Chapter: common.Chapter{Number: 1}, Sequence: 1, Content: "ships in the harbor"},
	}
	for _, ep := range episodes {
		if err := s.SaveEpisode(ctx, ep); err != nil {
			t.Fatalf("save episode: %v", err)
		}
	}

	got, err := s.SearchEpisodes(ctx, "harbor", 10)
	if err != nil {
		t.Fatalf("search episodes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	wantOrder := []string{"b", "a", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("position %d: expected episode %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestListEntityNamesRanksByDegree(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveRelationships(ctx, []common.Relationship{
		{From: "Asa Jennings", To: "Smyrna", Type: common.RelationTravelsTo},
		{From: "Asa Jennings", To: "Halsey Powell", Type: common.RelationInfluences},
		{From: "Garabed", To: "Smyrna", Type: common.RelationEscapesFrom},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	names, err := s.ListEntityNames(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(names))
	}
	// Asa Jennings and Smyrna both have degree 2, alphabetical breaks the tie
	if names[0] != "Asa Jennings" || names[1] != "Smyrna" {
		t.Errorf("unexpected ranking: %v", names)
	}
}

func TestSearchEntitiesFoldsAccents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveEntities(ctx, []common.Entity{
		{Name: "Halil Paşa", Category: common.CategoryPerson, Role: "Turkish commander"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, term := range []string{"pasa", "Paşa", "halil pasa"} {
		found, err := s.SearchEntities(ctx, term, 10)
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if len(found) != 1 || found[0].Name != "Halil Paşa" {
			t.Errorf("term %q should match across accent variants, got %v", term, found)
		}
	}
}

func TestSaveCanonicalEntityMapsAliases(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	canonical := common.CanonicalEntity{Name: "Asa Jennings", Category: common.CategoryPerson}
	if err := s.SaveCanonicalEntity(ctx, canonical, []string{"Mr. Jennings", "Jennings"}); err != nil {
		t.Fatalf("save canonical: %v", err)
	}
	// re-pointing an alias wins over the earlier mapping
	other := common.CanonicalEntity{Name: "Asa Kent Jennings", Category: common.CategoryPerson}
	if err := s.SaveCanonicalEntity(ctx, other, []string{"Jennings"}); err != nil {
		t.Fatalf("save canonical again: %v", err)
	}

	if name, ok := s.ResolveAlias("Mr. Jennings"); !ok || name != "Asa Jennings" {
		t.Errorf("unexpected resolution for Mr. Jennings: %q %v", name, ok)
	}
	if name, ok := s.ResolveAlias("Jennings"); !ok || name != "Asa Kent Jennings" {
		t.Errorf("unexpected resolution for Jennings: %q %v", name, ok)
	}
	if _, ok := s.ResolveAlias("Powell"); ok {
		t.Errorf("unmapped alias must not resolve")
	}
}

func TestSearchEventsFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGraphStorage()

	err := s.SaveEntities(ctx, []common.Entity{
		{Name: "Great Fire of Smyrna", Category: common.CategoryEvent, Significance: "destroyed the city in September 1922"},
		{Name: "Smyrna", Category: common.CategoryPlace},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	events, err := s.SearchEvents(ctx, "smyrna", 10)
	if err != nil {
		t.Fatalf("search events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the EVENT entity, got %d", len(events))
	}
	if events[0].Name != "Great Fire of Smyrna" {
		t.Errorf("unexpected event: %s", events[0].Name)
	}
}
