package query

import (
	"context"
	"strings"
	"testing"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store/memory"
)

func seedStore(t *testing.T) *memory.MemoryGraphStorage {
	t.Helper()
	ctx := context.Background()
	s := memory.NewMemoryGraphStorage()

	err := s.SaveEntities(ctx, []common.Entity{
		{Name: "Asa Jennings", Category: common.CategoryPerson, Role: "American YMCA secretary", Significance: "organized the refugee evacuation", Sources: []string{"b1"}},
		{Name: "Halsey Powell", Category: common.CategoryPerson, Role: "American destroyer commander", Sources: []string{"b1"}},
		{Name: "Smyrna", Category: common.CategoryPlace, Role: "Ottoman port city", Sources: []string{"b1"}},
		{Name: "Great Fire of Smyrna", Category: common.CategoryEvent, Significance: "destroyed the city in September 1922", Sources: []string{"b1"}},
	})
	if err != nil {
		t.Fatalf("seed entities: %v", err)
	}

	err = s.SaveRelationships(ctx, []common.Relationship{
		{From: "Asa Jennings", To: "Smyrna", Type: common.RelationTravelsTo, Context: "arrived weeks before the fire", Sources: []string{"b1"}},
	})
	if err != nil {
		t.Fatalf("seed relationships: %v", err)
	}

	err = s.SaveSource(ctx, common.Source{ID: "b1", Title: "The Great Fire"})
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}
	err = s.SaveEpisode(ctx, common.Episode{
		ID:       "b1-ch2-1",
		Name:     "b1-ch2-1",
		SourceID: "b1",
		Chapter:  common.Chapter{Number: 2},
		Sequence: 1,
		Content:  "Jennings walked the quay of Smyrna as the fire advanced toward the harbor.",
	})
	if err != nil {
		t.Fatalf("seed episode: %v", err)
	}

	return s
}

func TestRetrieveProfilesPrecedeExcerpts(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	retrieved, err := Retrieve(ctx, s, "What did Jennings do in Smyrna?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if retrieved.Empty() {
		t.Fatal("expected retrieval results")
	}

	assembled := retrieved.Assemble()
	profileIdx := strings.Index(assembled, "KEY PEOPLE AND PLACES")
	excerptIdx := strings.Index(assembled, "RELEVANT PASSAGES")
	if profileIdx == -1 || excerptIdx == -1 {
		t.Fatalf("missing context sections:\n%s", assembled)
	}
	if profileIdx > excerptIdx {
		t.Errorf("entity profiles must precede episode excerpts")
	}

	if !strings.Contains(assembled, "Asa Jennings TRAVELS_TO Smyrna") {
		t.Errorf("profile should include relationships:\n%s", assembled)
	}
}

func TestRetrieveReportsEntitiesFound(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	retrieved, err := Retrieve(ctx, s, "Tell me about Asa Jennings")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	found := make(map[string]bool)
	for _, name := range retrieved.Entities {
		found[name] = true
	}
	if !found["Asa Jennings"] {
		t.Errorf("expected Asa Jennings in entities found, got %v", retrieved.Entities)
	}
}

func TestRetrieveGroupKeywordBroadening(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	retrieved, err := Retrieve(ctx, s, "Which Americans helped during the evacuation?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	assembled := retrieved.Assemble()
	if !strings.Contains(assembled, "Halsey Powell") {
		t.Errorf("role broadening should surface the destroyer commander:\n%s", assembled)
	}
}

// similarityStore cans the vector-similarity results so the fallback path can
// be exercised without a vector index.
type similarityStore struct {
	*memory.MemoryGraphStorage
	entities []common.Entity
	episodes []common.Episode
}

func (s *similarityStore) SearchSimilarEntities(ctx context.Context, question string, limit int) ([]common.Entity, error) {
	return s.entities, nil
}

func (s *similarityStore) SearchSimilarEpisodes(ctx context.Context, question string, limit int) ([]common.Episode, error) {
	return s.episodes, nil
}

func TestRetrieveFallsBackToSimilarity(t *testing.T) {
	ctx := context.Background()
	s := &similarityStore{
		MemoryGraphStorage: seedStore(t),
		entities: []common.Entity{
			{Name: "Asa Jennings", Category: common.CategoryPerson, Role: "American YMCA secretary"},
		},
		episodes: []common.Episode{
			{Name: "b1-ch2-1", Chapter: common.Chapter{Number: 2}, Content: "Jennings walked the quay as the fire advanced."},
		},
	}

	// no derived term matches anything lexically
	retrieved, err := Retrieve(ctx, s, "What color was the spaceship?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if retrieved.Empty() {
		t.Fatal("similarity fallback should produce context")
	}

	assembled := retrieved.Assemble()
	if !strings.Contains(assembled, "Asa Jennings") {
		t.Errorf("expected similar entity profile:\n%s", assembled)
	}
	if !strings.Contains(assembled, "RELEVANT PASSAGES") || !strings.Contains(assembled, "walked the quay") {
		t.Errorf("expected similar episode excerpt:\n%s", assembled)
	}
}

func TestRetrieveSkipsSimilarityWhenLexicalHits(t *testing.T) {
	ctx := context.Background()
	s := &similarityStore{
		MemoryGraphStorage: seedStore(t),
		entities: []common.Entity{
			{Name: "Should Not Appear", Category: common.CategoryPerson},
		},
	}

	retrieved, err := Retrieve(ctx, s, "What did Jennings do in Smyrna?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if strings.Contains(retrieved.Assemble(), "Should Not Appear") {
		t.Errorf("similarity fallback must not run when lexical search succeeds")
	}
}

func TestRetrieveEmptyGivesSentinel(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryGraphStorage()

	retrieved, err := Retrieve(ctx, s, "What color was the spaceship?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !retrieved.Empty() {
		t.Fatalf("expected empty retrieval, got %+v", retrieved)
	}
	if retrieved.Assemble() != NoInformationFound {
		t.Errorf("empty retrieval must assemble to the sentinel")
	}
}

func TestDeriveSearchTermsPrefersEntityLexicon(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	terms := deriveSearchTerms(ctx, s, "How did Asa Jennings reach Smyrna?")
	if len(terms) == 0 {
		t.Fatal("expected terms")
	}
	if terms[0] != "asa jennings" && terms[0] != "smyrna" {
		t.Errorf("lexicon matches should lead the term list, got %v", terms)
	}
	for _, term := range terms {
		if term == "how" || term == "did" {
			t.Errorf("stopwords must be filtered, got %v", terms)
		}
	}
}
