package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/loader"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store/memory"
)

type fakeAIClient struct {
	entityPayload   string
	relationPayload string
	failFormat      bool
	formatCalls     int
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.formatCalls++
	if f.failFormat {
		return errors.New("model unavailable")
	}
	switch name {
	case "extract_entities":
		return json.Unmarshal([]byte(f.entityPayload), out)
	case "extract_relationships":
		return json.Unmarshal([]byte(f.relationPayload), out)
	}
	return errors.New("unexpected format request: " + name)
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type stringLoader struct {
	text string
}

func (l *stringLoader) GetFileText(ctx context.Context, file loader.BookFile) ([]byte, error) {
	return []byte(l.text), nil
}

const testBookText = `CHAPTER I. The American

Asa Jennings was an unassuming YMCA secretary who had arrived in Smyrna only weeks
before the catastrophe. Nothing in his modest career suggested that he would soon
charter a fleet and carry hundreds of thousands of refugees across the Aegean to
safety in Greece. He walked the quay daily, watching the crowded harbor.`

const testEntityPayload = `{
	"entities": [
		{"name": "Asa Jennings", "category": "PERSON", "role": "American YMCA secretary", "significance": "organized the refugee evacuation"},
		{"name": "Smyrna", "category": "PLACE", "role": "Ottoman port city", "significance": "site of the 1922 catastrophe"},
		{"name": "Ghost of the Quay", "category": "SPIRIT", "role": "", "significance": ""}
	]
}`

const testRelationPayload = `{
	"relationships": [
		{"from": "Asa Jennings", "to": "Smyrna", "type": "TRAVELS_TO", "context": "arrived in Smyrna only weeks before the catastrophe"},
		{"from": "Asa Jennings", "to": "Smyrna", "type": "HAUNTS", "context": "walked the quay daily"},
		{"from": "Asa Jennings", "to": "Aegean Sea", "type": "TRAVELS_TO", "context": "endpoint never extracted"}
	]
}`

func newTestClient(fake *fakeAIClient, storage *memory.MemoryGraphStorage) *NarrativeGraphClient {
	return NewNarrativeGraphClient(fake, storage, WithTargetWords(50))
}

func testBookFile(l loader.BookFileLoader) loader.BookFile {
	return loader.NewBookFile(loader.NewBookFileParams{
		ID:          "smyrna-memoir",
		FilePath:    "smyrna-memoir.txt",
		Title:       "The Great Fire",
		Author:      "A Witness",
		Year:        1922,
		Perspective: "American",
		Language:    "en",
		Loader:      l,
	})
}

func TestProcessBookBuildsGraph(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAIClient{entityPayload: testEntityPayload, relationPayload: testRelationPayload}
	storage := memory.NewMemoryGraphStorage()
	client := newTestClient(fake, storage)

	report, err := client.ProcessBook(ctx, testBookFile(&stringLoader{text: testBookText}))
	if err != nil {
		t.Fatalf("process book: %v", err)
	}

	if report.Episodes != 1 {
		t.Fatalf("expected 1 episode, got %d", report.Episodes)
	}
	if report.Chapters != 1 {
		t.Errorf("expected 1 chapter, got %d", report.Chapters)
	}
	if report.Fallbacks != 0 {
		t.Errorf("expected no fallbacks, got %d", report.Fallbacks)
	}

	// the SPIRIT entity has an unknown category and must be dropped
	count, _ := storage.CountEntities(ctx)
	if count != 2 {
		t.Fatalf("expected 2 stored entities, got %d", count)
	}

	jennings, err := storage.SearchEntities(ctx, "Jennings", 10)
	if err != nil || len(jennings) != 1 {
		t.Fatalf("expected Jennings in store, got %v (%v)", jennings, err)
	}
	if jennings[0].Role != "American YMCA secretary" {
		t.Errorf("unexpected role: %q", jennings[0].Role)
	}
	if len(jennings[0].Sources) != 1 || jennings[0].Sources[0] != "smyrna-memoir" {
		t.Errorf("missing provenance: %v", jennings[0].Sources)
	}

	rels, err := storage.GetEntityRelations(ctx, "Asa Jennings", 10)
	if err != nil {
		t.Fatalf("get relations: %v", err)
	}
	// HAUNTS coerces to RELATED_TO, the edge to the unextracted entity drops
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships, got %d: %v", len(rels), rels)
	}
	foundTravel := false
	foundCoerced := false
	for _, r := range rels {
		switch {
		case r.Type == "TRAVELS_TO" && r.To == "Smyrna":
			foundTravel = true
		case r.Type == "RELATED_TO" && r.To == "Smyrna":
			foundCoerced = true
		case r.To == "Aegean Sea":
			t.Errorf("edge to unextracted endpoint must be dropped: %v", r)
		}
	}
	if !foundTravel || !foundCoerced {
		t.Errorf("expected TRAVELS_TO and coerced RELATED_TO edges, got %v", rels)
	}

	if storage.MentionCount() != 2 {
		t.Errorf("expected 2 mention links, got %d", storage.MentionCount())
	}
}

func TestProcessBookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAIClient{entityPayload: testEntityPayload, relationPayload: testRelationPayload}
	storage := memory.NewMemoryGraphStorage()
	client := newTestClient(fake, storage)
	file := testBookFile(&stringLoader{text: testBookText})

	if _, err := client.ProcessBook(ctx, file); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := client.ProcessBook(ctx, file); err != nil {
		t.Fatalf("second run: %v", err)
	}

	count, _ := storage.CountEntities(ctx)
	if count != 2 {
		t.Errorf("re-ingestion must not duplicate entities, got %d", count)
	}
	if storage.RelationCount() != 2 {
		t.Errorf("re-ingestion must not duplicate relationships, got %d", storage.RelationCount())
	}
	if storage.MentionCount() != 2 {
		t.Errorf("re-ingestion must not duplicate mentions, got %d", storage.MentionCount())
	}
}

func TestProcessBookFallsBackOnModelFailure(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAIClient{failFormat: true}
	storage := memory.NewMemoryGraphStorage()
	client := newTestClient(fake, storage)

	report, err := client.ProcessBook(ctx, testBookFile(&stringLoader{text: testBookText}))
	if err != nil {
		t.Fatalf("process book should degrade, not fail: %v", err)
	}
	if report.Fallbacks != 1 {
		t.Fatalf("expected 1 fallback, got %d", report.Fallbacks)
	}
	if report.Relationships != 0 {
		t.Errorf("pattern fallback produces no relationships, got %d", report.Relationships)
	}
	// one attempt per episode, never retried before degrading
	if fake.formatCalls != 1 {
		t.Errorf("expected a single extraction attempt, got %d", fake.formatCalls)
	}

	found, err := storage.SearchEntities(ctx, "Jennings", 10)
	if err != nil || len(found) == 0 {
		t.Errorf("pattern fallback should still capture Asa Jennings: %v (%v)", found, err)
	}
}

func TestProcessBookEmptyText(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAIClient{}
	storage := memory.NewMemoryGraphStorage()
	client := newTestClient(fake, storage)

	report, err := client.ProcessBook(ctx, testBookFile(&stringLoader{text: "   "}))
	if err != nil {
		t.Fatalf("empty book: %v", err)
	}
	if report.Episodes != 0 {
		t.Errorf("expected no episodes for empty book, got %d", report.Episodes)
	}
	if fake.formatCalls != 0 {
		t.Errorf("no extraction should run for empty book, got %d calls", fake.formatCalls)
	}
	count, _ := storage.CountEntities(ctx)
	if count != 0 {
		t.Errorf("no entities expected, got %d", count)
	}
}

func TestFormatRelationVocabularyStable(t *testing.T) {
	first := formatRelationVocabulary()
	second := formatRelationVocabulary()
	if first != second {
		t.Fatalf("vocabulary rendering must be deterministic")
	}
	for _, want := range []string{"PERSONAL:", "SPATIAL:", "TRAVELS_TO", "RESCUES"} {
		if !strings.Contains(first, want) {
			t.Errorf("vocabulary missing %q:\n%s", want, first)
		}
	}
	if strings.Contains(first, "RELATED_TO") {
		t.Errorf("fallback type must not be offered to the model")
	}
}
