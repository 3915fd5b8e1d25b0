package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/store/memory"
)

func TestQueryAnswersFromGraph(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	fake := &scriptedAIClient{completion: "Jennings organized the evacuation of Smyrna."}
	client := NewNarrativeQueryClient(fake, s)

	result, err := client.Query(ctx, "What did Asa Jennings do in Smyrna?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if result.Answer != "Jennings organized the evacuation of Smyrna." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.DetectedQueryType != string(QueryTypePlot) {
		t.Errorf("expected plot query type, got %s", result.DetectedQueryType)
	}
	if result.EntitiesFound == 0 {
		t.Errorf("expected entities found")
	}
	if result.EntitiesFound != len(result.EntityNames) {
		t.Errorf("count %d does not match names %v", result.EntitiesFound, result.EntityNames)
	}
	if result.ProcessingTimeSeconds < 0 {
		t.Errorf("processing time must be non-negative")
	}
	if fake.completionCalls != 1 {
		t.Errorf("expected a single synthesis call, got %d", fake.completionCalls)
	}
}

func TestQueryAnalysisModeOverridesClassifier(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	fake := &scriptedAIClient{completion: "answer"}
	client := NewNarrativeQueryClient(fake, s)

	result, err := client.Query(ctx, "What did Asa Jennings do in Smyrna?", WithAnalysisMode("character"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.DetectedQueryType != string(QueryTypeCharacter) {
		t.Errorf("analysis mode should win, got %s", result.DetectedQueryType)
	}
}

func TestQueryNoDataShortCircuitsSynthesis(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryGraphStorage()
	fake := &scriptedAIClient{completion: "Sorry, the material does not cover spaceships."}
	client := NewNarrativeQueryClient(fake, s)

	result, err := client.Query(ctx, "What color was the spaceship?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if result.Answer != "Sorry, the material does not cover spaceships." {
		t.Errorf("unexpected no-data answer: %q", result.Answer)
	}
	if result.EntitiesFound != 0 || len(result.EntityNames) != 0 {
		t.Errorf("no entities expected, got %d %v", result.EntitiesFound, result.EntityNames)
	}
	// only the no-data reply call, never a synthesis over the sentinel
	if fake.completionCalls != 1 {
		t.Errorf("expected 1 completion call, got %d", fake.completionCalls)
	}
	for _, prompt := range fake.prompts {
		if strings.Contains(prompt, NoInformationFound) {
			t.Errorf("sentinel context must not reach the model")
		}
	}
}

func TestQueryNoDataFallbackWhenModelDown(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryGraphStorage()
	fake := &scriptedAIClient{completionErr: errors.New("model down")}
	client := NewNarrativeQueryClient(fake, s)

	result, err := client.Query(ctx, "What color was the spaceship?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.Answer != fallbackNoDataAnswer {
		t.Errorf("expected canned fallback answer, got %q", result.Answer)
	}
}

func TestQuerySynthesisFailureYieldsReadableAnswer(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	fake := &scriptedAIClient{completionErr: errors.New("model down")}
	client := NewNarrativeQueryClient(fake, s)

	result, err := client.Query(ctx, "What did Asa Jennings do in Smyrna?")
	if err != nil {
		t.Fatalf("synthesis failure must not propagate: %v", err)
	}
	if !strings.Contains(result.Answer, "could not be generated") {
		t.Errorf("expected readable failure answer, got %q", result.Answer)
	}
}
