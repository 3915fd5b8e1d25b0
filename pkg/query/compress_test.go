package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
)

type scriptedAIClient struct {
	completion      string
	completionErr   error
	completionCalls int
	prompts         []string
}

func (f *scriptedAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.completionCalls++
	f.prompts = append(f.prompts, prompt)
	if f.completionErr != nil {
		return "", f.completionErr
	}
	return f.completion, nil
}

func (f *scriptedAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	return errors.New("not used in query tests")
}

func (f *scriptedAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *scriptedAIClient) ResetMetrics() {}

func (f *scriptedAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestCompressContextPassThroughBelowThreshold(t *testing.T) {
	fake := &scriptedAIClient{completion: "should never be called"}
	retrieved := &RetrievedContext{
		Profiles: []string{"### Asa Jennings (PERSON)\nRole: YMCA secretary"},
		Excerpts: []string{"[Excerpt 1] (ep, chapter 1)\nshort passage"},
	}

	got := compressContext(context.Background(), fake, "who is jennings", retrieved)
	if got != retrieved.Assemble() {
		t.Errorf("context at or below threshold must pass through unchanged")
	}
	if fake.completionCalls != 0 {
		t.Errorf("no model call expected below threshold, got %d", fake.completionCalls)
	}
}

func TestCompressContextBatchesExcerpts(t *testing.T) {
	fake := &scriptedAIClient{completion: "[Excerpt condensed] summary"}

	excerpts := make([]string, 6)
	for i := range excerpts {
		excerpts[i] = "[Excerpt] " + strings.Repeat("long passage text ", 120)
	}
	retrieved := &RetrievedContext{
		Profiles: []string{"### Smyrna (PLACE)"},
		Excerpts: excerpts,
	}

	got := compressContext(context.Background(), fake, "what burned", retrieved)

	// 6 excerpts in batches of 4 -> 2 model calls
	if fake.completionCalls != 2 {
		t.Fatalf("expected 2 batch calls, got %d", fake.completionCalls)
	}
	if !strings.Contains(got, "KEY PEOPLE AND PLACES") {
		t.Errorf("profiles must survive compression")
	}
	if !strings.Contains(got, "[Excerpt condensed] summary") {
		t.Errorf("compressed excerpts missing from context: %q", got)
	}
	if len(got) >= len(retrieved.Assemble()) {
		t.Errorf("compression should shrink the context")
	}
}

func TestCompressContextTruncatesOnFailure(t *testing.T) {
	fake := &scriptedAIClient{completionErr: errors.New("model down")}

	retrieved := &RetrievedContext{
		Excerpts: []string{
			"[Excerpt 1] " + strings.Repeat("a", 5000),
			"[Excerpt 2] " + strings.Repeat("b", 5000),
		},
	}

	got := compressContext(context.Background(), fake, "question", retrieved)
	if len(got) > truncateCap {
		t.Errorf("failed compression must truncate to %d chars, got %d", truncateCap, len(got))
	}
	if !strings.HasPrefix(got, "RELEVANT PASSAGES") {
		t.Errorf("truncation must keep the head of the context")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("ş", 100) // 2 bytes per rune

	got := truncate(text, 101)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got[len(got)-4:])
	}
	if len(got) != 100 {
		t.Errorf("expected cut back to the rune boundary at 100 bytes, got %d", len(got))
	}
	if truncate(text, 200) != text {
		t.Errorf("text within the cap must pass through unchanged")
	}
}

func TestCompressContextWholeContextMode(t *testing.T) {
	fake := &scriptedAIClient{completion: "condensed profile context"}

	retrieved := &RetrievedContext{
		Profiles: []string{"### Someone (PERSON)\n" + strings.Repeat("significance ", 800)},
	}

	got := compressContext(context.Background(), fake, "who", retrieved)
	if got != "condensed profile context" {
		t.Errorf("expected whole-context compression result, got %q", got)
	}
	if fake.completionCalls != 1 {
		t.Errorf("expected a single compression call, got %d", fake.completionCalls)
	}
}
