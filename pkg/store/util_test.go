package store

import (
	"testing"
)

func TestChunkRange(t *testing.T) {
	var spans [][2]int
	err := ChunkRange(10, 4, func(start, end int) error {
		spans = append(spans, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("chunk range: %v", err)
	}
	want := [][2]int{{0, 4}, {4, 8}, {8, 10}}
	if len(spans) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(spans))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("chunk %d: expected %v, got %v", i, want[i], spans[i])
		}
	}
}

func TestChunkRangeZeroSizeTakesAll(t *testing.T) {
	calls := 0
	err := ChunkRange(5, 0, func(start, end int) error {
		calls++
		if start != 0 || end != 5 {
			t.Errorf("expected single full span, got [%d, %d)", start, end)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("chunk range: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
