package query

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
)

const (
	// compressThreshold is the context length above which compression runs.
	// Below or at it, the context passes through byte-identical.
	compressThreshold = 8000

	// compressBatchSize is how many excerpt blocks are condensed per model
	// call in batched mode.
	compressBatchSize = 4

	// truncateCap bounds the context when compression itself fails.
	truncateCap = 8000
)

// compressContext condenses an assembled context that exceeds the threshold.
// When the retrieval produced discrete excerpt blocks they are compressed in
// batches with their attribution markers preserved; otherwise the whole
// context is condensed in one call. A failed compression degrades to
// truncation rather than failing the query.
func compressContext(
	ctx context.Context,
	client ai.NarrativeAIClient,
	question string,
	retrieved *RetrievedContext,
) string {
	assembled := retrieved.Assemble()
	if len(assembled) <= compressThreshold {
		return assembled
	}

	logger.Debug("[Query][Compress] Context over threshold",
		"chars", len(assembled), "threshold", compressThreshold)

	if len(retrieved.Excerpts) > 1 {
		compressed, err := compressExcerptBatches(ctx, client, question, retrieved.Excerpts)
		if err != nil {
			logger.Warn("[Query][Compress] Batch compression failed, truncating", "err", err)
			return truncate(assembled, truncateCap)
		}
		condensed := &RetrievedContext{
			Profiles: retrieved.Profiles,
			Excerpts: compressed,
			Entities: retrieved.Entities,
		}
		return condensed.Assemble()
	}

	prompt := fmt.Sprintf(ai.CompressPrompt, question, assembled)
	condensed, err := client.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.1))
	if err != nil || strings.TrimSpace(condensed) == "" {
		logger.Warn("[Query][Compress] Compression failed, truncating", "err", err)
		return truncate(assembled, truncateCap)
	}
	return condensed
}

func compressExcerptBatches(
	ctx context.Context,
	client ai.NarrativeAIClient,
	question string,
	excerpts []string,
) ([]string, error) {
	var compressed []string
	for start := 0; start < len(excerpts); start += compressBatchSize {
		end := start + compressBatchSize
		if end > len(excerpts) {
			end = len(excerpts)
		}

		prompt := fmt.Sprintf(ai.BatchCompressPrompt, question, strings.Join(excerpts[start:end], "\n\n"))
		batch, err := client.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.1))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(batch) == "" {
			return nil, fmt.Errorf("empty compression result for batch %d-%d", start, end)
		}
		compressed = append(compressed, strings.TrimSpace(batch))
	}
	return compressed, nil
}

// truncate cuts text to at most max bytes without splitting a rune.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
