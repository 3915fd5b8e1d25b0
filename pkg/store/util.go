package store

import (
	"context"
	"unicode"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// embeddingTries bounds transport-level retries for embedding requests.
const embeddingTries = 3

// ChunkRange calls fn with [start, end) index pairs covering total items in
// chunks of size. Used to keep bulk statements under parameter limits.
func ChunkRange(total int, size int, fn func(start int, end int) error) error {
	if size <= 0 {
		size = total
	}
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// FoldAccents strips diacritic marks so names like "Paşa" and "Pasa" compare
// equal during lookup. The transformer is built per call because it carries
// state and is not safe for concurrent reuse.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// DedupeStrings returns the input with duplicates removed, preserving the
// first occurrence order.
func DedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GenerateEmbeddings generates one embedding per input, fanning the requests
// out through an errgroup. The client's internal semaphore bounds actual
// parallelism. Output order matches input order.
func GenerateEmbeddings(ctx context.Context, client ai.NarrativeAIClient, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(inputs))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i := range inputs {
		idx := i
		input := inputs[i]
		eg.Go(func() error {
			vec, err := util.RetryWithContext(ectx, embeddingTries,
				func(ctx context.Context) ([]float32, error) {
					return client.GenerateEmbedding(ctx, input)
				})
			if err != nil {
				return err
			}
			out[idx] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
