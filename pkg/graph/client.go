package graph

import (
	"time"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"
)

const (
	defaultTargetWords      = 1200
	defaultMaxRelationships = 12
	defaultMaxPromptTokens  = 6000

	promptEncoder = "o200k_base"
)

// NarrativeGraphClient runs the ingestion pipeline: chunk a book into
// episodes, extract entities and relationships from each episode and merge
// them into the graph store. Episodes are processed sequentially so merge
// semantics stay deterministic and the model endpoint is not flooded.
type NarrativeGraphClient struct {
	aiClient ai.NarrativeAIClient
	storage  store.GraphStorage

	targetWords      int
	maxRelationships int
	maxPromptTokens  int
	chunkDelay       time.Duration
}

// NarrativeGraphClientOption configures a NarrativeGraphClient.
type NarrativeGraphClientOption func(*NarrativeGraphClient)

// WithTargetWords overrides the target episode size in words.
func WithTargetWords(words int) NarrativeGraphClientOption {
	return func(c *NarrativeGraphClient) {
		if words > 0 {
			c.targetWords = words
		}
	}
}

// WithMaxRelationships overrides the per-episode relationship cap.
func WithMaxRelationships(max int) NarrativeGraphClientOption {
	return func(c *NarrativeGraphClient) {
		if max > 0 {
			c.maxRelationships = max
		}
	}
}

// WithChunkDelay sets a pause between episode extractions, for rate-limited
// model endpoints.
func WithChunkDelay(delay time.Duration) NarrativeGraphClientOption {
	return func(c *NarrativeGraphClient) {
		if delay > 0 {
			c.chunkDelay = delay
		}
	}
}

// WithMaxPromptTokens overrides the token budget an episode is truncated to
// before it is sent to the model.
func WithMaxPromptTokens(tokens int) NarrativeGraphClientOption {
	return func(c *NarrativeGraphClient) {
		if tokens > 0 {
			c.maxPromptTokens = tokens
		}
	}
}

// NewNarrativeGraphClient creates a new ingestion client.
func NewNarrativeGraphClient(
	aiClient ai.NarrativeAIClient,
	storage store.GraphStorage,
	opts ...NarrativeGraphClientOption,
) *NarrativeGraphClient {
	c := &NarrativeGraphClient{
		aiClient:         aiClient,
		storage:          storage,
		targetWords:      defaultTargetWords,
		maxRelationships: defaultMaxRelationships,
		maxPromptTokens:  defaultMaxPromptTokens,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}
