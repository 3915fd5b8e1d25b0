package openai

import (
	"sync"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// NarrativeOpenAIClient implements ai.NarrativeAIClient against any
// OpenAI-compatible API. It manages separate clients for embeddings and
// chat/completion tasks so both can point at different endpoints.
//
// A NarrativeOpenAIClient should be created using NewNarrativeOpenAIClient.
type NarrativeOpenAIClient struct {
	embeddingModel  string
	extractionModel string
	synthesisModel  string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin int64
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewNarrativeOpenAIClientParams defines the configuration for creating a new
// NarrativeOpenAIClient.
//
// ExtractionModel is used for schema-constrained extraction calls,
// SynthesisModel for free-text answer generation, EmbeddingModel for vector
// embeddings. The URL/Key pairs configure the respective API endpoints.
type NewNarrativeOpenAIClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	SynthesisModel  string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	RequestTimeoutMin     int64
	MaxConcurrentRequests int64
}

// NewNarrativeOpenAIClient creates a new client configured with the provided
// parameters.
//
// Example:
//
//	client := openai.NewNarrativeOpenAIClient(openai.NewNarrativeOpenAIClientParams{
//		EmbeddingModel:  "text-embedding-3-small",
//		ExtractionModel: "gpt-4o-mini",
//		SynthesisModel:  "gpt-4o",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:    os.Getenv("OPENAI_API_KEY"),
//	})
func NewNarrativeOpenAIClient(
	params NewNarrativeOpenAIClientParams,
) *NarrativeOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	timeoutMin := params.RequestTimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 10
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &NarrativeOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		synthesisModel:  params.SynthesisModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin: timeoutMin,
		reqLock:    semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *NarrativeOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated model metrics.
func (c *NarrativeOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated model metrics.
func (c *NarrativeOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
