package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"
)

const fallbackNoDataAnswer = "The ingested material does not appear to cover this topic. " +
	"Try asking about the people, places and events of the source narrative."

// NarrativeQueryClient answers questions against the knowledge graph:
// retrieve, compress when oversized, synthesize.
type NarrativeQueryClient struct {
	aiClient ai.NarrativeAIClient
	storage  store.GraphStorage
}

// NewNarrativeQueryClient creates a new query client.
func NewNarrativeQueryClient(aiClient ai.NarrativeAIClient, storage store.GraphStorage) *NarrativeQueryClient {
	return &NarrativeQueryClient{
		aiClient: aiClient,
		storage:  storage,
	}
}

// QueryOptions holds per-question configuration.
type QueryOptions struct {
	AnalysisMode  string
	Model         string
	SystemPrompts []string
}

// QueryOption is a functional option for Query.
type QueryOption func(*QueryOptions)

// WithAnalysisMode forces the reported query type instead of classifying the
// question.
func WithAnalysisMode(mode string) QueryOption {
	return func(o *QueryOptions) {
		o.AnalysisMode = mode
	}
}

// WithQueryModel overrides the synthesis model.
func WithQueryModel(model string) QueryOption {
	return func(o *QueryOptions) {
		o.Model = model
	}
}

// WithExtraSystemPrompts appends system prompts to the synthesis call.
func WithExtraSystemPrompts(prompts ...string) QueryOption {
	return func(o *QueryOptions) {
		o.SystemPrompts = append(o.SystemPrompts, prompts...)
	}
}

// QueryResult is the answer payload for one question. EntitiesFound counts
// the distinct graph entities retrieval touched; the names ride along under
// their own key.
type QueryResult struct {
	Answer                string   `json:"answer"`
	EntitiesFound         int      `json:"entities_found"`
	EntityNames           []string `json:"entity_names"`
	ProcessingTimeSeconds float64  `json:"processing_time_seconds"`
	DetectedQueryType     string   `json:"detected_query_type"`
}

// Query answers a question using the graph. Retrieval that finds nothing
// yields a polite no-data answer without synthesis; a failed synthesis yields
// a readable error answer instead of propagating the failure.
func (c *NarrativeQueryClient) Query(ctx context.Context, question string, opts ...QueryOption) (*QueryResult, error) {
	start := time.Now()

	options := QueryOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	queryType := ClassifyQuestion(question)
	if options.AnalysisMode != "" {
		if forced, ok := ParseQueryType(options.AnalysisMode); ok {
			queryType = forced
		} else {
			logger.Warn("[Query] Unknown analysis mode, using classifier", "mode", options.AnalysisMode)
		}
	}

	retrieved, err := Retrieve(ctx, c.storage, question)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		EntitiesFound:     len(retrieved.Entities),
		EntityNames:       retrieved.Entities,
		DetectedQueryType: string(queryType),
	}
	if result.EntityNames == nil {
		result.EntityNames = []string{}
	}

	if retrieved.Empty() {
		logger.Info("[Query] No context retrieved", "question", question)
		result.Answer = c.noDataAnswer(ctx, question)
		result.ProcessingTimeSeconds = time.Since(start).Seconds()
		return result, nil
	}

	contextText := compressContext(ctx, c.aiClient, question, retrieved)

	genOpts := []ai.GenerateOption{
		ai.WithSystemPrompts(append([]string{fmt.Sprintf(ai.SynthesisPrompt, contextText)}, options.SystemPrompts...)...),
		ai.WithTemperature(0.3),
	}
	if options.Model != "" {
		genOpts = append(genOpts, ai.WithModel(options.Model))
	}

	answer, err := c.aiClient.GenerateCompletion(ctx, question, genOpts...)
	if err != nil {
		logger.Error("[Query] Synthesis failed", "err", err)
		result.Answer = fmt.Sprintf("The answer could not be generated: %v. Please try again.", err)
		result.ProcessingTimeSeconds = time.Since(start).Seconds()
		return result, nil
	}

	result.Answer = strings.TrimSpace(answer)
	result.ProcessingTimeSeconds = time.Since(start).Seconds()

	logger.Info("[Query] Answered question",
		"type", result.DetectedQueryType,
		"entities", result.EntitiesFound,
		"seconds", result.ProcessingTimeSeconds)

	return result, nil
}

func (c *NarrativeQueryClient) noDataAnswer(ctx context.Context, question string) string {
	answer, err := c.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question))
	if err != nil || strings.TrimSpace(answer) == "" {
		return fallbackNoDataAnswer
	}
	return strings.TrimSpace(answer)
}
