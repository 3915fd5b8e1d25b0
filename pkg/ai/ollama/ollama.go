package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// NarrativeOllamaClient implements the ai.NarrativeAIClient interface using
// Ollama as the backend, for locally-hosted extraction and synthesis models.
type NarrativeOllamaClient struct {
	embeddingModel  string
	extractionModel string
	synthesisModel  string

	timeoutMin int64
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewNarrativeOllamaClientParams contains configuration options for creating
// a new NarrativeOllamaClient.
type NewNarrativeOllamaClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	SynthesisModel  string

	BaseURL string
	ApiKey  string

	RequestTimeoutMin     int64
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewNarrativeOllamaClient creates a new Ollama-based model client with the
// specified configuration. It connects to the Ollama server at the given
// BaseURL (or the default if empty).
func NewNarrativeOllamaClient(
	params NewNarrativeOllamaClientParams,
) (*NarrativeOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	timeoutMin := params.RequestTimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 10
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &NarrativeOllamaClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		synthesisModel:  params.SynthesisModel,

		timeoutMin: timeoutMin,
		reqLock:    semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
