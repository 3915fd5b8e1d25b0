package middleware

import (
	"github.com/41rumble/great-fire-smyrna-rag/internal/util"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	oai "github.com/41rumble/great-fire-smyrna-rag/pkg/ai/ollama"
	gai "github.com/41rumble/great-fire-smyrna-rag/pkg/ai/openai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
)

type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	AiClient     ai.NarrativeAIClient
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

// NewAIClientFromEnv builds the model client selected by AI_ADAPTER
// ("ollama" or OpenAI-compatible by default).
func NewAIClientFromEnv() ai.NarrativeAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewNarrativeOllamaClient(oai.NewNarrativeOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			SynthesisModel:  util.GetEnv("AI_CHAT_SYNTH_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			RequestTimeoutMin:     int64(util.GetEnvNumeric("AI_TIMEOUT_MIN", 10)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewNarrativeOpenAIClient(gai.NewNarrativeOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			SynthesisModel:  util.GetEnv("AI_CHAT_SYNTH_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			RequestTimeoutMin:     int64(util.GetEnvNumeric("AI_TIMEOUT_MIN", 10)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	}
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	key *keyfunc.Keyfunc,
	s3 *s3.Client,
	masterAPIKey string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:       db,
				Queue:        queue,
				Key:          key,
				S3:           s3,
				AiClient:     NewAIClientFromEnv(),
				MasterAPIKey: masterAPIKey,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
