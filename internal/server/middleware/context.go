package middleware

import (
	"github.com/caselight/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/caselight/backend/pkg/ai"
	oai "github.com/caselight/backend/pkg/ai/ollama"
	gai "github.com/caselight/backend/pkg/ai/openai"
	"github.com/caselight/backend/pkg/logger"
)

type App struct {
	DBConn     *pgxpool.Pool
	Queue      *amqp091.Channel
	S3         *s3.Client
	Classifier ai.RelationClassifier
	APIKey     string
}

type AppContext struct {
	echo.Context
	App *App
}

// NewClassifierFromEnv builds the optional relation classifier from the
// AI_* environment. An empty AI_MODEL disables the external fallback and
// leaves classification to the rule layers.
func NewClassifierFromEnv() ai.RelationClassifier {
	model := util.GetEnvString("AI_MODEL", "")
	if model == "" {
		return nil
	}

	switch util.GetEnvString("AI_ADAPTER", "openai") {
	case "ollama":
		client, err := oai.NewRelationClassifier(oai.NewRelationClassifierParams{
			Model:   model,
			BaseURL: util.GetEnvString("AI_URL", ""),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama classifier", "err", err)
		}
		return client
	default:
		client, err := gai.NewRelationClassifier(gai.NewRelationClassifierParams{
			Model:   model,
			BaseURL: util.GetEnvString("AI_URL", ""),
			APIKey:  util.GetEnv("AI_KEY"),
		})
		if err != nil {
			logger.Fatal("Failed to create OpenAI classifier", "err", err)
		}
		return client
	}
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	s3 *s3.Client,
	classifier ai.RelationClassifier,
	apiKey string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:     db,
				Queue:      queue,
				S3:         s3,
				Classifier: classifier,
				APIKey:     apiKey,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
