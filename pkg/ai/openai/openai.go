package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/caselight/backend/internal/util"
	"github.com/caselight/backend/pkg/ai"
	"github.com/caselight/backend/pkg/classify"
)

// maxRetries bounds transport retries per classification call.
const maxRetries = 3

// RelationClassifier implements ai.RelationClassifier against an
// OpenAI-compatible chat completion endpoint.
type RelationClassifier struct {
	model  string
	client *openai.Client
}

// NewRelationClassifierParams configures the OpenAI-backed classifier.
// BaseURL may point at any OpenAI-compatible server; leave it empty for
// the hosted API.
type NewRelationClassifierParams struct {
	Model   string
	BaseURL string
	APIKey  string
}

// NewRelationClassifier creates a classifier client for the given model.
func NewRelationClassifier(params NewRelationClassifierParams) (*RelationClassifier, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("classifier model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(params.APIKey)}
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &RelationClassifier{
		model:  params.Model,
		client: &client,
	}, nil
}

// Classify asks the model for the relationship between two entity types
// given a context snippet. Returns (nil, nil) when the model reports no
// relationship.
func (c *RelationClassifier) Classify(
	ctx context.Context,
	typeA, typeB, contextSnippet string,
) (*classify.Relation, error) {
	prompt := fmt.Sprintf(ai.ClassifyPrompt, typeA, typeB, contextSnippet)

	response, err := util.RetryWithContext(ctx, maxRetries, func(ctx context.Context) (*openai.ChatCompletion, error) {
		return c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Temperature: openai.Float(0.0),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("classifier returned no choices")
	}

	return ai.ParseRelationResponse(response.Choices[0].Message.Content)
}
