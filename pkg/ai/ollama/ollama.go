package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/caselight/backend/internal/util"
	"github.com/caselight/backend/pkg/ai"
	"github.com/caselight/backend/pkg/classify"
)

// maxRetries bounds transport retries per classification call.
const maxRetries = 3

// RelationClassifier implements ai.RelationClassifier against a
// locally-hosted Ollama server.
type RelationClassifier struct {
	model  string
	client *api.Client
}

// NewRelationClassifierParams configures the Ollama-backed classifier.
type NewRelationClassifierParams struct {
	Model   string
	BaseURL string
}

// NewRelationClassifier creates a classifier client for the given model.
func NewRelationClassifier(params NewRelationClassifierParams) (*RelationClassifier, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("classifier model is required")
	}
	if params.BaseURL == "" {
		params.BaseURL = "http://localhost:11434"
	}

	base, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}

	return &RelationClassifier{
		model:  params.Model,
		client: api.NewClient(base, http.DefaultClient),
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

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.0},
	}

	var content string
	err := util.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		content = ""
		return c.client.Chat(ctx, req, func(cr api.ChatResponse) error {
			content += cr.Message.Content
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}

	return ai.ParseRelationResponse(content)
}
