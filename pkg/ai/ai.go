package ai

import (
	"context"

	"github.com/caselight/backend/pkg/classify"
)

// RelationClassifier is the optional external classifier collaborator.
// It is consulted only for node pairs the rule matrix and the cluster
// hints leave undecided. A (nil, nil) return means the model found no
// relationship; errors are reserved for transport and decoding failures.
//
// Implementations must be safe for concurrent use: the graph builder fans
// classification calls out through a bounded errgroup.
type RelationClassifier interface {
	Classify(ctx context.Context, typeA, typeB, contextSnippet string) (*classify.Relation, error)
}

// ClassifyPrompt is the shared prompt template for LLM-backed
// classifiers. Arguments: typeA, typeB, context snippet.
const ClassifyPrompt = `You are classifying the relationship between two entities found in the same legal document.

Entity A type: %s
Entity B type: %s
Context: %s

If the entities are plausibly related, respond with a JSON object:
{"relationship": "<short_snake_case_label>", "confidence": <0.0-1.0>}

If they are not related, respond with:
{"relationship": "none", "confidence": 0}

Respond with the JSON object only.`
