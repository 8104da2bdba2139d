package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/caselight/backend/pkg/classify"
)

type classifyResponse struct {
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

// ParseRelationResponse decodes a model's classification answer. Model
// output is frequently wrapped in markdown fences or mildly malformed, so
// decoding falls back to jsonrepair before giving up. A "none" or empty
// relationship decodes to nil.
func ParseRelationResponse(input string) (*classify.Relation, error) {
	input = stripFences(input)

	var resp classifyResponse
	if err := json.Unmarshal([]byte(input), &resp); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(input)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse classifier response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse repaired classifier response: %w", err)
		}
	}

	rel := strings.TrimSpace(strings.ToLower(resp.Relationship))
	if rel == "" || rel == "none" {
		return nil, nil
	}
	if resp.Confidence < 0 {
		resp.Confidence = 0
	}
	if resp.Confidence > 1 {
		resp.Confidence = 1
	}
	return &classify.Relation{Type: rel, Confidence: resp.Confidence}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
