package ai

import "testing"

func TestParseRelationResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
		wantConf float64
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "clean json",
			input:    `{"relationship": "works_at", "confidence": 0.8}`,
			wantType: "works_at",
			wantConf: 0.8,
		},
		{
			name:     "markdown fenced",
			input:    "```json\n{\"relationship\": \"cites\", \"confidence\": 0.9}\n```",
			wantType: "cites",
			wantConf: 0.9,
		},
		{
			name:     "surrounding prose",
			input:    `Sure! Here is the answer: {"relationship": "party_to", "confidence": 0.7} Hope that helps.`,
			wantType: "party_to",
			wantConf: 0.7,
		},
		{
			name:     "repairable json",
			input:    `{relationship: "works_at", confidence: 0.6}`,
			wantType: "works_at",
			wantConf: 0.6,
		},
		{
			name:    "no relationship",
			input:   `{"relationship": "none", "confidence": 0}`,
			wantNil: true,
		},
		{
			name:    "empty relationship",
			input:   `{"relationship": "", "confidence": 0.5}`,
			wantNil: true,
		},
		{
			name:    "garbage",
			input:   "I cannot answer that.",
			wantErr: true,
		},
		{
			name:     "confidence clamped",
			input:    `{"relationship": "works_at", "confidence": 3.5}`,
			wantType: "works_at",
			wantConf: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := ParseRelationResponse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if rel != nil {
					t.Fatalf("expected nil relation, got %+v", rel)
				}
				return
			}
			if rel == nil {
				t.Fatal("expected a relation, got nil")
			}
			if rel.Type != tt.wantType || rel.Confidence != tt.wantConf {
				t.Errorf("got %+v, want %s@%v", rel, tt.wantType, tt.wantConf)
			}
		})
	}
}
