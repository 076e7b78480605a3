package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testQuestionSchema() *Schema {
	return &Schema{
		Name:        "test-quiz-questions",
		Description: "Multiple-choice questions",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question": map[string]any{"type": "string"},
							"options": map[string]any{
								"type":     "array",
								"items":    map[string]any{"type": "string"},
								"minItems": 4,
								"maxItems": 4,
							},
							"correct_answer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
							"explanation":    map[string]any{"type": "string"},
						},
						"required":             []any{"question", "options", "correct_answer", "explanation"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", questionsJSON, false},
		{"not json", `questions: none`, true},
		{"empty list", `{"questions":[]}`, true},
		{"three options", `{"questions":[{"question":"q","options":["a","b","c"],"correct_answer":0,"explanation":"e"}]}`, true},
		{"index out of range", `{"questions":[{"question":"q","options":["a","b","c","d"],"correct_answer":4,"explanation":"e"}]}`, true},
		{"missing explanation", `{"questions":[{"question":"q","options":["a","b","c","d"],"correct_answer":0}]}`, true},
		{"extra field", `{"questions":[],"note":"x"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testQuestionSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}

func TestValidateResponse_CachesCompiledSchema(t *testing.T) {
	s := testQuestionSchema()
	if err := ValidateJSON(s, json.RawMessage(questionsJSON)); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	if _, ok := compiled.Load(s.Name); !ok {
		t.Fatal("schema was not cached")
	}
	if err := ValidateJSON(s, json.RawMessage(questionsJSON)); err != nil {
		t.Fatalf("cached validation: %v", err)
	}
}
