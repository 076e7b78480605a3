package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(testQuestionSchema().Definition)

	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", s.Type)
	}
	qs := s.Properties["questions"]
	if qs == nil || qs.Type != genai.TypeArray {
		t.Fatalf("questions should be an array, got %+v", qs)
	}
	item := qs.Items
	if item == nil || item.Type != genai.TypeObject {
		t.Fatalf("items should be objects, got %+v", item)
	}
	if item.Properties["correct_answer"].Type != genai.TypeInteger {
		t.Errorf("correct_answer type = %s", item.Properties["correct_answer"].Type)
	}
	if item.Properties["options"].Items.Type != genai.TypeString {
		t.Errorf("options items type = %s", item.Properties["options"].Items.Type)
	}
	if len(item.Required) != 4 {
		t.Errorf("required = %v", item.Required)
	}
}

func TestGeminiSchema_EnumAndUnknownType(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tier":  map[string]any{"type": "string", "enum": []string{"beginner", "advanced"}},
			"blob":  map[string]any{"type": "null"},
			"score": map[string]any{"type": "number", "description": "0-100"},
		},
	})
	if got := s.Properties["tier"].Enum; len(got) != 2 {
		t.Errorf("enum = %v", got)
	}
	if s.Properties["blob"].Type != genai.TypeString {
		t.Errorf("unknown type should fall back to STRING, got %s", s.Properties["blob"].Type)
	}
	if s.Properties["score"].Description != "0-100" {
		t.Errorf("description lost")
	}
}
