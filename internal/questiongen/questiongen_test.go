package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/selection"
)

const twoQuestions = `{"questions":[
	{"question":"Which hook manages local state?","options":["useEffect","useState","useRef","useMemo"],"correct_answer":1,"explanation":"useState stores component state."},
	{"question":"What does JSX compile to?","options":["HTML","React.createElement calls","CSS","JSON"],"correct_answer":1,"explanation":"JSX is sugar for createElement."}
]}`

func jsReq(count int) Request {
	return Request{Subject: "react", Tier: quiz.TierIntermediate, Count: count}
}

func TestLLMSource_Generate(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(twoQuestions)})
	src := NewLLMSource(provider, DefaultConfig())

	batch, err := src.Generate(context.Background(), Request{Subject: "react", Topic: "hooks", Tier: quiz.TierIntermediate, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, batch.Source)
	require.Len(t, batch.Questions, 2)

	q := batch.Questions[0]
	assert.Equal(t, "react", q.Category)
	assert.Equal(t, quiz.TierIntermediate, q.Tier)
	assert.Equal(t, 1, q.CorrectIndex)
	assert.NotEmpty(t, q.ID)
	assert.NotEqual(t, q.ID, batch.Questions[1].ID)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, QuestionSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Messages[0].Content, "Focus: hooks")
	assert.Contains(t, calls[0].Messages[0].Content, "Number of questions: 2")
}

func TestLLMSource_StripsFencesAndDropsInvalid(t *testing.T) {
	content := "```json\n" + `{"questions":[
		{"question":"","options":["a","b","c","d"],"correct_answer":0,"explanation":"x"},
		{"question":"Three options?","options":["a","b","c"],"correct_answer":0,"explanation":"x"},
		{"question":"Out of range","options":["a","b","c","d"],"correct_answer":4,"explanation":"x"},
		{"question":"No answer","options":["a","b","c","d"],"explanation":"x"},
		{"question":"Good one","options":["a","b","c","d"],"correct_answer":3,"explanation":"because"}
	]}` + "\n```"
	src := NewLLMSource(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)}), DefaultConfig())

	batch, err := src.Generate(context.Background(), jsReq(5))
	require.NoError(t, err)
	require.Len(t, batch.Questions, 1)
	assert.Equal(t, "Good one", batch.Questions[0].Prompt)
}

func TestLLMSource_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrRateLimit{}}},
		{"not json", llm.MockResponse{Content: json.RawMessage("sorry, I cannot")}},
		{"no valid items", llm.MockResponse{Content: json.RawMessage(`{"questions":[{"question":"x","options":[],"correct_answer":0,"explanation":"y"}]}`)}},
		{"empty", llm.MockResponse{Content: json.RawMessage(`{"questions":[]}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewLLMSource(llm.NewMockProvider(tt.resp), DefaultConfig())
			_, err := src.Generate(context.Background(), jsReq(3))
			assert.ErrorIs(t, err, ErrGenerationFailed)
		})
	}
}

func TestLLMSource_CapsCount(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(twoQuestions)})
	src := NewLLMSource(provider, Config{MaxCount: 1, TokensPerQuestion: 100})

	batch, err := src.Generate(context.Background(), jsReq(10))
	require.NoError(t, err)
	assert.Len(t, batch.Questions, 1)
	assert.Equal(t, 356, provider.Calls()[0].MaxTokens)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		req   Request
		field string
	}{
		{Request{Tier: quiz.TierBeginner, Count: 1}, "subject"},
		{Request{Subject: "go", Tier: "legendary", Count: 1}, "difficulty"},
		{Request{Subject: "go", Tier: quiz.TierBeginner}, "count"},
	}
	for _, tt := range tests {
		err := tt.req.Validate()
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
		assert.Equal(t, tt.field, ve.Field)
	}
	assert.NoError(t, jsReq(1).Validate())
}

func TestTemplated(t *testing.T) {
	qs := Templated(Request{Subject: "go", Tier: quiz.TierAdvanced, Count: 3})
	require.Len(t, qs, 3)
	assert.Equal(t, "fallback_3", qs[2].ID)
	assert.Equal(t, "go question 3 (advanced level)", qs[2].Prompt)
	for _, q := range qs {
		assert.Len(t, q.Options, quiz.OptionCount)
		assert.Equal(t, quiz.TierAdvanced, q.Tier)
	}

	// Always at least one question.
	assert.Len(t, Templated(Request{Subject: "go"}), 1)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Generate(ctx context.Context, req Request) (*Batch, error) {
	args := m.Called(ctx, req)
	batch, _ := args.Get(0).(*Batch)
	return batch, args.Error(1)
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()
	req := jsReq(4)

	t.Run("primary succeeds", func(t *testing.T) {
		primary := new(mockSource)
		want := &Batch{Questions: Templated(Request{Subject: "react", Count: 1}), Source: "mock"}
		primary.On("Generate", ctx, req).Return(want, nil).Once()

		got, err := WithFallback(primary, TemplateSource{}, nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Same(t, want, got)
		primary.AssertExpectations(t)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := new(mockSource)
		primary.On("Generate", ctx, req).Return(nil, ErrGenerationFailed).Once()

		got, err := WithFallback(primary, TemplateSource{}, nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, got.Source)
		assert.Len(t, got.Questions, 4)
	})

	t.Run("primary empty", func(t *testing.T) {
		primary := new(mockSource)
		primary.On("Generate", ctx, req).Return(&Batch{Source: "mock"}, nil).Once()

		got, err := WithFallback(primary, TemplateSource{}, nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, got.Source)
	})

	t.Run("both fail", func(t *testing.T) {
		primary, fallback := new(mockSource), new(mockSource)
		primary.On("Generate", ctx, req).Return(nil, errors.New("down")).Once()
		fallback.On("Generate", ctx, req).Return(nil, errors.New("also down")).Once()

		_, err := WithFallback(primary, fallback, nil).Generate(ctx, req)
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.True(t, strings.Contains(err.Error(), "also down"))
	})
}

func TestFailingLLMFallsBackToTemplates(t *testing.T) {
	src := WithFallback(NewLLMSource(llm.NewMockProvider(), DefaultConfig()), TemplateSource{}, nil)

	batch, err := src.Generate(context.Background(), jsReq(7))
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, batch.Source)
	assert.Len(t, batch.Questions, 7)
}

type staticPool map[string][]quiz.QuestionRecord

func (p staticPool) QuestionPool(_ context.Context, category string) ([]quiz.QuestionRecord, error) {
	return p[category], nil
}

func TestBuiltinBank(t *testing.T) {
	qs, err := BuiltinBank()
	require.NoError(t, err)
	require.NotEmpty(t, qs)

	seen := map[string]bool{}
	categories := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
		categories[q.Category] = true
		assert.Len(t, q.Options, quiz.OptionCount, q.ID)
		assert.True(t, q.Tier.Valid(), q.ID)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.Less(t, q.CorrectIndex, quiz.OptionCount)
	}
	for _, c := range []string{"javascript", "react", "python", "nodejs"} {
		assert.True(t, categories[c], "missing category %s", c)
	}
}

func TestBankSource(t *testing.T) {
	qs, err := BuiltinBank()
	require.NoError(t, err)
	pool := staticPool{}
	for _, q := range qs {
		pool[q.Category] = append(pool[q.Category], q)
	}

	src := NewBankSource(pool, selection.NewSeeded(7))
	batch, err := src.Generate(context.Background(), Request{Subject: "python", Tier: quiz.TierBeginner, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, SourceBank, batch.Source)
	assert.Len(t, batch.Questions, 3)
	for _, q := range batch.Questions {
		assert.Equal(t, "python", q.Category)
	}

	empty, err := src.Generate(context.Background(), Request{Subject: "cobol", Tier: quiz.TierBeginner, Count: 3})
	require.NoError(t, err)
	assert.Empty(t, empty.Questions)
}

func TestLoadBank(t *testing.T) {
	valid := `[{"id":"q1","category":"go","question":"Zero value of int?","options":["0","nil","1","undefined"],"correct_answer":0,"difficulty":"beginner","explanation":"Numeric zero values are 0."}]`
	qs, err := LoadBank(strings.NewReader(valid))
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "go", qs[0].Category)

	tests := map[string]string{
		"not json":       `{`,
		"missing id":     `[{"category":"go","question":"q","options":["a","b","c","d"],"correct_answer":0,"difficulty":"beginner","explanation":"e"}]`,
		"bad tier":       `[{"id":"q1","category":"go","question":"q","options":["a","b","c","d"],"correct_answer":0,"difficulty":"legend","explanation":"e"}]`,
		"three options":  `[{"id":"q1","category":"go","question":"q","options":["a","b","c"],"correct_answer":0,"difficulty":"beginner","explanation":"e"}]`,
		"index too high": `[{"id":"q1","category":"go","question":"q","options":["a","b","c","d"],"correct_answer":4,"difficulty":"beginner","explanation":"e"}]`,
		"duplicate id": `[{"id":"q1","category":"go","question":"q","options":["a","b","c","d"],"correct_answer":0,"difficulty":"beginner","explanation":"e"},
			{"id":"q1","category":"go","question":"q","options":["a","b","c","d"],"correct_answer":1,"difficulty":"beginner","explanation":"e"}]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBank(strings.NewReader(raw))
			assert.Error(t, err)
		})
	}
}
