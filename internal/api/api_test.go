package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/selection"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	bank, err := questiongen.BuiltinBank()
	require.NoError(t, err)
	require.NoError(t, st.UpsertQuestions(ctx, "builtin", bank))

	svc := session.NewService(st, session.Options{
		Sources: map[string]questiongen.Source{
			questiongen.SourceBank:     questiongen.NewBankSource(st, selection.NewSeeded(3)),
			questiongen.SourceFallback: questiongen.TemplateSource{},
		},
		DefaultSource: questiongen.SourceFallback,
		Rules:         session.DefaultRules(),
		Selector:      selection.NewSeeded(3),
	})
	return NewRouter(NewHandler(svc, nil), RouterConfig{CORSOrigins: []string{"*"}})
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func startSession(t *testing.T, r http.Handler, body map[string]any) map[string]any {
	t.Helper()
	w := do(r, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func TestHealthAndSubjects(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/subjects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	subjects := decode(t, w)["subjects"].([]any)
	assert.Len(t, subjects, 4)
}

func TestBankQuiz(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/quiz?category=react&difficulty=beginner&count=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["total"])

	qs := body["questions"].([]any)
	ids := make([]string, len(qs))
	answers := make([]int, len(qs))
	for i, q := range qs {
		m := q.(map[string]any)
		ids[i] = m["id"].(string)
		answers[i] = int(m["correct_answer"].(float64))
	}

	w = do(r, http.MethodPost, "/api/quiz", map[string]any{
		"category": "react", "question_ids": ids, "answers": answers, "time_spent": 90,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode(t, w)["summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["correct_count"])
	assert.Equal(t, "A", summary["grade"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/quiz", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/quiz?category=cobol", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/quiz?category=react&count=x", nil).Code)
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter(t)

	sess := startSession(t, r, map[string]any{"user_id": "u1", "subject": "react", "difficulty": "beginner", "count": 2})
	id := sess["id"].(string)
	assert.Equal(t, "active", sess["status"])
	assert.Equal(t, "fallback", sess["source"])
	assert.NotEmpty(t, sess["expires_at"])
	for _, q := range sess["questions"].([]any) {
		_, leaked := q.(map[string]any)["correct_answer"]
		assert.False(t, leaked, "correct answer visible while active")
	}

	w := do(r, http.MethodPut, "/api/sessions/"+id+"/answers/0", map[string]any{"option": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{float64(0), float64(-1)}, decode(t, w)["answers"])

	w = do(r, http.MethodPut, "/api/sessions/"+id+"/answers/9", map[string]any{"option": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPut, "/api/sessions/"+id+"/answers/1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/sessions/"+id+"/submit", map[string]any{"answers": []int{0, 0}, "time_spent": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(2), result["correct_count"])
	assert.Equal(t, float64(100), result["accuracy_percent"])
	assert.Len(t, body["new_achievements"], 2)

	done := body["session"].(map[string]any)
	assert.Equal(t, "completed", done["status"])
	first := done["questions"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(0), first["correct_answer"])

	w = do(r, http.MethodPost, "/api/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/users/u1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_quizzes_completed"])

	w = do(r, http.MethodGet, "/api/users/u1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessions"], 1)

	w = do(r, http.MethodGet, "/api/users/u1/tiers?subject=react", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tiers := decode(t, w)["tiers"].([]any)
	assert.Equal(t, true, tiers[1].(map[string]any)["unlocked"])

	w = do(r, http.MethodGet, "/api/users/u1/performance?category=react", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total_answers"])
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/sessions", map[string]any{"user_id": "u1", "subject": "react", "difficulty": "advanced"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/sessions", map[string]any{"user_id": "u1", "subject": "react", "difficulty": "legendary"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/sessions", map[string]any{"user_id": "u1", "subject": "haskell", "difficulty": "beginner", "source": "bank"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(r, http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/users/u1/tiers", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sess := startSession(t, r, map[string]any{"user_id": "u1", "subject": "react", "difficulty": "beginner", "count": 3})
	id := sess["id"].(string)
	w = do(r, http.MethodPost, "/api/sessions/"+id+"/submit", map[string]any{"answers": []int{0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExport(t *testing.T) {
	r := newTestRouter(t)
	sess := startSession(t, r, map[string]any{"user_id": "u1", "subject": "react", "difficulty": "beginner", "count": 2})
	w := do(r, http.MethodPost, "/api/sessions/"+sess["id"].(string)+"/submit", map[string]any{"answers": []int{0, 1}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/users/u1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	w = do(r, http.MethodGet, "/api/users/u1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2)

	w = do(r, http.MethodGet, "/api/users/u1/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
