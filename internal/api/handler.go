package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/report"
	"github.com/abhisek/quizforge/internal/scoring"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/store"
)

// Handler serves the quiz API over a session service.
type Handler struct {
	svc *session.Service
	log *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *session.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListSubjects returns bank categories with question counts.
// GET /api/subjects
func (h *Handler) ListSubjects(c *gin.Context) {
	cats, err := h.svc.Subjects(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]subjectView, len(cats))
	for i, cc := range cats {
		out[i] = subjectView{Category: cc.Category, Count: cc.Count}
	}
	c.JSON(http.StatusOK, gin.H{"subjects": out})
}

// GetQuiz draws a stateless quiz from the bank.
// GET /api/quiz?category=&difficulty=&count=
func (h *Handler) GetQuiz(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	count, err := queryInt(c, "count", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qs, err := h.svc.Quiz(c.Request.Context(), category, c.Query("difficulty"), count)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs, "category": category, "total": len(qs)})
}

// ScoreQuiz grades a stateless bank quiz.
// POST /api/quiz
func (h *Handler) ScoreQuiz(c *gin.Context) {
	var req session.QuizAnswers
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	res, err := h.svc.ScoreQuiz(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": res})
}

// StartSession starts a progression session.
// POST /api/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req session.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	sess, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionView(sess))
}

// GetSession returns a session.
// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

// RecordAnswer stores one selection.
// PUT /api/sessions/:id/answers/:index
func (h *Handler) RecordAnswer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question index"})
		return
	}
	var req struct {
		Option *int `json:"option" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	sess, err := h.svc.Answer(c.Request.Context(), c.Param("id"), index, *req.Option)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

// SubmitSession scores a session and applies progression.
// POST /api/sessions/:id/submit
func (h *Handler) SubmitSession(c *gin.Context) {
	var req struct {
		Answers   []int `json:"answers"`
		TimeSpent int   `json:"time_spent"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
	}
	sum, err := h.svc.Submit(c.Request.Context(), session.SubmitRequest{
		SessionID: c.Param("id"),
		Answers:   req.Answers,
		TimeSpent: time.Duration(req.TimeSpent) * time.Second,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSubmitResponse(sum))
}

// AbandonSession closes a session without scoring it.
// DELETE /api/sessions/:id
func (h *Handler) AbandonSession(c *gin.Context) {
	if err := h.svc.Abandon(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStats returns a user's progression.
// GET /api/users/:id/stats
func (h *Handler) GetStats(c *gin.Context) {
	profile, err := h.svc.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetPerformance returns per-category performance, or one category with
// ?category=.
// GET /api/users/:id/performance
func (h *Handler) GetPerformance(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		perf, err := h.svc.Performance(c.Request.Context(), c.Param("id"), category)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, perf)
		return
	}
	profile, err := h.svc.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"performance": profile.Performance})
}

// GetTiers returns tier unlock states for a subject.
// GET /api/users/:id/tiers?subject=
func (h *Handler) GetTiers(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}
	tiers, err := h.svc.Tiers(c.Request.Context(), c.Param("id"), subject)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "tiers": tiers})
}

// ListSessions returns a user's sessions, newest first.
// GET /api/users/:id/sessions?limit=
func (h *Handler) ListSessions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.svc.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]sessionView, len(sessions))
	for i := range sessions {
		out[i] = newSessionView(&sessions[i])
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// ExportUser downloads a user's history.
// GET /api/users/:id/export?format=xlsx|csv
func (h *Handler) ExportUser(c *gin.Context) {
	userID := c.Param("id")
	format := c.DefaultQuery("format", report.FormatXLSX)
	if format != report.FormatXLSX && format != report.FormatCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}

	data, err := h.svc.Export(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, data); err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(userID, format, data.GeneratedAt)))
	c.Data(http.StatusOK, report.ContentType(format), buf.Bytes())
}

// handleError maps service errors to status codes.
func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *questiongen.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidRequest),
		errors.Is(err, session.ErrUnknownSource),
		errors.Is(err, scoring.ErrMalformedSubmission),
		errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrTierLocked):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, questiongen.ErrGenerationFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}
