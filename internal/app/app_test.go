package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/config"
	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/session"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(context.Background(), &cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSeedBankOnce(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	n, err := a.SeedBank(ctx, false)
	require.NoError(t, err)
	assert.Positive(t, n)

	n, err = a.SeedBank(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, n)

	cats, err := a.Service.Subjects(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}

func TestServiceUsesBank(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	_, err := a.SeedBank(ctx, false)
	require.NoError(t, err)

	sess, err := a.Service.Start(ctx, session.StartRequest{UserID: "u1", Subject: "react", Tier: "beginner", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, questiongen.SourceBank, sess.Source)
	assert.Len(t, sess.Questions, 3)
}

func TestLLMSourceFallsBackWithoutProvider(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Questions.Source = questiongen.SourceLLM
	})
	assert.Nil(t, a.LLM)

	sess, err := a.Service.Start(context.Background(), session.StartRequest{UserID: "u1", Subject: "go", Tier: "beginner", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, questiongen.SourceFallback, sess.Source)
}

func TestMockProviderWired(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.LLM.Provider = "mock"
	})
	assert.NotNil(t, a.LLM)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = NewLogger(&buf, config.LogConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = NewLogger(&buf, config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
