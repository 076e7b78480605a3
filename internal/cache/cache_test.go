package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/quiz"
)

func TestNewWithoutAddrIsNoop(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	require.NoError(t, c.Put(context.Background(), "s1", []quiz.QuestionRecord{{ID: "q1"}}, time.Minute))
	_, ok, err := c.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("QUIZFORGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QUIZFORGE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := New(ctx, Config{Addr: addr, Prefix: "quizforge-test:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	id := uuid.NewString()
	qs := []quiz.QuestionRecord{{
		ID: "q1", Category: "go", Prompt: "Zero value of a map?",
		Options: []string{"nil", "{}", "0", "panic"}, Tier: quiz.TierBeginner,
	}}

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, id, qs, time.Minute))
	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, qs, got)

	require.NoError(t, c.Delete(ctx, id))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
