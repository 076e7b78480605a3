package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/quiz"
)

func pool(counts map[quiz.Tier]int) []quiz.QuestionRecord {
	var out []quiz.QuestionRecord
	for _, t := range quiz.AllTiers() {
		for i := range counts[t] {
			out = append(out, quiz.QuestionRecord{ID: fmt.Sprintf("%s-%d", t, i), Tier: t})
		}
	}
	return out
}

func ids(qs []quiz.QuestionRecord) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestSelect_FallsBackToFullPool(t *testing.T) {
	p := pool(map[quiz.Tier]int{quiz.TierBeginner: 3})
	got := NewSeeded(1).Select(p, quiz.TierAdvanced, 10)
	assert.ElementsMatch(t, ids(p), ids(got))
}

func TestSelect_FiltersAdjacentTiers(t *testing.T) {
	p := pool(map[quiz.Tier]int{
		quiz.TierBeginner:     10,
		quiz.TierIntermediate: 6,
		quiz.TierAdvanced:     6,
	})
	got := NewSeeded(7).Select(p, quiz.TierAdvanced, 10)
	require.Len(t, got, 10)
	for _, q := range got {
		assert.Contains(t, []quiz.Tier{quiz.TierAdvanced, quiz.TierIntermediate}, q.Tier)
	}
}

func TestSelect_DeterministicWithSeed(t *testing.T) {
	p := pool(map[quiz.Tier]int{quiz.TierBeginner: 20, quiz.TierIntermediate: 20})
	a := NewSeeded(42).Select(p, quiz.TierBeginner, 15)
	b := NewSeeded(42).Select(p, quiz.TierBeginner, 15)
	assert.Equal(t, ids(a), ids(b))

	c := NewSeeded(43).Select(p, quiz.TierBeginner, 15)
	assert.NotEqual(t, ids(a), ids(c))
}

func TestSelect_NoDuplicatesAndPoolUntouched(t *testing.T) {
	p := pool(map[quiz.Tier]int{quiz.TierIntermediate: 12, quiz.TierAdvanced: 12})
	before := ids(p)

	got := NewSeeded(3).Select(p, quiz.TierIntermediate, 20)
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate %s", q.ID)
		seen[q.ID] = true
	}
	assert.Equal(t, before, ids(p))
}

func TestSelect_EmptyPoolAndDefaultCount(t *testing.T) {
	s := NewSeeded(1)
	assert.Empty(t, s.Select(nil, quiz.TierBeginner, 5))

	p := pool(map[quiz.Tier]int{quiz.TierBeginner: 30})
	assert.Len(t, s.Select(p, quiz.TierBeginner, 0), DefaultCount)
}

func TestAdjacent(t *testing.T) {
	assert.Equal(t, []quiz.Tier{quiz.TierBeginner, quiz.TierIntermediate}, Adjacent(quiz.TierBeginner))
	assert.Equal(t, []quiz.Tier{quiz.TierIntermediate, quiz.TierAdvanced}, Adjacent(quiz.TierIntermediate))
	assert.Equal(t, []quiz.Tier{quiz.TierAdvanced, quiz.TierIntermediate}, Adjacent(quiz.TierAdvanced))
	assert.Nil(t, Adjacent(quiz.Tier("x")))
}
