// Package selection picks the questions for a session from a pool.
package selection

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
)

// DefaultCount is the number of questions selected when none is requested.
const DefaultCount = 10

// Selector samples questions using its random source.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Selector drawing from rng.
func New(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// NewSeeded returns a Selector with a deterministic PCG source.
func NewSeeded(seed uint64) *Selector {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewRandom returns a Selector seeded from the clock.
func NewRandom() *Selector {
	now := uint64(time.Now().UnixNano())
	return NewSeeded(now)
}

// Adjacent returns the tiers a session at target may draw from.
func Adjacent(target quiz.Tier) []quiz.Tier {
	switch target {
	case quiz.TierBeginner:
		return []quiz.Tier{quiz.TierBeginner, quiz.TierIntermediate}
	case quiz.TierIntermediate:
		return []quiz.Tier{quiz.TierIntermediate, quiz.TierAdvanced}
	case quiz.TierAdvanced:
		return []quiz.Tier{quiz.TierAdvanced, quiz.TierIntermediate}
	case quiz.TierExpert:
		return []quiz.Tier{quiz.TierExpert, quiz.TierAdvanced}
	case quiz.TierMaster:
		return []quiz.Tier{quiz.TierMaster, quiz.TierExpert}
	default:
		return nil
	}
}

// Select returns up to count questions for target. When fewer than count
// questions match the adjacent tiers, the whole pool is used instead.
// The pool is never modified.
func (s *Selector) Select(pool []quiz.QuestionRecord, target quiz.Tier, count int) []quiz.QuestionRecord {
	if count <= 0 {
		count = DefaultCount
	}
	if len(pool) == 0 {
		return []quiz.QuestionRecord{}
	}

	allowed := Adjacent(target)
	candidates := make([]quiz.QuestionRecord, 0, len(pool))
	for _, q := range pool {
		for _, t := range allowed {
			if q.Tier == t {
				candidates = append(candidates, q)
				break
			}
		}
	}
	if len(candidates) < count {
		candidates = append(candidates[:0:0], pool...)
	}

	s.mu.Lock()
	s.shuffle(candidates)
	s.mu.Unlock()
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

// shuffle is a Fisher-Yates permutation in place.
func (s *Selector) shuffle(qs []quiz.QuestionRecord) {
	for i := len(qs) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}
