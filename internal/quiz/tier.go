package quiz

import (
	"fmt"
	"strings"
)

// Tier is a difficulty classification for questions and sessions.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierExpert       Tier = "expert"
	TierMaster       Tier = "master"
)

// AllTiers returns every tier in ascending difficulty order.
func AllTiers() []Tier {
	return []Tier{TierBeginner, TierIntermediate, TierAdvanced, TierExpert, TierMaster}
}

// ParseTier converts a user-supplied string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Rank() == 0 {
		return "", fmt.Errorf("unknown difficulty tier %q", s)
	}
	return t, nil
}

// Rank returns the 1-based position of the tier, or 0 for an unknown tier.
func (t Tier) Rank() int {
	switch t {
	case TierBeginner:
		return 1
	case TierIntermediate:
		return 2
	case TierAdvanced:
		return 3
	case TierExpert:
		return 4
	case TierMaster:
		return 5
	default:
		return 0
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool { return t.Rank() > 0 }

// Previous returns the tier immediately below t. ok is false for beginner
// and unknown tiers.
func (t Tier) Previous() (Tier, bool) {
	r := t.Rank()
	if r <= 1 {
		return "", false
	}
	return AllTiers()[r-2], true
}

// Next returns the tier immediately above t.
func (t Tier) Next() (Tier, bool) {
	r := t.Rank()
	if r == 0 || r >= len(AllTiers()) {
		return "", false
	}
	return AllTiers()[r], true
}

// DisplayName returns a human-readable label for the tier.
func (t Tier) DisplayName() string {
	switch t {
	case TierBeginner:
		return "Beginner"
	case TierIntermediate:
		return "Intermediate"
	case TierAdvanced:
		return "Advanced"
	case TierExpert:
		return "Expert"
	case TierMaster:
		return "Master"
	default:
		return string(t)
	}
}

// Icon returns the display icon for the tier.
func (t Tier) Icon() string {
	switch t {
	case TierBeginner:
		return "🌱"
	case TierIntermediate:
		return "📘"
	case TierAdvanced:
		return "🚀"
	case TierExpert:
		return "🏅"
	case TierMaster:
		return "👑"
	default:
		return "?"
	}
}

// TierSet is the ordered set of tiers a deployment exposes. Early flows
// only know the first three tiers; later flows add expert and master.
type TierSet []Tier

var (
	CoreTiers     = TierSet{TierBeginner, TierIntermediate, TierAdvanced}
	ExtendedTiers = TierSet(AllTiers())
)

// TierSetByName resolves "core" or "extended".
func TierSetByName(name string) (TierSet, error) {
	switch strings.ToLower(name) {
	case "core":
		return CoreTiers, nil
	case "", "extended":
		return ExtendedTiers, nil
	default:
		return nil, fmt.Errorf("unknown tier set %q", name)
	}
}

// Contains reports whether t is part of the set.
func (s TierSet) Contains(t Tier) bool {
	for _, x := range s {
		if x == t {
			return true
		}
	}
	return false
}
