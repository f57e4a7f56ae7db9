package types

import (
	"fmt"
	"strings"
)

// Tier represents the criticality tier of a service. tier-1 is the most critical.
type Tier string

const (
	Tier1 Tier = "tier-1"
	Tier2 Tier = "tier-2"
	Tier3 Tier = "tier-3"
)

// AllTiers returns all valid tiers
func AllTiers() []Tier {
	return []Tier{
		Tier1,
		Tier2,
		Tier3,
	}
}

// IsValid checks if the tier is valid
func (t Tier) IsValid() bool {
	switch t {
	case Tier1,
		Tier2,
		Tier3:
		return true
	default:
		return false
	}
}

// String returns the string representation of the tier
func (t Tier) String() string {
	return string(t)
}

// ParseTier parses a string into a Tier. Bare numbers ("1") and
// underscore forms ("tier_1") are accepted.
func ParseTier(s string) (Tier, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	if !strings.HasPrefix(v, "tier-") {
		v = "tier-" + strings.TrimPrefix(v, "tier")
	}

	tier := Tier(v)
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid tier: %s", s)
	}
	return tier, nil
}
