package catalog

import (
	"fmt"
	"strings"
)

// Tier ranks a criterion within its metric's progression. The zero value is
// not a valid tier.
type Tier int

// Tiers in ascending order.
const (
	Bronze Tier = iota + 1
	Silver
	Gold
	Platinum
	Diamond
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{Bronze, Silver, Gold, Platinum, Diamond} //nolint:gochecknoglobals // fixed enum table

var tierNames = map[Tier]string{ //nolint:gochecknoglobals // fixed enum table
	Bronze:   "bronze",
	Silver:   "silver",
	Gold:     "gold",
	Platinum: "platinum",
	Diamond:  "diamond",
}

var tierColors = map[Tier]string{ //nolint:gochecknoglobals // fixed enum table
	Bronze:   "#CD7F32",
	Silver:   "#C0C0C0",
	Gold:     "#FFD700",
	Platinum: "#E5E4E2",
	Diamond:  "#B9F2FF",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Color returns the display colour for the tier as a hex string.
func (t Tier) Color() string {
	return tierColors[t]
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for t, name := range tierNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
