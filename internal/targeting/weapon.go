package targeting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skyguard/radarsim/internal/data"
)

// Profile is the damage profile of a weapon.
type Profile uint8

const (
	SingleTarget Profile = iota
	Area
)

func (p Profile) String() string {
	switch p {
	case SingleTarget:
		return "single"
	case Area:
		return "area"
	}
	return fmt.Sprintf("Profile(%d)", uint8(p))
}

// ParseProfile accepts "single" or "area", case-insensitively.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single_target", "laser":
		return SingleTarget, nil
	case "area", "missile":
		return Area, nil
	}
	return 0, fmt.Errorf("targeting: unknown profile %q", s)
}

// Strategy decides how a target is chosen.
type Strategy uint8

const (
	ThreatPriority Strategy = iota
	TimePriority
)

func (s Strategy) String() string {
	switch s {
	case ThreatPriority:
		return "threat"
	case TimePriority:
		return "time"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// ParseStrategy accepts "threat" or "time", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "threat", "threat_priority":
		return ThreatPriority, nil
	case "time", "time_priority":
		return TimePriority, nil
	}
	return 0, fmt.Errorf("targeting: unknown strategy %q", s)
}

// WeaponConfig is one selectable weapon mode.
type WeaponConfig struct {
	Name     string
	Profile  Profile
	Strategy Strategy
	Cooldown time.Duration
	Range    float64 // effective range from the radar center
	Radius   float64 // effect radius around the strike point
}

var (
	ErrIncompleteCatalog = errors.New("targeting: catalog must define every profile and strategy pair")
	ErrDuplicateWeapon   = errors.New("targeting: duplicate profile and strategy pair")
)

// Catalog holds exactly one config per (profile, strategy) pair.
type Catalog struct {
	configs [2][2]WeaponConfig
}

// DefaultCatalog returns the built-in four weapon modes.
func DefaultCatalog() Catalog {
	c, _ := NewCatalog([]WeaponConfig{
		{Name: "laser single strike", Profile: SingleTarget, Strategy: ThreatPriority, Cooldown: 1500 * time.Millisecond, Range: 800, Radius: 35},
		{Name: "missile area strike", Profile: Area, Strategy: ThreatPriority, Cooldown: 800 * time.Millisecond, Range: 800, Radius: 150},
		{Name: "laser time priority", Profile: SingleTarget, Strategy: TimePriority, Cooldown: 1500 * time.Millisecond, Range: 800, Radius: 80},
		{Name: "missile time priority", Profile: Area, Strategy: TimePriority, Cooldown: 800 * time.Millisecond, Range: 800, Radius: 150},
	})
	return c
}

// NewCatalog validates that configs cover each pair exactly once.
func NewCatalog(configs []WeaponConfig) (Catalog, error) {
	var c Catalog
	var seen [2][2]bool
	for _, w := range configs {
		if w.Profile > Area || w.Strategy > TimePriority {
			return Catalog{}, fmt.Errorf("targeting: weapon %q: invalid profile or strategy", w.Name)
		}
		if seen[w.Profile][w.Strategy] {
			return Catalog{}, fmt.Errorf("%w: %s/%s", ErrDuplicateWeapon, w.Profile, w.Strategy)
		}
		seen[w.Profile][w.Strategy] = true
		c.configs[w.Profile][w.Strategy] = w
	}
	for p := range seen {
		for s := range seen[p] {
			if !seen[p][s] {
				return Catalog{}, fmt.Errorf("%w: missing %s/%s", ErrIncompleteCatalog, Profile(p), Strategy(s))
			}
		}
	}
	return c, nil
}

// Lookup returns the config for a pair.
func (c Catalog) Lookup(p Profile, s Strategy) (WeaponConfig, bool) {
	if p > Area || s > TimePriority {
		return WeaponConfig{}, false
	}
	return c.configs[p][s], true
}

// All lists the configs in profile-major order.
func (c Catalog) All() []WeaponConfig {
	out := make([]WeaponConfig, 0, 4)
	for p := range c.configs {
		out = append(out, c.configs[p][:]...)
	}
	return out
}

// CatalogFromTable converts loaded weapon rows into a validated catalog.
func CatalogFromTable(t *data.WeaponTable) (Catalog, error) {
	configs := make([]WeaponConfig, 0, t.Count())
	for _, row := range t.All() {
		p, err := ParseProfile(row.Profile)
		if err != nil {
			return Catalog{}, fmt.Errorf("weapon %q: %w", row.Name, err)
		}
		s, err := ParseStrategy(row.Strategy)
		if err != nil {
			return Catalog{}, fmt.Errorf("weapon %q: %w", row.Name, err)
		}
		configs = append(configs, WeaponConfig{
			Name:     row.Name,
			Profile:  p,
			Strategy: s,
			Cooldown: time.Duration(row.CooldownMs) * time.Millisecond,
			Range:    row.Range,
			Radius:   row.Radius,
		})
	}
	return NewCatalog(configs)
}
