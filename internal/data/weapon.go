package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeaponEntry is one weapon mode row from weapon_list.yaml.
type WeaponEntry struct {
	Name       string  `yaml:"name"`
	Profile    string  `yaml:"profile"`  // single | area
	Strategy   string  `yaml:"strategy"` // threat | time
	CooldownMs int     `yaml:"cooldown_ms"`
	Range      float64 `yaml:"range"`
	Radius     float64 `yaml:"radius"`
}

// WeaponTable holds the weapon rows in file order.
type WeaponTable struct {
	entries []WeaponEntry
}

type weaponFile struct {
	Weapons []WeaponEntry `yaml:"weapons"`
}

// LoadWeaponTable loads weapon_list.yaml.
func LoadWeaponTable(path string) (*WeaponTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("weapon: read %s: %w", path, err)
	}
	var f weaponFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("weapon: parse %s: %w", path, err)
	}
	for i, w := range f.Weapons {
		if w.CooldownMs < 0 || w.Range < 0 || w.Radius <= 0 {
			return nil, fmt.Errorf("weapon: %s: entry %d (%q) has invalid cooldown, range or radius", path, i, w.Name)
		}
	}
	return &WeaponTable{entries: f.Weapons}, nil
}

// All returns every row.
func (t *WeaponTable) All() []WeaponEntry {
	return t.entries
}

func (t *WeaponTable) Count() int {
	return len(t.entries)
}
