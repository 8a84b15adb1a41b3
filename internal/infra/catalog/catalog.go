// Package catalog provides the outcome catalog: the weighted loot pools,
// duration multipliers, and party bonus rules that drive resolution.
// The catalog is read as an immutable snapshot and hot-reloaded as a whole —
// in-flight resolutions always see a consistent version, never a half-update.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

// DurationTolerance is the float tolerance for matching a requested duration
// against the catalog's duration table.
const DurationTolerance = 1e-4

// ShortTestDuration (in units) selects the fixed verification probability
// table instead of base×multiplier. 0.008333 units ≈ 30 seconds.
const ShortTestDuration = 0.008333

// Item is one possible piece of loot. ID is the immutable identity recorded
// on every resolved outcome; Name is display-only and may be renamed later.
type Item struct {
	ID              string            `toml:"id"`
	Name            string            `toml:"name"`
	Rarity          domain.RarityTier `toml:"rarity"`
	BaseProbability float64           `toml:"base_probability"`
}

// DurationMultiplier scales base probabilities for one expedition length.
type DurationMultiplier struct {
	DurationUnits float64 `toml:"duration_units"`
	Multiplier    float64 `toml:"multiplier"`
}

// Category is one themed loot pool. Items are kept sorted rarest-first;
// Snapshot normalization guarantees the order.
type Category struct {
	Name      string               `toml:"name"`
	Items     []Item               `toml:"item"`
	Durations []DurationMultiplier `toml:"duration"`
}

// Multiplier returns the multiplier for the given duration, 1.0 when the
// duration has no entry. Matching uses DurationTolerance.
func (c Category) Multiplier(durationUnits float64) float64 {
	for _, d := range c.Durations {
		if approxEqual(d.DurationUnits, durationUnits) {
			return d.Multiplier
		}
	}
	return 1.0
}

// Snapshot is one immutable, validated catalog version.
type Snapshot struct {
	Categories        map[string]Category
	GroupBonus        map[domain.RarityTier]float64
	MaxBonusMembers   int
	ShortTestDuration float64
	TestProbabilities map[domain.RarityTier]float64
	LoadedAt          time.Time
}

// Category looks up a loot pool by name.
func (s *Snapshot) Category(name string) (Category, bool) {
	c, ok := s.Categories[name]
	return c, ok
}

// CategoryNames returns all category names, sorted.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsShortTest reports whether the duration selects the verification table.
func (s *Snapshot) IsShortTest(durationUnits float64) bool {
	return approxEqual(durationUnits, s.ShortTestDuration)
}

// normalize sorts items rarest-first and validates the snapshot.
func (s *Snapshot) normalize() error {
	if len(s.Categories) == 0 {
		return domain.ErrEmptyCatalog
	}
	for name, c := range s.Categories {
		if len(c.Items) == 0 {
			return fmt.Errorf("category %q has no items", name)
		}
		for _, it := range c.Items {
			if it.ID == "" {
				return fmt.Errorf("category %q: item %q has no id", name, it.Name)
			}
			if !it.Rarity.Valid() {
				return fmt.Errorf("category %q: item %q has unknown rarity %q", name, it.ID, it.Rarity)
			}
			if it.BaseProbability < 0 || it.BaseProbability > 1 {
				return fmt.Errorf("category %q: item %q probability %v out of [0,1]", name, it.ID, it.BaseProbability)
			}
		}
		sort.SliceStable(c.Items, func(i, j int) bool {
			return c.Items[i].Rarity.Rank() < c.Items[j].Rarity.Rank()
		})
		c.Name = name
		s.Categories[name] = c
	}
	if s.ShortTestDuration == 0 {
		s.ShortTestDuration = ShortTestDuration
	}
	if s.MaxBonusMembers == 0 {
		s.MaxBonusMembers = domain.MaxPartyMembers - 1
	}
	return nil
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < DurationTolerance
}
