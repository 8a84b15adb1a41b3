// Package loot implements the probability-resolution engine: it converts a
// (category, duration, party size) tuple into at most one outcome.
// Resolution is pure — no I/O, fully deterministic given a random source.
package loot

import (
	"math/rand"
	"sync"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
	"github.com/0xdurkle/rover/internal/infra/catalog"
)

// Resolver draws outcomes from catalog snapshots. Safe for concurrent use.
type Resolver struct {
	mu   sync.Mutex
	rand domain.RandSource
}

// NewResolver creates a resolver with the given random source.
func NewResolver(src domain.RandSource) *Resolver {
	return &Resolver{rand: src}
}

// NewSeededResolver creates a resolver over math/rand with the given seed.
func NewSeededResolver(seed int64) *Resolver {
	return NewResolver(rand.New(rand.NewSource(seed)))
}

// Resolution is the result of one draw. Outcome is nil for an empty-handed
// return. Clamped is set when any item's adjusted probability exceeded 1.0
// and was cut back — callers log and count it.
type Resolution struct {
	Outcome *domain.Outcome
	Clamped bool
}

// ItemOdds is one item's adjusted probability, in resolution order.
type ItemOdds struct {
	Item        catalog.Item `json:"item"`
	Probability float64      `json:"probability"`
	Clamped     bool         `json:"clamped"`
}

// Resolve draws one outcome. Items are checked rarest-first with one
// independent uniform draw each; the first success wins and no further
// items are checked. groupSize is 1 for solo expeditions.
func (r *Resolver) Resolve(snap *catalog.Snapshot, category string, durationUnits float64, groupSize int, now time.Time) (Resolution, error) {
	odds, err := AdjustedOdds(snap, category, durationUnits, groupSize)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range odds {
		if o.Clamped {
			res.Clamped = true
		}
		if r.rand.Float64() < o.Probability {
			res.Outcome = &domain.Outcome{
				ItemID:     o.Item.ID,
				Name:       o.Item.Name,
				Rarity:     o.Item.Rarity,
				Category:   category,
				ResolvedAt: now,
			}
			return res, nil
		}
	}
	return res, nil // empty-handed
}

// AdjustedOdds computes every item's final adjusted probability in
// resolution order (rarest first). The party bonus is additive per extra
// member, capped at the catalog's MaxBonusMembers, and is applied to the
// duration-adjusted probability — this is the single bonus code path.
func AdjustedOdds(snap *catalog.Snapshot, category string, durationUnits float64, groupSize int) ([]ItemOdds, error) {
	c, ok := snap.Category(category)
	if !ok {
		return nil, domain.ErrUnknownCategory
	}

	shortTest := snap.IsShortTest(durationUnits)
	multiplier := c.Multiplier(durationUnits)

	extras := groupSize - 1
	if extras < 0 {
		extras = 0
	}
	if extras > snap.MaxBonusMembers {
		extras = snap.MaxBonusMembers
	}

	odds := make([]ItemOdds, 0, len(c.Items))
	for _, it := range c.Items {
		var p float64
		if shortTest {
			p = snap.TestProbabilities[it.Rarity]
		} else {
			p = it.BaseProbability * multiplier
		}
		p += snap.GroupBonus[it.Rarity] * float64(extras)

		clamped := false
		if p > 1 {
			p = 1
			clamped = true
		}
		odds = append(odds, ItemOdds{Item: it, Probability: p, Clamped: clamped})
	}
	return odds, nil
}
