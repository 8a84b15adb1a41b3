// Package domain holds the pure types for the expedition engine.
// No infrastructure dependencies — sqlite, chi, and friends live elsewhere.
package domain

import "time"

// HoursPerUnit converts durationUnits to wall-clock time.
// One unit is one hour; fractional units are allowed (0.008333 ≈ 30s).
const HoursPerUnit = time.Hour

// Expedition is one timed commitment by a single explorer.
// Created once, completed exactly once; every field is immutable after
// Completed flips to true.
type Expedition struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Category      string    `json:"category"`
	DurationUnits float64   `json:"duration_units"`
	StartedAt     time.Time `json:"started_at"`
	EndsAt        time.Time `json:"ends_at"`
	Completed     bool      `json:"completed"`
	Outcome       *Outcome  `json:"outcome,omitempty"`

	// PartyID is set when this expedition backs a party member. Party-backed
	// expeditions are completed by the party coordinator, not the solo poller.
	PartyID string `json:"party_id,omitempty"`
}

// Due reports whether the expedition has reached its end time.
func (e Expedition) Due(now time.Time) bool {
	return !e.Completed && !e.EndsAt.After(now)
}

// EndTime computes when an expedition started at the given time ends.
func EndTime(startedAt time.Time, durationUnits float64) time.Time {
	return startedAt.Add(time.Duration(durationUnits * float64(HoursPerUnit)))
}

// Outcome is one resolved piece of loot. ItemID is the catalog item's
// immutable identity captured at resolution time, so later catalog renames
// never require reconciling history by display name.
type Outcome struct {
	ItemID     string     `json:"item_id"`
	Name       string     `json:"name"`
	Rarity     RarityTier `json:"rarity"`
	Category   string     `json:"category"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// CompletionResult is what a completion claim returns. Replayed means the
// expedition was already completed and Outcome is the previously stored
// value — no side effects were applied.
type CompletionResult struct {
	Outcome  *Outcome
	Replayed bool
}

// ExplorerProfile is the per-owner aggregate, created lazily on first
// completion and mutated only inside the completion transaction.
type ExplorerProfile struct {
	OwnerID          string    `json:"owner_id"`
	TotalCompleted   int64     `json:"total_completed"`
	LastCompletionAt time.Time `json:"last_completion_at"`
}

// ─── Rarity Tiers ───────────────────────────────────────────────────────────

// RarityTier ranks loot. Resolution iterates tiers rarest-first and stops at
// the first successful draw.
type RarityTier string

const (
	RarityFragment  RarityTier = "fragment"
	RarityLegendary RarityTier = "legendary"
	RarityRare      RarityTier = "rare"
	RarityUncommon  RarityTier = "uncommon"
	RarityCommon    RarityTier = "common"
)

// rarityRank orders tiers rarest-first. Unknown tiers sort last.
var rarityRank = map[RarityTier]int{
	RarityFragment:  0,
	RarityLegendary: 1,
	RarityRare:      2,
	RarityUncommon:  3,
	RarityCommon:    4,
}

// Rank returns the tier's resolution order (lower = rarer = checked first).
func (r RarityTier) Rank() int {
	if rank, ok := rarityRank[r]; ok {
		return rank
	}
	return len(rarityRank)
}

// Valid reports whether the tier is one of the known ranks.
func (r RarityTier) Valid() bool {
	_, ok := rarityRank[r]
	return ok
}
