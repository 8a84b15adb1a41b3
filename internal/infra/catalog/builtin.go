package catalog

import "github.com/0xdurkle/rover/internal/domain"

// builtin returns the default catalog compiled into the binary. Operators
// override it with a TOML file (see Store); the shapes are identical.
func builtin() *Snapshot {
	standardDurations := []DurationMultiplier{
		{DurationUnits: 1, Multiplier: 0.5},
		{DurationUnits: 4, Multiplier: 1.0},
		{DurationUnits: 8, Multiplier: 1.5},
		{DurationUnits: 12, Multiplier: 2.0},
		{DurationUnits: 24, Multiplier: 3.0},
	}

	return &Snapshot{
		ShortTestDuration: ShortTestDuration,
		MaxBonusMembers:   domain.MaxPartyMembers - 1,

		// Fixed per-tier probabilities for the short verification duration.
		// High-signal on purpose: a 30-second run should produce loot often
		// enough to check the pipeline without waiting hours.
		TestProbabilities: map[domain.RarityTier]float64{
			domain.RarityFragment:  0.05,
			domain.RarityLegendary: 0.10,
			domain.RarityRare:      0.25,
			domain.RarityUncommon:  0.50,
			domain.RarityCommon:    0.90,
		},

		// Additive probability per extra party member, per tier.
		GroupBonus: map[domain.RarityTier]float64{
			domain.RarityFragment:  0.002,
			domain.RarityLegendary: 0.005,
			domain.RarityRare:      0.010,
			domain.RarityUncommon:  0.015,
			domain.RarityCommon:    0.020,
		},

		Categories: map[string]Category{
			"Caverns": {
				Items: []Item{
					{ID: "hollow-fragment", Name: "Hollow Fragment", Rarity: domain.RarityFragment, BaseProbability: 0.002},
					{ID: "singing-crystal", Name: "Singing Crystal", Rarity: domain.RarityLegendary, BaseProbability: 0.008},
					{ID: "geode", Name: "Geode", Rarity: domain.RarityRare, BaseProbability: 0.02},
					{ID: "vein-silver", Name: "Silver Vein Shards", Rarity: domain.RarityUncommon, BaseProbability: 0.08},
					{ID: "flint", Name: "Flint Nodules", Rarity: domain.RarityCommon, BaseProbability: 0.30},
				},
				Durations: standardDurations,
			},
			"Tidal Flats": {
				Items: []Item{
					{ID: "leviathan-scale", Name: "Leviathan Scale", Rarity: domain.RarityLegendary, BaseProbability: 0.006},
					{ID: "black-pearl", Name: "Black Pearl", Rarity: domain.RarityRare, BaseProbability: 0.025},
					{ID: "ambergris", Name: "Ambergris Lump", Rarity: domain.RarityUncommon, BaseProbability: 0.07},
					{ID: "driftwood", Name: "Carved Driftwood", Rarity: domain.RarityCommon, BaseProbability: 0.35},
				},
				Durations: standardDurations,
			},
			"Ashen Peaks": {
				Items: []Item{
					{ID: "ember-fragment", Name: "Ember Fragment", Rarity: domain.RarityFragment, BaseProbability: 0.0015},
					{ID: "phoenix-feather", Name: "Phoenix Feather", Rarity: domain.RarityLegendary, BaseProbability: 0.005},
					{ID: "obsidian-core", Name: "Obsidian Core", Rarity: domain.RarityRare, BaseProbability: 0.018},
					{ID: "sulfur-bloom", Name: "Sulfur Bloom", Rarity: domain.RarityUncommon, BaseProbability: 0.09},
					{ID: "pumice", Name: "Pumice Stones", Rarity: domain.RarityCommon, BaseProbability: 0.28},
				},
				Durations: standardDurations,
			},
			"Sunken Archives": {
				Items: []Item{
					{ID: "sealed-folio", Name: "Sealed Folio", Rarity: domain.RarityLegendary, BaseProbability: 0.007},
					{ID: "star-chart", Name: "Star Chart", Rarity: domain.RarityRare, BaseProbability: 0.022},
					{ID: "inked-plate", Name: "Inked Copper Plate", Rarity: domain.RarityUncommon, BaseProbability: 0.075},
					{ID: "waterlogged-scroll", Name: "Waterlogged Scroll", Rarity: domain.RarityCommon, BaseProbability: 0.32},
				},
				Durations: standardDurations,
			},
		},
	}
}
