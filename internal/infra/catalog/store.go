package catalog

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/0xdurkle/rover/internal/domain"
)

// Store holds the current catalog snapshot behind an atomic pointer.
// Snapshot readers never block a Reload; a reload either swaps in a fully
// validated snapshot or leaves the previous one in place.
type Store struct {
	path string
	snap atomic.Pointer[Snapshot]
}

// fileCatalog mirrors the TOML layout of an operator-provided catalog file.
type fileCatalog struct {
	ShortTestDuration float64                       `toml:"short_test_duration"`
	MaxBonusMembers   int                           `toml:"max_bonus_members"`
	TestProbabilities map[domain.RarityTier]float64 `toml:"test_probabilities"`
	GroupBonus        map[domain.RarityTier]float64 `toml:"group_bonus"`
	Categories        []Category                    `toml:"category"`
}

// NewStore creates a store. With an empty path the builtin catalog is used;
// otherwise the TOML file at path is loaded (and re-read on Reload).
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current catalog version. The returned snapshot is
// immutable — hold it for the duration of one resolution.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Reload replaces the whole catalog. Safe to call concurrently with
// in-flight resolutions.
func (s *Store) Reload() error {
	snap, err := s.load()
	if err != nil {
		return err
	}
	snap.LoadedAt = time.Now()
	s.snap.Store(snap)
	return nil
}

func (s *Store) load() (*Snapshot, error) {
	if s.path == "" {
		snap := builtin()
		if err := snap.normalize(); err != nil {
			return nil, fmt.Errorf("builtin catalog: %w", err)
		}
		return snap, nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog file %s does not exist", s.path)
	}

	var fc fileCatalog
	if _, err := toml.DecodeFile(s.path, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	base := builtin()
	snap := &Snapshot{
		ShortTestDuration: fc.ShortTestDuration,
		MaxBonusMembers:   fc.MaxBonusMembers,
		TestProbabilities: fc.TestProbabilities,
		GroupBonus:        fc.GroupBonus,
		Categories:        make(map[string]Category, len(fc.Categories)),
	}
	// File may override only the pools; tables fall back to builtin.
	if snap.TestProbabilities == nil {
		snap.TestProbabilities = base.TestProbabilities
	}
	if snap.GroupBonus == nil {
		snap.GroupBonus = base.GroupBonus
	}
	for _, c := range fc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog: category without a name")
		}
		if _, dup := snap.Categories[c.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", c.Name)
		}
		snap.Categories[c.Name] = c
	}
	if err := snap.normalize(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.path, err)
	}
	return snap, nil
}
