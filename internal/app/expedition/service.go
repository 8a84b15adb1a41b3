// Package expedition implements the solo expedition lifecycle: creation with
// duplicate rejection, the due-expedition polling loop, idempotent completion
// through the store, and one notification per first completion.
package expedition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/domain"
	"github.com/0xdurkle/rover/internal/infra/catalog"
	"github.com/0xdurkle/rover/internal/infra/metrics"
	"github.com/0xdurkle/rover/internal/infra/sqlite"
)

// Config tunes the lifecycle controller.
type Config struct {
	PollInterval  time.Duration // due-expedition scan interval
	NotifyTimeout time.Duration // bound on one Notifier call
}

// DefaultConfig returns production defaults: seconds-scale polling latency
// is acceptable, sub-second precision is not a goal.
func DefaultConfig() Config {
	return Config{
		PollInterval:  5 * time.Second,
		NotifyTimeout: 10 * time.Second,
	}
}

// Service is the solo lifecycle controller.
type Service struct {
	db       *sqlite.DB
	catalog  *catalog.Store
	resolver *loot.Resolver
	notifier domain.Notifier
	config   Config
}

// NewService creates the lifecycle controller.
func NewService(db *sqlite.DB, cat *catalog.Store, resolver *loot.Resolver, notifier domain.Notifier, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultConfig().NotifyTimeout
	}
	return &Service{db: db, catalog: cat, resolver: resolver, notifier: notifier, config: cfg}
}

// Start creates a new expedition for an owner. Rejects unknown categories,
// non-positive durations, and owners who already hold an active expedition.
func (s *Service) Start(ownerID, category string, durationUnits float64) (*domain.Expedition, error) {
	return s.StartAt(ownerID, category, durationUnits, time.Now())
}

// StartAt is Start with an explicit clock, for tests.
func (s *Service) StartAt(ownerID, category string, durationUnits float64, now time.Time) (*domain.Expedition, error) {
	if durationUnits <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if _, ok := s.catalog.Snapshot().Category(category); !ok {
		return nil, domain.ErrUnknownCategory
	}

	e := domain.Expedition{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Category:      category,
		DurationUnits: durationUnits,
		StartedAt:     now,
		EndsAt:        domain.EndTime(now, durationUnits),
	}
	if err := s.db.CreateExpedition(e); err != nil {
		if errors.Is(err, domain.ErrExpeditionActive) {
			metrics.ExpeditionsDuplicate.Inc()
		}
		return nil, err
	}
	metrics.ExpeditionsStarted.WithLabelValues(category).Inc()
	return &e, nil
}

// Active returns the owner's current expedition, nil if none.
func (s *Service) Active(ownerID string) (*domain.Expedition, error) {
	return s.db.ActiveExpedition(ownerID, time.Now())
}

// ForceComplete completes an expedition immediately with no outcome. This is
// the only cancellation-like path: just a claim with a nil outcome.
func (s *Service) ForceComplete(id string) (domain.CompletionResult, error) {
	return s.db.ClaimCompletion(id, nil, time.Now())
}

// Run polls for due expeditions until the context is cancelled.
// Call in a goroutine.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick runs one poll pass: fetch due expeditions in ends_at order, resolve
// and complete each one independently. A failure on one expedition is logged
// and never blocks the rest of the batch. Safe to run concurrently with
// another tick — the store's completion claim is idempotent and a replayed
// claim is never re-notified.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	started := time.Now()
	defer func() {
		metrics.PollDuration.Observe(time.Since(started).Seconds())
	}()

	due, err := s.db.DueExpeditions(now)
	if err != nil {
		log.Printf("[expedition] due scan failed: %v", err)
		return
	}

	for _, e := range due {
		if err := s.complete(ctx, e, now); err != nil {
			log.Printf("[expedition] complete %s: %v", e.ID, err)
		}
	}
}

func (s *Service) complete(ctx context.Context, e domain.Expedition, now time.Time) error {
	res, err := s.resolver.Resolve(s.catalog.Snapshot(), e.Category, e.DurationUnits, 1, now)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if res.Clamped {
		metrics.ProbabilityClamped.Inc()
		log.Printf("[expedition] %s: adjusted probability clamped at 1.0 (category %s)", e.ID, e.Category)
	}

	result, err := s.db.ClaimCompletion(e.ID, res.Outcome, now)
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if result.Replayed {
		// Another tick got here first. The outcome is theirs; do not
		// notify again.
		return nil
	}

	metrics.ExpeditionsCompleted.WithLabelValues(e.Category).Inc()
	if result.Outcome != nil {
		metrics.LootResolved.WithLabelValues(string(result.Outcome.Rarity)).Inc()
	} else {
		metrics.EmptyHanded.Inc()
	}

	s.notify(ctx, domain.Notification{
		OwnerIDs:  []string{e.OwnerID},
		Category:  e.Category,
		Outcome:   result.Outcome,
		PartySize: 1,
	})
	return nil
}

// notify delivers one notification with a bounded timeout. The completion
// has already committed; delivery failure is logged and counted, nothing
// more.
func (s *Service) notify(ctx context.Context, n domain.Notification) {
	nctx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, n); err != nil {
		metrics.NotifyFailures.Inc()
		log.Printf("[expedition] notify %v: %v", n.OwnerIDs, err)
	}
}
