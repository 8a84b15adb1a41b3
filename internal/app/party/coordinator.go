// Package party implements group expeditions: a time-boxed join window, one
// backing expedition per member, a single shared outcome resolved once, and
// an idempotent fan-out that copies it to every member at the shared end
// time.
//
// Party state is durable. The in-memory map here is only a cache in front of
// the sqlite rows, so a process restarted mid-formation (or after resolution
// but before fan-out) rediscovers unfinished parties and carries on.
package party

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/domain"
	"github.com/0xdurkle/rover/internal/infra/catalog"
	"github.com/0xdurkle/rover/internal/infra/metrics"
	"github.com/0xdurkle/rover/internal/infra/sqlite"
)

// Config tunes the coordinator.
type Config struct {
	JoinWindow    time.Duration // how long a forming party accepts members
	TickInterval  time.Duration // scheduler scan interval
	NotifyTimeout time.Duration // bound on one Notifier call
	DiscardAfter  time.Duration // retention of completed party rows
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		JoinWindow:    60 * time.Second,
		TickInterval:  5 * time.Second,
		NotifyTimeout: 10 * time.Second,
		DiscardAfter:  5 * time.Minute,
	}
}

// Coordinator manages party formations.
type Coordinator struct {
	db       *sqlite.DB
	catalog  *catalog.Store
	resolver *loot.Resolver
	notifier domain.Notifier
	config   Config

	mu    sync.Mutex
	cache map[string]*domain.Party
}

// NewCoordinator creates a coordinator. Call Recover before Run to warm the
// cache from durable state after a restart.
func NewCoordinator(db *sqlite.DB, cat *catalog.Store, resolver *loot.Resolver, notifier domain.Notifier, cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.JoinWindow <= 0 {
		cfg.JoinWindow = def.JoinWindow
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if cfg.DiscardAfter <= 0 {
		cfg.DiscardAfter = def.DiscardAfter
	}
	return &Coordinator{
		db:       db,
		catalog:  cat,
		resolver: resolver,
		notifier: notifier,
		config:   cfg,
		cache:    make(map[string]*domain.Party),
	}
}

// Recover reloads unfinished parties from the store. A party that resolved
// its outcome but never finished the fan-out before a crash is picked up by
// the next Tick as if nothing happened.
func (c *Coordinator) Recover() error {
	parties, err := c.db.UnfinishedParties()
	if err != nil {
		return fmt.Errorf("load unfinished parties: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range parties {
		p := parties[i]
		c.cache[p.ID] = &p
	}
	if len(parties) > 0 {
		log.Printf("[party] recovered %d unfinished parties", len(parties))
	}
	return nil
}

// Create opens a new party. The creator is auto-joined as the first member.
func (c *Coordinator) Create(creatorID, category string, durationUnits float64) (*domain.Party, error) {
	return c.CreateAt(creatorID, category, durationUnits, time.Now())
}

// CreateAt is Create with an explicit clock, for tests.
func (c *Coordinator) CreateAt(creatorID, category string, durationUnits float64, now time.Time) (*domain.Party, error) {
	if durationUnits <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if _, ok := c.catalog.Snapshot().Category(category); !ok {
		return nil, domain.ErrUnknownCategory
	}

	p := domain.Party{
		ID:            uuid.NewString(),
		CreatorID:     creatorID,
		Category:      category,
		DurationUnits: durationUnits,
		JoinDeadline:  now.Add(c.config.JoinWindow),
		CreatedAt:     now,
		Members: []domain.PartyMember{
			{OwnerID: creatorID, JoinedAt: now},
		},
	}
	if err := c.db.InsertParty(p); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[p.ID] = &p
	c.mu.Unlock()

	metrics.PartiesCreated.Inc()
	return &p, nil
}

// Join appends a member to a forming party. Rejected when the party is
// unknown, already departed, past its join window, full, or the explorer
// already joined.
func (c *Coordinator) Join(partyID, ownerID string) (*domain.Party, error) {
	return c.JoinAt(partyID, ownerID, time.Now())
}

// JoinAt is Join with an explicit clock, for tests.
func (c *Coordinator) JoinAt(partyID, ownerID string, now time.Time) (*domain.Party, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.lookupLocked(partyID)
	if err != nil {
		return nil, err
	}
	if p.Started {
		return nil, domain.ErrPartyStarted
	}
	if !now.Before(p.JoinDeadline) {
		return nil, domain.ErrPartyWindowClosed
	}
	if p.HasMember(ownerID) {
		return nil, domain.ErrAlreadyMember
	}
	if len(p.Members) >= domain.MaxPartyMembers {
		return nil, domain.ErrPartyFull
	}

	m := domain.PartyMember{OwnerID: ownerID, JoinedAt: now}
	if err := c.db.AddPartyMember(partyID, m); err != nil {
		return nil, err
	}
	p.Members = append(p.Members, m)
	return p, nil
}

// Get returns a party by id.
func (c *Coordinator) Get(partyID string) (*domain.Party, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(partyID)
}

// lookupLocked serves from the cache, falling back to the durable row.
func (c *Coordinator) lookupLocked(partyID string) (*domain.Party, error) {
	if p, ok := c.cache[partyID]; ok {
		return p, nil
	}
	p, err := c.db.GetParty(partyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPartyNotFound
	}
	c.cache[partyID] = p
	return p, nil
}

// Run drives the party scheduler until the context is cancelled.
// Call in a goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx, time.Now())
		}
	}
}

// Tick advances every unfinished party: formations past their join window
// depart, departed parties past their shared end time fan out, and old
// completed rows are discarded. Failures on one party are logged and never
// block the others.
func (c *Coordinator) Tick(ctx context.Context, now time.Time) {
	parties, err := c.db.UnfinishedParties()
	if err != nil {
		log.Printf("[party] scan failed: %v", err)
		return
	}

	for i := range parties {
		p := parties[i]
		switch {
		case !p.Started && !now.Before(p.JoinDeadline):
			if err := c.start(&p, now); err != nil {
				log.Printf("[party] start %s: %v", p.ID, err)
			}
		case p.Started && !now.Before(p.EndsAt):
			if err := c.finish(ctx, &p, now); err != nil {
				log.Printf("[party] finish %s: %v", p.ID, err)
			}
		}
	}

	c.discard(now)
}

// start departs a party: one backing expedition per member through the same
// transactional create solo expeditions use, then exactly one resolution
// with the materialized member count.
func (c *Coordinator) start(p *domain.Party, now time.Time) error {
	endsAt := domain.EndTime(now, p.DurationUnits)

	// A previous start attempt may have crashed after creating some member
	// rows. Adopt any row already carrying this party id and settle the
	// shared end time on the oldest one before creating anything, so every
	// member expedition gets the same window.
	adopted := make(map[string]*domain.Expedition, len(p.Members))
	for _, m := range p.Members {
		active, err := c.db.ActiveExpedition(m.OwnerID, now)
		if err != nil {
			return fmt.Errorf("check member %s: %w", m.OwnerID, err)
		}
		if active != nil && active.PartyID == p.ID {
			adopted[m.OwnerID] = active
			if active.EndsAt.Before(endsAt) {
				endsAt = active.EndsAt
			}
		}
	}

	expeditionIDs := make(map[string]string, len(p.Members))
	for _, m := range p.Members {
		if a, ok := adopted[m.OwnerID]; ok {
			expeditionIDs[m.OwnerID] = a.ID
			continue
		}
		e := domain.Expedition{
			ID:            uuid.NewString(),
			OwnerID:       m.OwnerID,
			Category:      p.Category,
			DurationUnits: p.DurationUnits,
			PartyID:       p.ID,
			StartedAt:     now,
			EndsAt:        endsAt,
		}
		err := c.db.CreateExpedition(e)
		if err == nil {
			expeditionIDs[m.OwnerID] = e.ID
			continue
		}
		if !errors.Is(err, domain.ErrExpeditionActive) {
			return fmt.Errorf("create member expedition: %w", err)
		}
		// The member picked up a solo expedition during the join window.
		log.Printf("[party] %s: member %s busy with another expedition, leaving behind", p.ID, m.OwnerID)
	}

	var outcome *domain.Outcome
	if len(expeditionIDs) > 0 {
		res, err := c.resolver.Resolve(c.catalog.Snapshot(), p.Category, p.DurationUnits, len(expeditionIDs), now)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		if res.Clamped {
			metrics.ProbabilityClamped.Inc()
			log.Printf("[party] %s: adjusted probability clamped at 1.0 (category %s)", p.ID, p.Category)
		}
		outcome = res.Outcome
	}

	if err := c.db.StartParty(p.ID, endsAt, outcome, expeditionIDs); err != nil {
		return fmt.Errorf("persist start: %w", err)
	}

	c.mu.Lock()
	if cached, ok := c.cache[p.ID]; ok {
		cached.Started = true
		cached.EndsAt = endsAt
		cached.Outcome = outcome
		for i := range cached.Members {
			cached.Members[i].ExpeditionID = expeditionIDs[cached.Members[i].OwnerID]
		}
	}
	c.mu.Unlock()

	metrics.PartiesStarted.WithLabelValues(strconv.Itoa(len(expeditionIDs))).Inc()
	log.Printf("[party] %s departed to %s with %d members", p.ID, p.Category, len(expeditionIDs))
	return nil
}

// finish runs the fan-out: claim every member expedition with the same
// stored outcome, then flip the party's completed flag. The claims come
// first — each is individually idempotent, so a crash anywhere in the loop
// replays harmlessly on the next tick while the party is still unfinished.
// The rows-affected gate on the flag only arbitrates the single group
// notification, across processes too.
func (c *Coordinator) finish(ctx context.Context, p *domain.Party, now time.Time) error {
	var owners []string
	var unsettled int
	for _, m := range p.Members {
		if m.ExpeditionID == "" {
			continue // left behind at departure
		}
		result, cerr := c.db.ClaimCompletion(m.ExpeditionID, p.Outcome, now)
		if cerr != nil {
			// Keep claiming the rest; the party stays unfinished so the
			// next tick retries this member.
			log.Printf("[party] %s: claim member %s: %v", p.ID, m.OwnerID, cerr)
			unsettled++
			continue
		}
		owners = append(owners, m.OwnerID)
		if !result.Replayed {
			metrics.ExpeditionsCompleted.WithLabelValues(p.Category).Inc()
			if result.Outcome != nil {
				metrics.LootResolved.WithLabelValues(string(result.Outcome.Rarity)).Inc()
			} else {
				metrics.EmptyHanded.Inc()
			}
		}
	}
	if unsettled > 0 {
		return fmt.Errorf("%d members unsettled, will retry", unsettled)
	}

	claimed, err := c.db.CompleteParty(p.ID, now)
	if err != nil {
		return err
	}
	if !claimed {
		return nil // another tick or process already notified
	}

	c.mu.Lock()
	if cached, ok := c.cache[p.ID]; ok {
		cached.Completed = true
		cached.CompletedAt = now
	}
	c.mu.Unlock()

	metrics.PartiesCompleted.Inc()

	if len(owners) > 0 {
		nctx, cancel := context.WithTimeout(ctx, c.config.NotifyTimeout)
		defer cancel()
		err := c.notifier.Notify(nctx, domain.Notification{
			OwnerIDs:  owners,
			Category:  p.Category,
			Outcome:   p.Outcome,
			PartySize: len(owners),
		})
		if err != nil {
			metrics.NotifyFailures.Inc()
			log.Printf("[party] notify %s: %v", p.ID, err)
		}
	}
	return nil
}

// discard drops completed parties past the retention delay, from the store
// and the cache.
func (c *Coordinator) discard(now time.Time) {
	cutoff := now.Add(-c.config.DiscardAfter)
	n, err := c.db.DeletePartiesCompletedBefore(cutoff)
	if err != nil {
		log.Printf("[party] discard failed: %v", err)
		return
	}
	if n == 0 {
		return
	}
	c.mu.Lock()
	for id, p := range c.cache {
		if p.Completed && p.CompletedAt.Before(cutoff) {
			delete(c.cache, id)
		}
	}
	c.mu.Unlock()
}
