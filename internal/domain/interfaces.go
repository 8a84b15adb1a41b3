package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Notification is what observers receive when an expedition or party
// resolves. Outcome is nil for an empty-handed return. PartySize is 1 for
// solo expeditions.
type Notification struct {
	OwnerIDs  []string `json:"owner_ids"`
	Category  string   `json:"category"`
	Outcome   *Outcome `json:"outcome,omitempty"`
	PartySize int      `json:"party_size"`
}

// Notifier delivers a resolved (or empty) outcome to observers. Called once
// per completed solo expedition and once per completed party — never on an
// idempotent replay. Implementations block on external I/O; callers bound
// the call with a context timeout.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RandSource yields uniform draws in [0,1). The loot resolver takes one
// draw per catalog item; tests inject scripted sources.
type RandSource interface {
	Float64() float64
}
