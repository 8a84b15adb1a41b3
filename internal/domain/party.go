package domain

import "time"

// MaxPartyMembers bounds party size. The group bonus also stops growing at
// MaxBonusMembers extra members, whichever the catalog configures lower.
const MaxPartyMembers = 5

// Party is a short-lived group formation: members collected inside a join
// window, then one shared outcome replicated to every member's expedition.
// The durable row is the source of truth; the coordinator's in-memory map is
// only a cache, so a restarted process can finish an interrupted fan-out.
type Party struct {
	ID            string        `json:"id"`
	CreatorID     string        `json:"creator_id"`
	Category      string        `json:"category"`
	DurationUnits float64       `json:"duration_units"`
	Members       []PartyMember `json:"members"`
	JoinDeadline  time.Time     `json:"join_deadline"`
	Started       bool          `json:"started"`
	EndsAt        time.Time     `json:"ends_at,omitempty"`
	Outcome       *Outcome      `json:"outcome,omitempty"`
	Completed     bool          `json:"completed"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   time.Time     `json:"completed_at,omitempty"`
}

// PartyMember records one joined explorer. ExpeditionID is populated when
// the party starts and its backing expeditions are created.
type PartyMember struct {
	OwnerID      string    `json:"owner_id"`
	JoinedAt     time.Time `json:"joined_at"`
	ExpeditionID string    `json:"expedition_id,omitempty"`
}

// HasMember reports whether ownerID already joined.
func (p Party) HasMember(ownerID string) bool {
	for _, m := range p.Members {
		if m.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// JoinOpen reports whether the party still accepts members.
func (p Party) JoinOpen(now time.Time) bool {
	return !p.Started && now.Before(p.JoinDeadline) && len(p.Members) < MaxPartyMembers
}
