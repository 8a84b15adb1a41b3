package sqlite

import (
	"testing"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

func testParty(id string, now time.Time) domain.Party {
	return domain.Party{
		ID:            id,
		CreatorID:     "alice",
		Category:      "Caverns",
		DurationUnits: 4,
		JoinDeadline:  now.Add(time.Minute),
		CreatedAt:     now,
		Members: []domain.PartyMember{
			{OwnerID: "alice", JoinedAt: now},
		},
	}
}

func TestInsertParty_Roundtrip(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().Truncate(time.Second)

	if err := db.InsertParty(testParty("party-1", now)); err != nil {
		t.Fatalf("InsertParty() error: %v", err)
	}

	got, err := db.GetParty("party-1")
	if err != nil {
		t.Fatalf("GetParty() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetParty() returned nil")
	}
	if got.CreatorID != "alice" || got.Started || got.Completed {
		t.Errorf("party = %+v", got)
	}
	if len(got.Members) != 1 || got.Members[0].OwnerID != "alice" {
		t.Errorf("members = %+v, want creator only", got.Members)
	}
	if !got.JoinDeadline.Equal(now.Add(time.Minute)) {
		t.Errorf("JoinDeadline = %v", got.JoinDeadline)
	}
}

func TestGetParty_Missing(t *testing.T) {
	db := newTestDB(t)
	got, err := db.GetParty("missing")
	if err != nil {
		t.Fatalf("GetParty() error: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestAddPartyMember(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().Truncate(time.Second)

	if err := db.InsertParty(testParty("party-1", now)); err != nil {
		t.Fatalf("InsertParty() error: %v", err)
	}
	m := domain.PartyMember{OwnerID: "bob", JoinedAt: now.Add(time.Second)}
	if err := db.AddPartyMember("party-1", m); err != nil {
		t.Fatalf("AddPartyMember() error: %v", err)
	}

	got, err := db.GetParty("party-1")
	if err != nil {
		t.Fatalf("GetParty() error: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(got.Members))
	}
	// Join order is preserved.
	if got.Members[0].OwnerID != "alice" || got.Members[1].OwnerID != "bob" {
		t.Errorf("members = %+v", got.Members)
	}
}

func TestStartParty_PersistsOutcomeAndLinks(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().Truncate(time.Second)

	p := testParty("party-1", now)
	p.Members = append(p.Members, domain.PartyMember{OwnerID: "bob", JoinedAt: now})
	if err := db.InsertParty(p); err != nil {
		t.Fatalf("InsertParty() error: %v", err)
	}

	endsAt := now.Add(4 * time.Hour)
	outcome := &domain.Outcome{
		ItemID: "geode", Name: "Geode", Rarity: domain.RarityRare,
		Category: "Caverns", ResolvedAt: now,
	}
	links := map[string]string{"alice": "exp-a", "bob": "exp-b"}
	if err := db.StartParty("party-1", endsAt, outcome, links); err != nil {
		t.Fatalf("StartParty() error: %v", err)
	}

	got, err := db.GetParty("party-1")
	if err != nil {
		t.Fatalf("GetParty() error: %v", err)
	}
	if !got.Started {
		t.Error("party not marked started")
	}
	if !got.EndsAt.Equal(endsAt) {
		t.Errorf("EndsAt = %v, want %v", got.EndsAt, endsAt)
	}
	if got.Outcome == nil || got.Outcome.ItemID != "geode" {
		t.Errorf("outcome = %+v, want geode", got.Outcome)
	}
	for _, m := range got.Members {
		if m.ExpeditionID != links[m.OwnerID] {
			t.Errorf("member %s expedition = %q, want %q", m.OwnerID, m.ExpeditionID, links[m.OwnerID])
		}
	}
}

func TestStartParty_EmptyHandedOutcome(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().Truncate(time.Second)

	if err := db.InsertParty(testParty("party-1", now)); err != nil {
		t.Fatalf("InsertParty() error: %v", err)
	}
	if err := db.StartParty("party-1", now.Add(time.Hour), nil, map[string]string{"alice": "exp-a"}); err != nil {
		t.Fatalf("StartParty() error: %v", err)
	}

	got, err := db.GetParty("party-1")
	if err != nil {
		t.Fatalf("GetParty() error: %v", err)
	}
	if !got.Started || got.Outcome != nil {
		t.Errorf("party = %+v, want started with nil outcome", got)
	}
}

func TestCompleteParty_Gate(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	if err := db.InsertParty(testParty("party-1", now)); err != nil {
		t.Fatalf("InsertParty() error: %v", err)
	}

	first, err := db.CompleteParty("party-1", now)
	if err != nil {
		t.Fatalf("CompleteParty() error: %v", err)
	}
	if !first {
		t.Error("first complete should win the gate")
	}

	second, err := db.CompleteParty("party-1", now)
	if err != nil {
		t.Fatalf("second CompleteParty() error: %v", err)
	}
	if second {
		t.Error("second complete must lose the gate")
	}
}

func TestUnfinishedParties(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().Truncate(time.Second)

	early := testParty("party-early", now)
	early.JoinDeadline = now.Add(time.Minute)
	late := testParty("party-late", now)
	late.JoinDeadline = now.Add(2 * time.Minute)
	done := testParty("party-done", now)

	for _, p := range []domain.Party{late, early, done} {
		if err := db.InsertParty(p); err != nil {
			t.Fatalf("InsertParty(%s) error: %v", p.ID, err)
		}
	}
	if _, err := db.CompleteParty("party-done", now); err != nil {
		t.Fatalf("CompleteParty() error: %v", err)
	}

	got, err := db.UnfinishedParties()
	if err != nil {
		t.Fatalf("UnfinishedParties() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unfinished = %d, want 2", len(got))
	}
	if got[0].ID != "party-early" || got[1].ID != "party-late" {
		t.Errorf("order = [%s %s], want deadline ascending", got[0].ID, got[1].ID)
	}
	if len(got[0].Members) != 1 {
		t.Errorf("members not loaded: %+v", got[0])
	}
}

func TestDeletePartiesCompletedBefore(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	old := testParty("party-old", now.Add(-time.Hour))
	fresh := testParty("party-fresh", now)
	for _, p := range []domain.Party{old, fresh} {
		if err := db.InsertParty(p); err != nil {
			t.Fatalf("InsertParty(%s) error: %v", p.ID, err)
		}
	}
	if _, err := db.CompleteParty("party-old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("CompleteParty() error: %v", err)
	}
	if _, err := db.CompleteParty("party-fresh", now); err != nil {
		t.Fatalf("CompleteParty() error: %v", err)
	}

	n, err := db.DeletePartiesCompletedBefore(now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("DeletePartiesCompletedBefore() error: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	if got, _ := db.GetParty("party-old"); got != nil {
		t.Error("party-old should be gone")
	}
	if got, _ := db.GetParty("party-fresh"); got == nil {
		t.Error("party-fresh should survive")
	}
}
