package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

// ─── Party Repository ───────────────────────────────────────────────────────
// The durable party row is the source of truth; the coordinator's in-memory
// map is only a cache in front of it.

// InsertParty creates a party with its initial members.
func (d *DB) InsertParty(p domain.Party) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert party: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO parties (id, creator_id, category, duration_units, join_deadline, started, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?)`,
		p.ID, p.CreatorID, p.Category, p.DurationUnits,
		p.JoinDeadline.Unix(), p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert party: %w", err)
	}
	for _, m := range p.Members {
		if err := insertMember(tx, p.ID, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddPartyMember appends a member to a forming party.
func (d *DB) AddPartyMember(partyID string, m domain.PartyMember) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin add member: %w", err)
	}
	defer tx.Rollback()
	if err := insertMember(tx, partyID, m); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMember(tx *sql.Tx, partyID string, m domain.PartyMember) error {
	_, err := tx.Exec(
		`INSERT INTO party_members (party_id, owner_id, joined_at, expedition_id) VALUES (?, ?, ?, ?)`,
		partyID, m.OwnerID, m.JoinedAt.Unix(), nullStr(m.ExpeditionID),
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetParty retrieves a party with its members, or nil if not found.
func (d *DB) GetParty(id string) (*domain.Party, error) {
	row := d.db.QueryRow(
		`SELECT id, creator_id, category, duration_units, join_deadline, started, ends_at,
		        outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at,
		        completed, created_at, completed_at
		 FROM parties WHERE id = ?`, id,
	)
	p, err := scanParty(row)
	if err != nil || p == nil {
		return p, err
	}
	if err := d.loadMembers(p); err != nil {
		return nil, err
	}
	return p, nil
}

// UnfinishedParties returns all parties not yet completed, oldest deadline
// first. Used by the coordinator's tick and by startup recovery.
func (d *DB) UnfinishedParties() ([]domain.Party, error) {
	rows, err := d.db.Query(
		`SELECT id, creator_id, category, duration_units, join_deadline, started, ends_at,
		        outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at,
		        completed, created_at, completed_at
		 FROM parties WHERE completed = 0 ORDER BY join_deadline ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range parties {
		if err := d.loadMembers(&parties[i]); err != nil {
			return nil, err
		}
	}
	return parties, nil
}

// StartParty persists the departure: the shared end time, the single
// resolved outcome (nil columns mean empty-handed), and each member's
// backing expedition id.
func (d *DB) StartParty(id string, endsAt time.Time, outcome *domain.Outcome, expeditionIDs map[string]string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin start party: %w", err)
	}
	defer tx.Rollback()

	if outcome == nil {
		_, err = tx.Exec(
			`UPDATE parties SET started = 1, ends_at = ? WHERE id = ?`,
			endsAt.Unix(), id,
		)
	} else {
		_, err = tx.Exec(
			`UPDATE parties SET started = 1, ends_at = ?, outcome_item_id = ?, outcome_name = ?,
			 outcome_rarity = ?, outcome_resolved_at = ? WHERE id = ?`,
			endsAt.Unix(), outcome.ItemID, outcome.Name, string(outcome.Rarity),
			outcome.ResolvedAt.Unix(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("mark started: %w", err)
	}

	for ownerID, expID := range expeditionIDs {
		_, err = tx.Exec(
			`UPDATE party_members SET expedition_id = ? WHERE party_id = ? AND owner_id = ?`,
			expID, id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("link member expedition: %w", err)
		}
	}
	return tx.Commit()
}

// CompleteParty flips the party's completed flag. Returns false when the
// party was already completed — the rows-affected check is the idempotence
// gate that keeps two overlapping pollers (or processes) from both sending
// the group notification. Member claims settle before the flag flips, so an
// unfinished party always comes back from UnfinishedParties.
func (d *DB) CompleteParty(id string, now time.Time) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE parties SET completed = 1, completed_at = ? WHERE id = ? AND completed = 0`,
		now.Unix(), id,
	)
	if err != nil {
		return false, fmt.Errorf("complete party: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeletePartiesCompletedBefore discards completed parties past the retention
// delay. Member rows go with them.
func (d *DB) DeletePartiesCompletedBefore(cutoff time.Time) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin discard: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM party_members WHERE party_id IN
		 (SELECT id FROM parties WHERE completed = 1 AND completed_at < ?)`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("discard members: %w", err)
	}
	res, err := tx.Exec(
		`DELETE FROM parties WHERE completed = 1 AND completed_at < ?`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("discard parties: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

func (d *DB) loadMembers(p *domain.Party) error {
	rows, err := d.db.Query(
		`SELECT owner_id, joined_at, expedition_id FROM party_members
		 WHERE party_id = ? ORDER BY joined_at ASC, owner_id ASC`,
		p.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.PartyMember
		var joinedAt int64
		var expID sql.NullString
		if err := rows.Scan(&m.OwnerID, &joinedAt, &expID); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		m.JoinedAt = time.Unix(joinedAt, 0)
		if expID.Valid {
			m.ExpeditionID = expID.String
		}
		p.Members = append(p.Members, m)
	}
	return rows.Err()
}

func scanParty(s scanner) (*domain.Party, error) {
	var p domain.Party
	var joinDeadline, createdAt int64
	var endsAt, resolvedAt, completedAt sql.NullInt64
	var itemID, name, rar sql.NullString

	err := s.Scan(&p.ID, &p.CreatorID, &p.Category, &p.DurationUnits, &joinDeadline,
		&p.Started, &endsAt, &itemID, &name, &rar, &resolvedAt,
		&p.Completed, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan party: %w", err)
	}

	p.JoinDeadline = time.Unix(joinDeadline, 0)
	p.CreatedAt = time.Unix(createdAt, 0)
	if endsAt.Valid {
		p.EndsAt = time.Unix(endsAt.Int64, 0)
	}
	if completedAt.Valid {
		p.CompletedAt = time.Unix(completedAt.Int64, 0)
	}
	p.Outcome = scanOutcome(p.Category, itemID, name, rar, resolvedAt)
	return &p, nil
}
