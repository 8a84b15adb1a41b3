package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

// ─── Expedition Repository ──────────────────────────────────────────────────

// CreateExpedition inserts a new expedition. The duplicate-check and the
// insert run in one transaction so two near-simultaneous creates for the
// same owner cannot both succeed; the loser gets domain.ErrExpeditionActive.
func (d *DB) CreateExpedition(e domain.Expedition) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM expeditions WHERE owner_id = ? AND completed = 0 AND ends_at > ?`,
		e.OwnerID, e.StartedAt.Unix(),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("check active: %w", err)
	}
	if active > 0 {
		return domain.ErrExpeditionActive
	}

	_, err = tx.Exec(
		`INSERT INTO expeditions (id, owner_id, category, duration_units, party_id, started_at, ends_at, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		e.ID, e.OwnerID, e.Category, e.DurationUnits, nullStr(e.PartyID),
		e.StartedAt.Unix(), e.EndsAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert expedition: %w", err)
	}
	return tx.Commit()
}

// ClaimCompletion atomically completes an expedition and applies the owner
// side effects. If the expedition is already completed, the stored outcome
// comes back with Replayed=true and nothing is re-applied. On first claim,
// marking the row completed, bumping the owner profile, and appending loot
// history commit together or not at all.
func (d *DB) ClaimCompletion(id string, outcome *domain.Outcome, now time.Time) (domain.CompletionResult, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	var (
		ownerID, category string
		completed         bool
		itemID, name, rar sql.NullString
		resolvedAt        sql.NullInt64
	)
	err = tx.QueryRow(
		`SELECT owner_id, category, completed, outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at
		 FROM expeditions WHERE id = ?`, id,
	).Scan(&ownerID, &category, &completed, &itemID, &name, &rar, &resolvedAt)
	if err == sql.ErrNoRows {
		return domain.CompletionResult{}, domain.ErrExpeditionNotFound
	}
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("load expedition: %w", err)
	}

	if completed {
		return domain.CompletionResult{
			Outcome:  scanOutcome(category, itemID, name, rar, resolvedAt),
			Replayed: true,
		}, nil
	}

	if outcome == nil {
		_, err = tx.Exec(`UPDATE expeditions SET completed = 1 WHERE id = ?`, id)
	} else {
		_, err = tx.Exec(
			`UPDATE expeditions SET completed = 1, outcome_item_id = ?, outcome_name = ?,
			 outcome_rarity = ?, outcome_resolved_at = ? WHERE id = ?`,
			outcome.ItemID, outcome.Name, string(outcome.Rarity), outcome.ResolvedAt.Unix(), id,
		)
	}
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("mark completed: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO explorer_profiles (owner_id, total_completed, last_completion_at)
		 VALUES (?, 1, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
			total_completed = total_completed + 1,
			last_completion_at = excluded.last_completion_at`,
		ownerID, now.Unix(),
	)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("bump profile: %w", err)
	}

	if outcome != nil {
		_, err = tx.Exec(
			`INSERT INTO loot_history (owner_id, item_id, item_name, rarity, category, resolved_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			ownerID, outcome.ItemID, outcome.Name, string(outcome.Rarity),
			outcome.Category, outcome.ResolvedAt.Unix(),
		)
		if err != nil {
			return domain.CompletionResult{}, fmt.Errorf("append history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.CompletionResult{}, fmt.Errorf("commit claim: %w", err)
	}
	return domain.CompletionResult{Outcome: outcome}, nil
}

// DueExpeditions returns non-completed solo expeditions whose end time has
// passed, ordered by ends_at ascending. Party-backed expeditions are
// excluded — the party coordinator completes those.
func (d *DB) DueExpeditions(now time.Time) ([]domain.Expedition, error) {
	rows, err := d.db.Query(
		`SELECT id, owner_id, category, duration_units, party_id, started_at, ends_at, completed,
		        outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at
		 FROM expeditions
		 WHERE completed = 0 AND party_id IS NULL AND ends_at <= ?
		 ORDER BY ends_at ASC`,
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpeditions(rows)
}

// ActiveExpedition returns the owner's current non-completed, non-expired
// expedition, or nil if none.
func (d *DB) ActiveExpedition(ownerID string, now time.Time) (*domain.Expedition, error) {
	row := d.db.QueryRow(
		`SELECT id, owner_id, category, duration_units, party_id, started_at, ends_at, completed,
		        outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at
		 FROM expeditions
		 WHERE owner_id = ? AND completed = 0 AND ends_at > ?`,
		ownerID, now.Unix(),
	)
	return scanExpedition(row)
}

// GetExpedition retrieves an expedition by ID.
func (d *DB) GetExpedition(id string) (*domain.Expedition, error) {
	row := d.db.QueryRow(
		`SELECT id, owner_id, category, duration_units, party_id, started_at, ends_at, completed,
		        outcome_item_id, outcome_name, outcome_rarity, outcome_resolved_at
		 FROM expeditions WHERE id = ?`, id,
	)
	return scanExpedition(row)
}

func collectExpeditions(rows *sql.Rows) ([]domain.Expedition, error) {
	var out []domain.Expedition
	for rows.Next() {
		e, err := scanExpedition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanExpedition(s scanner) (*domain.Expedition, error) {
	var e domain.Expedition
	var partyID, itemID, name, rar sql.NullString
	var startedAt, endsAt int64
	var resolvedAt sql.NullInt64

	err := s.Scan(&e.ID, &e.OwnerID, &e.Category, &e.DurationUnits, &partyID,
		&startedAt, &endsAt, &e.Completed, &itemID, &name, &rar, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan expedition: %w", err)
	}

	e.StartedAt = time.Unix(startedAt, 0)
	e.EndsAt = time.Unix(endsAt, 0)
	if partyID.Valid {
		e.PartyID = partyID.String
	}
	e.Outcome = scanOutcome(e.Category, itemID, name, rar, resolvedAt)
	return &e, nil
}

// scanOutcome rebuilds a nullable outcome from its columns. A row with no
// outcome_item_id is an empty-handed completion.
func scanOutcome(category string, itemID, name, rarity sql.NullString, resolvedAt sql.NullInt64) *domain.Outcome {
	if !itemID.Valid {
		return nil
	}
	o := &domain.Outcome{
		ItemID:   itemID.String,
		Name:     name.String,
		Rarity:   domain.RarityTier(rarity.String),
		Category: category,
	}
	if resolvedAt.Valid {
		o.ResolvedAt = time.Unix(resolvedAt.Int64, 0)
	}
	return o
}
