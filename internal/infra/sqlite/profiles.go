package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

// ─── Explorer Profiles ──────────────────────────────────────────────────────

// Profile returns the aggregate for an owner. Owners with no completions yet
// get a zero-valued profile rather than an error — profiles are created
// lazily by the completion transaction.
func (d *DB) Profile(ownerID string) (domain.ExplorerProfile, error) {
	p := domain.ExplorerProfile{OwnerID: ownerID}
	var last sql.NullInt64
	err := d.db.QueryRow(
		`SELECT total_completed, last_completion_at FROM explorer_profiles WHERE owner_id = ?`,
		ownerID,
	).Scan(&p.TotalCompleted, &last)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("load profile: %w", err)
	}
	if last.Valid {
		p.LastCompletionAt = time.Unix(last.Int64, 0)
	}
	return p, nil
}

// LootHistory returns the owner's most recent resolved outcomes, newest
// first. Duplicates are expected — history is append-only.
func (d *DB) LootHistory(ownerID string, limit int) ([]domain.Outcome, error) {
	rows, err := d.db.Query(
		`SELECT item_id, item_name, rarity, category, resolved_at
		 FROM loot_history WHERE owner_id = ? ORDER BY id DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		var resolvedAt int64
		if err := rows.Scan(&o.ItemID, &o.Name, &o.Rarity, &o.Category, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		o.ResolvedAt = time.Unix(resolvedAt, 0)
		history = append(history, o)
	}
	return history, rows.Err()
}
