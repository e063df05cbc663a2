package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"chesswager/database"
	"chesswager/models"
)

// LedgerRepository implements the LedgerRepository interface.
// Entries are append-only; there is no update or delete.
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Append writes a new ledger entry
func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	noteJSON, err := json.Marshal(entry.Note)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger note: %w", err)
	}

	query := `
		INSERT INTO ledger_entries
		(request_type, action, wager_id, origin_user_id, destination_user_id, amount, currency, correlation_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.RequestType,
		entry.Action,
		entry.WagerID,
		entry.OriginUserID,
		entry.DestinationUserID,
		entry.Amount,
		entry.Currency,
		entry.CorrelationID,
		noteJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry for wager %d: %w", entry.WagerID, err)
	}

	return nil
}

// ListByWager returns all entries referencing a wager, oldest first
func (r *LedgerRepository) ListByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, request_type, action, wager_id, origin_user_id, destination_user_id,
		       amount, currency, correlation_id, note, created_at
		FROM ledger_entries
		WHERE wager_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var noteJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.RequestType,
			&entry.Action,
			&entry.WagerID,
			&entry.OriginUserID,
			&entry.DestinationUserID,
			&entry.Amount,
			&entry.Currency,
			&entry.CorrelationID,
			&noteJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if len(noteJSON) > 0 {
			if err := json.Unmarshal(noteJSON, &entry.Note); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ledger note: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
