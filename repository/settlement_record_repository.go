package repository

import (
	"context"
	"errors"
	"fmt"

	"chesswager/database"
	"chesswager/models"

	"github.com/jackc/pgx/v5"
)

// SettlementRecordRepository implements the SettlementRecordRepository interface
type SettlementRecordRepository struct {
	q queryable
}

// NewSettlementRecordRepository creates a new settlement record repository
func NewSettlementRecordRepository(db *database.DB) *SettlementRecordRepository {
	return &SettlementRecordRepository{q: db.Pool}
}

// newSettlementRecordRepositoryWithTx creates a new settlement record repository with a transaction
func newSettlementRecordRepositoryWithTx(tx queryable) *SettlementRecordRepository {
	return &SettlementRecordRepository{q: tx}
}

const settlementRecordColumns = `
	id, link, wager_id, category, first_player, second_player,
	first_player_result, second_player_result, termination_reason,
	started_at, ended_at, created_at
`

func scanSettlementRecord(row pgx.Row) (*models.SettlementRecord, error) {
	var record models.SettlementRecord
	err := row.Scan(
		&record.ID,
		&record.Link,
		&record.WagerID,
		&record.Category,
		&record.FirstPlayer,
		&record.SecondPlayer,
		&record.FirstPlayerResult,
		&record.SecondPlayerResult,
		&record.TerminationReason,
		&record.StartedAt,
		&record.EndedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert stores the record unless its link is already taken.
// Returns false when another record owns the link; the unique index on link decides.
func (r *SettlementRecordRepository) Insert(ctx context.Context, record *models.SettlementRecord) (bool, error) {
	if record.Link == "" {
		return false, fmt.Errorf("settlement record requires a link")
	}

	query := `
		INSERT INTO settlement_records
		(link, wager_id, category, first_player, second_player,
		 first_player_result, second_player_result, termination_reason, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (link) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.Link,
		record.WagerID,
		record.Category,
		record.FirstPlayer,
		record.SecondPlayer,
		record.FirstPlayerResult,
		record.SecondPlayerResult,
		record.TerminationReason,
		record.StartedAt,
		record.EndedAt,
	).Scan(&record.ID, &record.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert settlement record for %s: %w", record.Link, err)
	}
	return true, nil
}

// GetByLink retrieves a record by its external game link
func (r *SettlementRecordRepository) GetByLink(ctx context.Context, link string) (*models.SettlementRecord, error) {
	query := `SELECT ` + settlementRecordColumns + ` FROM settlement_records WHERE link = $1`

	record, err := scanSettlementRecord(r.q.QueryRow(ctx, query, link))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record %s: %w", link, err)
	}
	return record, nil
}

// GetByWagerID retrieves the record bound to a wager
func (r *SettlementRecordRepository) GetByWagerID(ctx context.Context, wagerID int64) (*models.SettlementRecord, error) {
	query := `SELECT ` + settlementRecordColumns + ` FROM settlement_records WHERE wager_id = $1`

	record, err := scanSettlementRecord(r.q.QueryRow(ctx, query, wagerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record for wager %d: %w", wagerID, err)
	}
	return record, nil
}
