package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chesswager/database"
	"chesswager/models"

	"github.com/jackc/pgx/v5"
)

// WagerRepository implements the WagerRepository interface
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

// Handles come from users; the opponent join is optional until someone accepts
const wagerSelect = `
	SELECT
		w.id, w.challenger_id, w.opponent_id, w.stake, w.currency, w.time_control,
		w.request_state, w.status, w.created_at, w.accepted_at, w.resolved_at,
		w.last_polled_at, w.settle_failures,
		c.chess_handle, COALESCE(o.chess_handle, '')
	FROM wagers w
	JOIN users c ON c.id = w.challenger_id
	LEFT JOIN users o ON o.id = w.opponent_id
`

func scanWager(row pgx.Row) (*models.Wager, error) {
	var wager models.Wager
	err := row.Scan(
		&wager.ID,
		&wager.ChallengerID,
		&wager.OpponentID,
		&wager.Stake,
		&wager.Currency,
		&wager.TimeControl,
		&wager.RequestState,
		&wager.Status,
		&wager.CreatedAt,
		&wager.AcceptedAt,
		&wager.ResolvedAt,
		&wager.LastPolledAt,
		&wager.SettleFailures,
		&wager.ChallengerHandle,
		&wager.OpponentHandle,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}

// Create creates a new wager and fills in the generated fields
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	if wager.RequestState == "" {
		wager.RequestState = models.RequestStatePending
	}
	if wager.Status == "" {
		wager.Status = models.WagerStatusPending
	}

	query := `
		INSERT INTO wagers (challenger_id, opponent_id, stake, currency, time_control, request_state, status, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.ChallengerID,
		wager.OpponentID,
		wager.Stake,
		wager.Currency,
		wager.TimeControl,
		wager.RequestState,
		wager.Status,
		wager.AcceptedAt,
	).Scan(&wager.ID, &wager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}
	return nil
}

// GetByID retrieves a wager with participant handles joined
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	wager, err := scanWager(r.q.QueryRow(ctx, wagerSelect+` WHERE w.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return wager, nil
}

// GetByIDForUpdate retrieves a wager and locks its row until the transaction ends
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error) {
	// Only the wager row is locked; users are locked later by the balance updates
	wager, err := scanWager(r.q.QueryRow(ctx, wagerSelect+` WHERE w.id = $1 FOR UPDATE OF w`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager %d: %w", id, err)
	}
	return wager, nil
}

// TransitionStatus moves the wager from one status to another.
// Returns false when the wager was no longer in the expected status.
func (r *WagerRepository) TransitionStatus(ctx context.Context, id int64, from, to models.WagerStatus, resolvedAt time.Time) (bool, error) {
	query := `
		UPDATE wagers
		SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.Exec(ctx, query, to, resolvedAt.UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update status of wager %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkPolled records a resolution attempt so the next listing rotates past this wager
func (r *WagerRepository) MarkPolled(ctx context.Context, id int64, polledAt time.Time) error {
	query := `UPDATE wagers SET last_polled_at = $1 WHERE id = $2`

	if _, err := r.q.Exec(ctx, query, polledAt.UTC(), id); err != nil {
		return fmt.Errorf("failed to mark wager %d polled: %w", id, err)
	}
	return nil
}

// RecordSettleFailure counts a settlement that could not be applied and returns the new total
func (r *WagerRepository) RecordSettleFailure(ctx context.Context, id int64) (int, error) {
	query := `
		UPDATE wagers
		SET settle_failures = settle_failures + 1
		WHERE id = $1
		RETURNING settle_failures
	`

	var failures int
	if err := r.q.QueryRow(ctx, query, id).Scan(&failures); err != nil {
		return 0, fmt.Errorf("failed to record settle failure for wager %d: %w", id, err)
	}
	return failures, nil
}

// ListPendingAccepted returns accepted, unresolved wagers accepted within [acceptedAfter, acceptedBefore].
// Never-polled wagers come first, then the least recently polled, so a backlog cannot starve newer wagers.
func (r *WagerRepository) ListPendingAccepted(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error) {
	query := wagerSelect + `
		WHERE w.status = 'pending'
		  AND w.request_state = 'accepted'
		  AND w.opponent_id IS NOT NULL
		  AND w.accepted_at BETWEEN $1 AND $2
		ORDER BY w.last_polled_at ASC NULLS FIRST, w.accepted_at ASC, w.id ASC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, acceptedAfter.UTC(), acceptedBefore.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	return wagers, nil
}
