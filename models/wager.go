package models

import (
	"time"
)

// WagerStatus represents the settlement status of a wager
type WagerStatus string

const (
	WagerStatusPending  WagerStatus = "pending"
	WagerStatusWon      WagerStatus = "won"
	WagerStatusLoss     WagerStatus = "loss"
	WagerStatusDraw     WagerStatus = "draw"
	WagerStatusAnomaly  WagerStatus = "anomaly"
	WagerStatusCanceled WagerStatus = "canceled"
)

// IsTerminal reports whether the status can no longer change
func (s WagerStatus) IsTerminal() bool {
	switch s {
	case WagerStatusWon, WagerStatusLoss, WagerStatusDraw, WagerStatusAnomaly, WagerStatusCanceled:
		return true
	}
	return false
}

// RequestState represents whether the challenge has been taken up by an opponent
type RequestState string

const (
	RequestStatePending  RequestState = "pending"
	RequestStateAccepted RequestState = "accepted"
	RequestStateDeclined RequestState = "declined"
)

// Wager represents a stake agreed between a challenger and an opponent on one chess.com game
type Wager struct {
	ID           int64        `db:"id"`
	ChallengerID int64        `db:"challenger_id"`
	OpponentID   *int64       `db:"opponent_id"`
	Stake        int64        `db:"stake"`
	Currency     string       `db:"currency"`
	TimeControl  string       `db:"time_control"`
	RequestState RequestState `db:"request_state"`
	Status       WagerStatus  `db:"status"`
	CreatedAt    time.Time    `db:"created_at"`
	AcceptedAt   *time.Time   `db:"accepted_at"`
	ResolvedAt   *time.Time   `db:"resolved_at"`

	// Bookkeeping for background resolution
	LastPolledAt   *time.Time `db:"last_polled_at"`
	SettleFailures int        `db:"settle_failures"`

	// Joined from users
	ChallengerHandle string `db:"-"`
	OpponentHandle   string `db:"-"`
}

// HasOpponent reports whether a counterparty has joined the wager
func (w *Wager) HasOpponent() bool {
	return w.OpponentID != nil
}

// IsAccepted checks if the wager was accepted and is waiting for a result
func (w *Wager) IsAccepted() bool {
	return w.RequestState == RequestStateAccepted && w.AcceptedAt != nil
}
