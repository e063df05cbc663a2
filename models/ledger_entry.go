package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerRequestType represents why a ledger entry was written
type LedgerRequestType string

const (
	LedgerRequestStakeWinCredit LedgerRequestType = "stake_win_credit"
	LedgerRequestStakeLossDebit LedgerRequestType = "stake_loss_debit"
)

// LedgerAction is the direction of a ledger entry
type LedgerAction string

const (
	LedgerActionCredit LedgerAction = "credit"
	LedgerActionDebit  LedgerAction = "debit"
)

// LedgerEntry is an append-only record of a value movement.
// Amount is signed and expressed in minor currency units.
type LedgerEntry struct {
	ID                int64             `db:"id" json:"id"`
	RequestType       LedgerRequestType `db:"request_type" json:"request_type"`
	Action            LedgerAction      `db:"action" json:"action"`
	WagerID           int64             `db:"wager_id" json:"wager_id"`
	OriginUserID      int64             `db:"origin_user_id" json:"origin_user_id"`
	DestinationUserID int64             `db:"destination_user_id" json:"destination_user_id"`
	Amount            int64             `db:"amount" json:"amount"`
	Currency          string            `db:"currency" json:"currency"`
	CorrelationID     uuid.UUID         `db:"correlation_id" json:"correlation_id"`
	Note              map[string]any    `db:"note" json:"note"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}
