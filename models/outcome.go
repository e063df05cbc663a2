package models

// Side is the board side an outcome rule declares as winner
type Side string

const (
	SideWhite Side = "white"
	SideBlack Side = "black"
	SideDraw  Side = "draw"
)

// Outcome is the resolved result mapped onto the wager's parties
type Outcome string

const (
	OutcomeChallenger Outcome = "challenger"
	OutcomeContender  Outcome = "contender"
	OutcomeDraw       Outcome = "draw"
	OutcomeAnomaly    Outcome = "anomaly"
)

// IsSettleable reports whether the outcome can be passed to settlement
func (o Outcome) IsSettleable() bool {
	return o == OutcomeChallenger || o == OutcomeContender || o == OutcomeDraw
}

// NotificationKind classifies a notification intent
type NotificationKind string

const (
	NotificationKindWon  NotificationKind = "won"
	NotificationKindLost NotificationKind = "lost"
	NotificationKindDraw NotificationKind = "draw"
)

// NotificationIntent describes a message to deliver once a settlement is committed
type NotificationIntent struct {
	UserID  int64            `json:"user_id"`
	WagerID int64            `json:"wager_id"`
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Details string           `json:"details"`
}

// SettlementReceipt is returned to the caller after a successful settlement
type SettlementReceipt struct {
	WagerID       int64                `json:"wager_id"`
	Outcome       Outcome              `json:"outcome"`
	FinalStatus   WagerStatus          `json:"final_status"`
	LedgerEntries []*LedgerEntry       `json:"ledger_entries,omitempty"`
	Notifications []NotificationIntent `json:"notifications,omitempty"`
}

// ResolutionStatus is the end state of one resolution attempt
type ResolutionStatus string

const (
	ResolutionSettled      ResolutionStatus = "settled"
	ResolutionNotFound     ResolutionStatus = "not_found"
	ResolutionDisputed     ResolutionStatus = "disputed"
	ResolutionAnomaly      ResolutionStatus = "anomaly"
	ResolutionAlreadyFinal ResolutionStatus = "already_final"
)

// ResolutionResult summarises one pass of the reconciliation pipeline for a wager
type ResolutionResult struct {
	WagerID int64              `json:"wager_id"`
	Status  ResolutionStatus   `json:"status"`
	Match   *MatchRecord       `json:"match,omitempty"`
	Receipt *SettlementReceipt `json:"receipt,omitempty"`
}
