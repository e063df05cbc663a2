package models

import (
	"time"
)

// SettlementRecord is the persisted match bound to a wager. Link is globally unique.
type SettlementRecord struct {
	ID                 int64       `db:"id" json:"id"`
	Link               string      `db:"link" json:"link"`
	Category           string      `db:"category" json:"category"`
	FirstPlayer        string      `db:"first_player" json:"first_player"`
	SecondPlayer       string      `db:"second_player" json:"second_player"`
	StartedAt          *time.Time  `db:"started_at" json:"started_at"`
	EndedAt            *time.Time  `db:"ended_at" json:"ended_at"`
	FirstPlayerResult  ResultToken `db:"first_player_result" json:"first_player_result"`
	SecondPlayerResult ResultToken `db:"second_player_result" json:"second_player_result"`
	TerminationReason  string      `db:"termination_reason" json:"termination_reason"`
	WagerID            *int64      `db:"wager_id" json:"wager_id"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
}

// NewSettlementRecord builds a record from a located match. The match must carry a link.
func NewSettlementRecord(match *MatchRecord) *SettlementRecord {
	return &SettlementRecord{
		Link:               match.LinkValue(),
		Category:           match.Category,
		FirstPlayer:        match.FirstPlayer,
		SecondPlayer:       match.SecondPlayer,
		StartedAt:          match.StartedAt,
		EndedAt:            match.EndedAt,
		FirstPlayerResult:  match.FirstPlayerResult,
		SecondPlayerResult: match.SecondPlayerResult,
		TerminationReason:  match.TerminationReason,
		WagerID:            match.WagerID,
	}
}
