package models

import (
	"strings"
	"time"
)

// ResultToken is the per-side result reported by chess.com
type ResultToken string

const (
	ResultWin                ResultToken = "win"
	ResultCheckmated         ResultToken = "checkmated"
	ResultTimeout            ResultToken = "timeout"
	ResultResigned           ResultToken = "resigned"
	ResultAbandoned          ResultToken = "abandoned"
	ResultStalemate          ResultToken = "stalemate"
	ResultAgreed             ResultToken = "agreed"
	ResultRepetition         ResultToken = "repetition"
	ResultInsufficient       ResultToken = "insufficient"
	ResultTimeVsInsufficient ResultToken = "timevsinsufficient"
	ResultFiftyMove          ResultToken = "50move"
)

// RawPlayer is one side of a raw archive game
type RawPlayer struct {
	Username string      `json:"username"`
	Result   ResultToken `json:"result"`
	Rating   int         `json:"rating"`
}

// RawGameRecord is a game as returned by the chess.com monthly archive.
// Nothing in it is guaranteed to be present.
type RawGameRecord struct {
	URL         string            `json:"url"`
	PGN         string            `json:"pgn"`
	TimeControl string            `json:"time_control"`
	TimeClass   string            `json:"time_class"`
	EndTime     int64             `json:"end_time"`
	Rated       bool              `json:"rated"`
	Tags        map[string]string `json:"tags"`
	White       RawPlayer         `json:"white"`
	Black       RawPlayer         `json:"black"`
}

// MatchRecord is the canonical form of one externally played game
type MatchRecord struct {
	Link               *string     `json:"link"`
	Category           string      `json:"category"`
	FirstPlayer        string      `json:"first_player"`
	SecondPlayer       string      `json:"second_player"`
	StartedAt          *time.Time  `json:"started_at"`
	EndedAt            *time.Time  `json:"ended_at"`
	FirstPlayerResult  ResultToken `json:"first_player_result"`
	SecondPlayerResult ResultToken `json:"second_player_result"`
	TerminationReason  string      `json:"termination_reason"`
	WagerID            *int64      `json:"wager_id"`
}

// HasPlayers checks if the unordered player pair equals {a, b}, ignoring case
func (m *MatchRecord) HasPlayers(a, b string) bool {
	first := strings.ToLower(m.FirstPlayer)
	second := strings.ToLower(m.SecondPlayer)
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	return (first == a && second == b) || (first == b && second == a)
}

// LinkValue returns the link or an empty string when absent
func (m *MatchRecord) LinkValue() string {
	if m.Link == nil {
		return ""
	}
	return *m.Link
}
