package service

import (
	"time"

	"chesswager/models"
)

const (
	// DefaultMatchWindow is how long after acceptance a game may start and still count for the wager
	DefaultMatchWindow = 20 * time.Minute

	// DefaultMaxGameDuration is the longest a game that started inside the window is assumed to run.
	// Archives file a game under the month it ended in.
	DefaultMaxGameDuration = 6 * time.Hour
)

// ArchiveMonth is one monthly page of a player's game archive
type ArchiveMonth struct {
	Year  int
	Month time.Month
}

// Start returns the first instant of the month in UTC
func (m ArchiveMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MatchLocator finds the game a wager was played on
type MatchLocator struct {
	window      time.Duration
	maxDuration time.Duration
}

// NewMatchLocator creates a new match locator. Non-positive durations fall back to
// DefaultMatchWindow and DefaultMaxGameDuration.
func NewMatchLocator(window, maxGameDuration time.Duration) *MatchLocator {
	if window <= 0 {
		window = DefaultMatchWindow
	}
	if maxGameDuration <= 0 {
		maxGameDuration = DefaultMaxGameDuration
	}
	return &MatchLocator{window: window, maxDuration: maxGameDuration}
}

// Locate returns the earliest record between the wager's two players that started
// within [AcceptedAt, AcceptedAt+window]. The returned copy is bound to the wager.
// Nil means no game qualifies.
func (l *MatchLocator) Locate(records []models.MatchRecord, wager *models.Wager) *models.MatchRecord {
	if wager == nil || wager.AcceptedAt == nil {
		return nil
	}

	from := wager.AcceptedAt.UTC()
	to := from.Add(l.window)

	var best *models.MatchRecord
	for i := range records {
		record := &records[i]
		if record.StartedAt == nil {
			continue
		}

		started := record.StartedAt.UTC()
		if started.Before(from) || started.After(to) {
			continue
		}

		if !record.HasPlayers(wager.ChallengerHandle, wager.OpponentHandle) {
			continue
		}

		// Strictly earlier only, so ties keep input order
		if best == nil || started.Before(best.StartedAt.UTC()) {
			best = record
		}
	}

	if best == nil {
		return nil
	}

	match := *best
	wagerID := wager.ID
	match.WagerID = &wagerID
	return &match
}

// WindowMonths returns the archive months a qualifying game may be filed under, in order.
// A game starting at the end of the window can still end up to maxGameDuration later.
func (l *MatchLocator) WindowMonths(wager *models.Wager) []ArchiveMonth {
	if wager == nil || wager.AcceptedAt == nil {
		return nil
	}

	from := wager.AcceptedAt.UTC()
	last := from.Add(l.window + l.maxDuration)

	var months []ArchiveMonth
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, ArchiveMonth{Year: m.Year(), Month: m.Month()})
	}
	return months
}
