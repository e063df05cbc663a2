package service

import (
	"testing"
	"time"

	"chesswager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locatorWager(acceptedAt time.Time) *models.Wager {
	opponentID := int64(2)
	return &models.Wager{
		ID:               99,
		ChallengerID:     1,
		OpponentID:       &opponentID,
		ChallengerHandle: "Alice",
		OpponentHandle:   "bob",
		RequestState:     models.RequestStateAccepted,
		Status:           models.WagerStatusPending,
		AcceptedAt:       &acceptedAt,
	}
}

func locatorRecord(link, first, second string, startedAt *time.Time) models.MatchRecord {
	return models.MatchRecord{
		Link:         &link,
		FirstPlayer:  first,
		SecondPlayer: second,
		StartedAt:    startedAt,
	}
}

func at(t time.Time) *time.Time {
	return &t
}

func TestMatchLocator_Locate(t *testing.T) {
	accepted := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	wager := locatorWager(accepted)
	locator := NewMatchLocator(20*time.Minute, time.Hour)

	t.Run("earliest qualifying game wins", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("late", "alice", "bob", at(accepted.Add(15*time.Minute))),
			locatorRecord("early", "bob", "alice", at(accepted.Add(5*time.Minute))),
		}

		match := locator.Locate(records, wager)

		require.NotNil(t, match)
		assert.Equal(t, "early", match.LinkValue())
		require.NotNil(t, match.WagerID)
		assert.Equal(t, int64(99), *match.WagerID)
		// Input is not mutated
		assert.Nil(t, records[1].WagerID)
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("end", "alice", "bob", at(accepted.Add(20*time.Minute))),
		}
		require.NotNil(t, locator.Locate(records, wager))

		records = []models.MatchRecord{
			locatorRecord("start", "alice", "bob", at(accepted)),
		}
		require.NotNil(t, locator.Locate(records, wager))
	})

	t.Run("outside window", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("before", "alice", "bob", at(accepted.Add(-time.Second))),
			locatorRecord("after", "alice", "bob", at(accepted.Add(20*time.Minute+time.Second))),
		}
		assert.Nil(t, locator.Locate(records, wager))
	})

	t.Run("players compared case-insensitively in either order", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("swapped", "BOB", "ALICE", at(accepted.Add(time.Minute))),
		}
		require.NotNil(t, locator.Locate(records, wager))
	})

	t.Run("third party games are ignored", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("other", "alice", "carol", at(accepted.Add(time.Minute))),
		}
		assert.Nil(t, locator.Locate(records, wager))
	})

	t.Run("records without start time are never matched", func(t *testing.T) {
		records := []models.MatchRecord{
			locatorRecord("nostart", "alice", "bob", nil),
		}
		assert.Nil(t, locator.Locate(records, wager))
	})

	t.Run("ties keep input order", func(t *testing.T) {
		start := at(accepted.Add(3 * time.Minute))
		records := []models.MatchRecord{
			locatorRecord("first", "alice", "bob", start),
			locatorRecord("second", "alice", "bob", start),
		}
		match := locator.Locate(records, wager)
		require.NotNil(t, match)
		assert.Equal(t, "first", match.LinkValue())
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, locator.Locate(nil, wager))
	})

	t.Run("wager without acceptance time", func(t *testing.T) {
		unaccepted := locatorWager(accepted)
		unaccepted.AcceptedAt = nil
		records := []models.MatchRecord{
			locatorRecord("x", "alice", "bob", at(accepted)),
		}
		assert.Nil(t, locator.Locate(records, unaccepted))
	})
}

func TestMatchLocator_Defaults(t *testing.T) {
	locator := NewMatchLocator(0, -time.Hour)
	assert.Equal(t, DefaultMatchWindow, locator.window)
	assert.Equal(t, DefaultMaxGameDuration, locator.maxDuration)
}

func TestMatchLocator_WindowMonths(t *testing.T) {
	locator := NewMatchLocator(20*time.Minute, time.Hour)

	t.Run("single month", func(t *testing.T) {
		months := locator.WindowMonths(locatorWager(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2024, Month: time.May}}, months)
	})

	t.Run("straddles month boundary", func(t *testing.T) {
		months := locator.WindowMonths(locatorWager(time.Date(2024, 5, 31, 23, 50, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2024, Month: time.May}, {Year: 2024, Month: time.June}}, months)
	})

	t.Run("straddles year boundary", func(t *testing.T) {
		months := locator.WindowMonths(locatorWager(time.Date(2023, 12, 31, 23, 45, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2023, Month: time.December}, {Year: 2024, Month: time.January}}, months)
	})

	t.Run("game may end in the next month", func(t *testing.T) {
		// Window closes 23:20 on Jan 31; a game started then can finish in February
		months := locator.WindowMonths(locatorWager(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2024, Month: time.January}, {Year: 2024, Month: time.February}}, months)
	})

	t.Run("game duration well inside the month", func(t *testing.T) {
		months := locator.WindowMonths(locatorWager(time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2024, Month: time.January}}, months)
	})

	t.Run("default duration reaches the next month", func(t *testing.T) {
		months := NewMatchLocator(0, 0).WindowMonths(locatorWager(time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC)))
		assert.Equal(t, []ArchiveMonth{{Year: 2024, Month: time.April}, {Year: 2024, Month: time.May}}, months)
	})

	t.Run("no acceptance time", func(t *testing.T) {
		assert.Nil(t, locator.WindowMonths(&models.Wager{}))
	})
}

func TestArchiveMonth_Start(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ArchiveMonth{Year: 2024, Month: time.February}.Start())
}
