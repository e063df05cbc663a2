package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chesswager/database"
	"chesswager/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username, chessHandle string) *models.User {
	now := time.Now()
	return &models.User{
		Username:    username,
		ChessHandle: chessHandle,
		Balance:     100000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(username, chessHandle string, balance int64) *models.User {
	user := CreateTestUser(username, chessHandle)
	user.Balance = balance
	return user
}

// CreateAcceptedWager creates an accepted, unresolved wager between two users
func CreateAcceptedWager(challenger, opponent *models.User, stake int64, acceptedAt time.Time) *models.Wager {
	opponentID := opponent.ID
	accepted := acceptedAt.UTC()
	return &models.Wager{
		ChallengerID:     challenger.ID,
		OpponentID:       &opponentID,
		ChallengerHandle: challenger.ChessHandle,
		OpponentHandle:   opponent.ChessHandle,
		Stake:            stake,
		Currency:         "KES",
		TimeControl:      "600",
		RequestState:     models.RequestStateAccepted,
		Status:           models.WagerStatusPending,
		AcceptedAt:       &accepted,
	}
}

// CreateTestRawGame builds an archive record with structured tags
func CreateTestRawGame(white, black string, whiteResult, blackResult models.ResultToken, startedAt time.Time, link string) models.RawGameRecord {
	start := startedAt.UTC()
	end := start.Add(8 * time.Minute)
	return models.RawGameRecord{
		URL:         link,
		TimeControl: "600",
		TimeClass:   "rapid",
		Tags: map[string]string{
			"utcdate":      start.Format("2006.01.02"),
			"utctime":      start.Format("15:04:05"),
			"end_date":     end.Format("2006.01.02"),
			"end_time":     end.Format("15:04:05"),
			"link":         link,
			"termination":  fmt.Sprintf("%s won", white),
			"time_control": "600",
		},
		White: models.RawPlayer{Username: white, Result: whiteResult},
		Black: models.RawPlayer{Username: black, Result: blackResult},
	}
}

// SeedUser inserts a user directly through the pool
func SeedUser(t *testing.T, db *database.DB, username, chessHandle string, balance int64) *models.User {
	t.Helper()

	user := CreateTestUserWithBalance(username, chessHandle, balance)
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (username, chess_handle, balance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Username, user.ChessHandle, user.Balance).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	return user
}

// Balance reads a user's balance directly through the pool
func Balance(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(context.Background(), `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}
