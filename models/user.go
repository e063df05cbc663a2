package models

import (
	"time"
)

// User represents a platform user with a chess.com handle and a balance
type User struct {
	ID          int64     `db:"id"`
	Username    string    `db:"username"`
	ChessHandle string    `db:"chess_handle"`
	DiscordID   *int64    `db:"discord_id"`
	Balance     int64     `db:"balance"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
