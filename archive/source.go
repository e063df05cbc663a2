// Package archive reads players' monthly game archives from chess.com or from local fixtures.
package archive

import (
	"context"
	"fmt"
	"time"

	"chesswager/config"
	"chesswager/models"
)

// Source fetches all games a player finished in a calendar month
type Source interface {
	FetchMonthlyGames(ctx context.Context, handle string, year int, month time.Month) ([]models.RawGameRecord, error)
}

// monthlyArchive is the response body of the monthly games endpoint
type monthlyArchive struct {
	Games []models.RawGameRecord `json:"games"`
}

// NewSource builds the source selected by configuration
func NewSource(cfg config.ArchiveConfig) (Source, error) {
	switch cfg.Mode {
	case "live", "":
		return NewChessComClient(ClientOptions{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		}), nil
	case "fixture":
		return NewFixtureSource(cfg.FixturePath), nil
	default:
		return nil, fmt.Errorf("unknown archive mode %q", cfg.Mode)
	}
}
