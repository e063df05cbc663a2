package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chesswager/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://api.chess.com/pub"
	defaultUserAgent = "chesswager/1.0"
	defaultTimeout   = 10 * time.Second

	// Archives can be large for very active players
	maxArchiveBytes = 32 << 20
)

// ErrPlayerNotFound is returned when chess.com does not know the handle
var ErrPlayerNotFound = errors.New("chess.com player not found")

// ClientOptions parameterise the chess.com client
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// ChessComClient reads the public chess.com published-data API
type ChessComClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewChessComClient constructs a chess.com archive client
func NewChessComClient(opts ClientOptions) *ChessComClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &ChessComClient{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// FetchMonthlyGames calls GET {base}/player/{handle}/games/{YYYY}/{MM}
func (c *ChessComClient) FetchMonthlyGames(ctx context.Context, handle string, year int, month time.Month) ([]models.RawGameRecord, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}

	endpoint := fmt.Sprintf("%s/player/%s/games/%04d/%02d", c.baseURL, url.PathEscape(handle), year, int(month))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archive for %s: %w", handle, err)
	}
	defer resp.Body.Close()

	logger := log.WithFields(log.Fields{
		"handle":   handle,
		"year":     year,
		"month":    int(month),
		"status":   resp.StatusCode,
		"duration": time.Since(started),
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, handle)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.WithField("body", string(snippet)).Warn("Unexpected archive response")
		return nil, fmt.Errorf("archive request for %s returned status %d", handle, resp.StatusCode)
	}

	var archive monthlyArchive
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxArchiveBytes)).Decode(&archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive for %s: %w", handle, err)
	}

	logger.WithField("games", len(archive.Games)).Debug("Fetched game archive")
	return archive.Games, nil
}
