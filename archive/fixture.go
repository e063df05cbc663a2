package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chesswager/models"
)

// FixtureSource serves archives from files laid out like the API:
// {root}/{handle}/{YYYY}/{MM}.json, each holding a {"games": [...]} document.
// A missing file is an empty month.
type FixtureSource struct {
	root string
}

// NewFixtureSource creates a fixture-backed source rooted at dir
func NewFixtureSource(dir string) *FixtureSource {
	return &FixtureSource{root: dir}
}

// FetchMonthlyGames reads the fixture file for the handle and month
func (s *FixtureSource) FetchMonthlyGames(ctx context.Context, handle string, year int, month time.Month) ([]models.RawGameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" || strings.ContainsAny(handle, `/\`) || strings.Contains(handle, "..") {
		return nil, fmt.Errorf("invalid handle %q", handle)
	}

	path := filepath.Join(s.root, handle, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d.json", int(month)))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.RawGameRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	var archive monthlyArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return archive.Games, nil
}
