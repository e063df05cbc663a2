package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"chesswager/models"

	log "github.com/sirupsen/logrus"
)

// matchTimeLayout is the "YYYY.MM.DD HH:MM:SS" form chess.com uses in tags and PGN headers
const matchTimeLayout = "2006.01.02 15:04:05"

var (
	pgnDatePattern        = regexp.MustCompile(`\[Date\s+"([\d.]+)"`)
	pgnStartTimePattern   = regexp.MustCompile(`\[StartTime\s+"([\d:]+)"`)
	pgnEndDatePattern     = regexp.MustCompile(`\[EndDate\s+"([\d.]+)"`)
	pgnEndTimePattern     = regexp.MustCompile(`\[EndTime\s+"([\d:]+)"`)
	pgnLinkPattern        = regexp.MustCompile(`\[Link\s+"([^"]+)"`)
	pgnTerminationPattern = regexp.MustCompile(`\[Termination\s+"([^"]+)"`)
	pgnTimeControlPattern = regexp.MustCompile(`\[TimeControl\s+"([^"]+)"`)
)

// RecordNormalizer turns raw archive games into canonical match records
type RecordNormalizer struct{}

// NewRecordNormalizer creates a new record normalizer
func NewRecordNormalizer() *RecordNormalizer {
	return &RecordNormalizer{}
}

// Normalize extracts the canonical fields from one raw game.
// Structured tags win; each missing field falls back to the PGN header independently.
// A malformed timestamp leaves the field nil rather than failing.
func (n *RecordNormalizer) Normalize(raw models.RawGameRecord, wagerID *int64) models.MatchRecord {
	date := firstNonEmpty(raw.Tags["utcdate"], raw.Tags["date"])
	startTime := firstNonEmpty(raw.Tags["utctime"], raw.Tags["start_time"])
	endDate := raw.Tags["end_date"]
	endTime := raw.Tags["end_time"]
	link := firstNonEmpty(raw.Tags["link"], raw.URL)
	termination := raw.Tags["termination"]
	category := firstNonEmpty(raw.Tags["time_control"], raw.TimeControl)

	date = orPGN(date, pgnDatePattern, raw.PGN)
	startTime = orPGN(startTime, pgnStartTimePattern, raw.PGN)
	endDate = orPGN(endDate, pgnEndDatePattern, raw.PGN)
	endTime = orPGN(endTime, pgnEndTimePattern, raw.PGN)
	link = orPGN(link, pgnLinkPattern, raw.PGN)
	termination = orPGN(termination, pgnTerminationPattern, raw.PGN)
	category = orPGN(category, pgnTimeControlPattern, raw.PGN)

	record := models.MatchRecord{
		Category:           category,
		FirstPlayer:        normalizeHandle(raw.White.Username),
		SecondPlayer:       normalizeHandle(raw.Black.Username),
		StartedAt:          parseMatchTime(date, startTime, link),
		EndedAt:            parseMatchTime(endDate, endTime, link),
		FirstPlayerResult:  normalizeResult(raw.White.Result),
		SecondPlayerResult: normalizeResult(raw.Black.Result),
		TerminationReason:  termination,
	}

	if link != "" {
		record.Link = &link
	}
	if wagerID != nil {
		id := *wagerID
		record.WagerID = &id
	}

	return record
}

// NormalizeMany normalizes every raw game, preserving order
func (n *RecordNormalizer) NormalizeMany(raws []models.RawGameRecord, wagerID *int64) []models.MatchRecord {
	records := make([]models.MatchRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, n.Normalize(raw, wagerID))
	}
	return records
}

func parseMatchTime(date, clock, link string) *time.Time {
	if date == "" || clock == "" {
		return nil
	}

	t, err := time.ParseInLocation(matchTimeLayout, fmt.Sprintf("%s %s", date, clock), time.UTC)
	if err != nil {
		log.WithFields(log.Fields{
			"date":  date,
			"time":  clock,
			"link":  link,
			"error": err,
		}).Debug("Ignoring malformed match timestamp")
		return nil
	}
	return &t
}

func orPGN(value string, pattern *regexp.Regexp, pgn string) string {
	if value != "" || pgn == "" {
		return value
	}
	if m := pattern.FindStringSubmatch(pgn); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func normalizeResult(result models.ResultToken) models.ResultToken {
	return models.ResultToken(strings.ToLower(strings.TrimSpace(string(result))))
}
