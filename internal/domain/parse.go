package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoValidRows is returned by ParseFeed when a body has data lines but
// none of them survive the row checks. The caller treats it as a malformed
// body rather than an empty sheet.
var ErrNoValidRows = errors.New("feed has data lines but no valid rows")

// headerMarkers flag a header remnant that leaked into the data range.
var headerMarkers = []string{"DATE", "THE"}

// ParseResult is the outcome of parsing one feed body.
type ParseResult struct {
	History History
	Dropped int
}

// ParseFeed parses a whole CSV body. The first line is the header and is
// discarded; blank lines are ignored.
func ParseFeed(body string) (ParseResult, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	var res ParseResult
	dataLines := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dataLines++
		rec, ok := ParseRow(line)
		if !ok {
			res.Dropped++
			continue
		}
		res.History = append(res.History, rec)
	}

	if dataLines > 0 && len(res.History) == 0 {
		return res, ErrNoValidRows
	}
	return res, nil
}

// ParseRow parses one raw CSV line. It returns false when the row must be
// dropped. Splitting is on every comma with no quoting support.
func ParseRow(line string) (Record, bool) {
	cols := strings.Split(line, ",")
	return ParseFields(
		column(cols, 0),
		column(cols, 1),
		column(cols, 2),
		column(cols, 3),
		column(cols, 4),
	)
}

// ParseFields builds a record from the five source fields, applying the
// default and classification rules. Missing fields are passed as "".
func ParseFields(timestamp, connectivity, distance, level, status string) (Record, bool) {
	timestamp = strings.TrimSpace(timestamp)
	if !isDataTimestamp(timestamp) {
		return Record{}, false
	}

	connectivity = strings.TrimSpace(connectivity)
	if connectivity == "" {
		connectivity = "N/A"
	}

	d := parseFloatOrZero(distance)
	return Record{
		Timestamp:    timestamp,
		Connectivity: connectivity,
		Distance:     d,
		Detection:    ClassifyDetection(d),
		Level:        ClassifyLevel(level),
		Status:       ClassifyStatus(status),
	}, true
}

func isDataTimestamp(ts string) bool {
	if ts == "" {
		return false
	}
	for _, m := range headerMarkers {
		if strings.Contains(ts, m) {
			return false
		}
	}
	_, ok := parseDay(dateOnly(ts))
	return ok
}

func dateOnly(ts string) string {
	date, _ := splitTimestamp(ts)
	return date
}

func column(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
