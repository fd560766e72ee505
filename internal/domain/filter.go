package domain

import (
	"fmt"
	"strings"
)

// FilterAll is the sentinel for an unset category filter.
const FilterAll = "ALL"

// Criteria selects rows for the log table. Zero values match everything.
// Start and End are inclusive "YYYY-MM-DD" keys.
type Criteria struct {
	Start     string         `json:"start,omitempty"`
	End       string         `json:"end,omitempty"`
	Detection DetectionState `json:"trash_status,omitempty"`
	Level     LevelTier      `json:"level,omitempty"`
}

// ParseCriteria validates raw filter inputs. Dates may be given as
// "YYYY-MM-DD" or "DD-MM-YYYY"; categories accept "ALL" or "" for no filter.
func ParseCriteria(start, end, detection, level string) (Criteria, error) {
	var c Criteria
	var err error
	if c.Start, err = NormalizeDateKey(start); err != nil {
		return Criteria{}, fmt.Errorf("start date: %w", err)
	}
	if c.End, err = NormalizeDateKey(end); err != nil {
		return Criteria{}, fmt.Errorf("end date: %w", err)
	}

	switch v := strings.ToUpper(strings.TrimSpace(detection)); v {
	case "", FilterAll:
	case string(Detected):
		c.Detection = Detected
	case string(NotDetected), "NOT_DETECTED":
		c.Detection = NotDetected
	default:
		return Criteria{}, fmt.Errorf("unknown trash status %q", detection)
	}

	switch v := LevelTier(strings.ToUpper(strings.TrimSpace(level))); v {
	case "", FilterAll:
	case LevelLow, LevelNormal, LevelHigh:
		c.Level = v
	default:
		return Criteria{}, fmt.Errorf("unknown level %q", level)
	}
	return c, nil
}

// Match reports whether a record passes every set criterion.
func (c Criteria) Match(r Record) bool {
	if c.Start != "" || c.End != "" {
		key := r.DateKey()
		if key == "" {
			return false
		}
		if c.Start != "" && key < c.Start {
			return false
		}
		if c.End != "" && key > c.End {
			return false
		}
	}
	if c.Detection != "" && r.Detection != c.Detection {
		return false
	}
	if c.Level != "" && r.Level != c.Level {
		return false
	}
	return true
}

// Filter returns the matching records newest first. The input is not modified.
func Filter(h History, c Criteria) History {
	out := make(History, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		if c.Match(h[i]) {
			out = append(out, h[i])
		}
	}
	return out
}

// NormalizeDateKey converts a "DD-MM-YYYY" or "YYYY-MM-DD" date into a
// "YYYY-MM-DD" key. The empty string is returned unchanged.
func NormalizeDateKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	d, ok := parseDay(s)
	if !ok {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return d.Format(dateKeyLayout), nil
}
