package domain

import (
	"strings"
	"time"
)

// DetectionState reports whether the rake is obstructed by trash.
type DetectionState string

const (
	Detected    DetectionState = "DETECTED"
	NotDetected DetectionState = "NOT DETECTED"
)

// LevelTier is the water-level classification.
type LevelTier string

const (
	LevelLow    LevelTier = "LOW"
	LevelNormal LevelTier = "NORMAL"
	LevelHigh   LevelTier = "HIGH"
)

// Code maps a tier onto the 1..3 scale used by the level trend chart.
func (l LevelTier) Code() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelNormal:
		return 2
	default:
		return 1
	}
}

// OperationalStatus is the device/process health classification.
type OperationalStatus string

const (
	StatusNormal  OperationalStatus = "NORMAL"
	StatusWarning OperationalStatus = "WARNING"
	StatusAlert   OperationalStatus = "ALERT"
)

// RiskBand classifies a distance reading on the depth-history chart.
type RiskBand string

const (
	RiskStable  RiskBand = "STABLE"
	RiskWarning RiskBand = "WARNING"
	RiskHigh    RiskBand = "HIGH"
)

// Record is one parsed feed row. Records are never mutated after parsing.
type Record struct {
	Timestamp    string            `json:"timestamp"`
	Connectivity string            `json:"wifi"`
	Distance     float64           `json:"tof"`
	Detection    DetectionState    `json:"trash_status"`
	Level        LevelTier         `json:"level"`
	Status       OperationalStatus `json:"status"`
}

// Connected reports whether the node was online when the row was written.
func (r Record) Connected() bool {
	return strings.EqualFold(strings.TrimSpace(r.Connectivity), "CONNECTED")
}

// DatePart returns the date portion of the timestamp ("DD-MM-YYYY").
func (r Record) DatePart() string {
	date, _ := splitTimestamp(r.Timestamp)
	return date
}

// TimeOfDay returns "HH:MM" from the timestamp, or "00:00" when absent.
func (r Record) TimeOfDay() string {
	_, tod := splitTimestamp(r.Timestamp)
	if len(tod) > 5 {
		tod = tod[:5]
	}
	if tod == "" {
		return "00:00"
	}
	return tod
}

// Day returns the calendar day of the record, or false if the date portion
// does not parse.
func (r Record) Day() (time.Time, bool) {
	return parseDay(r.DatePart())
}

// DateKey returns the date portion reordered to "YYYY-MM-DD" for range
// comparison. Unparsable dates return "".
func (r Record) DateKey() string {
	d, ok := r.Day()
	if !ok {
		return ""
	}
	return d.Format(dateKeyLayout)
}

// Time returns the full timestamp as a UTC instant, falling back to the
// start of the day when the time of day is missing or malformed.
func (r Record) Time() (time.Time, bool) {
	day, ok := r.Day()
	if !ok {
		return time.Time{}, false
	}
	_, tod := splitTimestamp(r.Timestamp)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, tod); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second), true
		}
	}
	return day, true
}

// History is the ordered record list from one fetch, oldest first.
type History []Record

// Latest returns the newest record, or false for an empty history.
func (h History) Latest() (Record, bool) {
	if len(h) == 0 {
		return Record{}, false
	}
	return h[len(h)-1], true
}

// Tail returns the last n records in arrival order.
func (h History) Tail(n int) History {
	if n >= len(h) {
		return h
	}
	return h[len(h)-n:]
}

// NewSince returns the records of next that were not in prev. Every record
// is new when prev is empty. When next still holds prev's newest record at
// the same row position, the rows after it are new, including rows written
// in the same minute. Otherwise only records strictly newer than prev's
// newest timestamp count.
func NewSince(prev, next History) History {
	last, ok := prev.Latest()
	if !ok {
		return next
	}
	if i := len(prev) - 1; i < len(next) && next[i] == last {
		return next[len(prev):]
	}
	cutoff, ok := last.Time()
	if !ok {
		return nil
	}
	var out History
	for _, r := range next {
		if t, ok := r.Time(); ok && t.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

const (
	dateKeyLayout = "2006-01-02"
	sourceLayout  = "2-1-2006"
)

// splitTimestamp separates "DD-MM-YYYY HH:MM" (or the T-separated form) into
// its date and time portions.
func splitTimestamp(ts string) (date, tod string) {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, " T"); i >= 0 {
		return ts[:i], strings.TrimSpace(ts[i+1:])
	}
	return ts, ""
}

// parseDay accepts the source "DD-MM-YYYY" form and the ISO "YYYY-MM-DD" form.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{sourceLayout, dateKeyLayout} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
