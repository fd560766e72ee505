package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	// LevelTrendWindow is the number of newest records on the level trend chart.
	LevelTrendWindow = 50
	// DepthHistoryWindow is the number of newest records on the depth chart.
	DepthHistoryWindow = 100
	// DailyBarWindow is the number of most recent days in the all-days series.
	DailyBarWindow = 10

	// AllDays selects the per-day detection series.
	AllDays = "all"

	barDateLayout = "02/01/06"
	labelClear    = "CLEAR"
)

// LevelPoint is one entry of the level trend series.
type LevelPoint struct {
	Time  string    `json:"time"`
	Value int       `json:"val"`
	Label LevelTier `json:"label"`
}

// DetectionBar is one bar of the detection-count series. Count is the
// binary indicator used for bar height; ActualCount keeps the real number of
// detections behind it.
type DetectionBar struct {
	Date        string `json:"date"`
	FullDate    string `json:"full_date,omitempty"`
	Count       int    `json:"count"`
	ActualCount int    `json:"actual_count"`
	Label       string `json:"label"`
}

// DepthPoint is one entry of the depth-history series.
type DepthPoint struct {
	Timestamp string   `json:"timestamp"`
	Depth     float64  `json:"depth"`
	Risk      RiskBand `json:"risk"`
}

// Series bundles the three chart series derived from a history.
// Empty is set only when the history itself is empty, so a day with zero
// detections is never confused with having no data at all.
type Series struct {
	Selection       string         `json:"selection"`
	Empty           bool           `json:"empty"`
	LevelTrend      []LevelPoint   `json:"level_trend"`
	Detections      []DetectionBar `json:"detections"`
	TotalDetections int            `json:"total_detections"`
	DepthHistory    []DepthPoint   `json:"depth_history"`
}

// Aggregate derives all chart series for the given day selection. An empty
// or "all" selection yields the per-day detection series.
func Aggregate(h History, selection string) Series {
	selection = NormalizeSelection(selection)
	s := Series{
		Selection:    selection,
		LevelTrend:   []LevelPoint{},
		Detections:   []DetectionBar{},
		DepthHistory: []DepthPoint{},
	}
	if len(h) == 0 {
		s.Empty = true
		return s
	}

	s.LevelTrend = LevelTrend(h)
	s.DepthHistory = DepthHistory(h)
	s.Detections, s.TotalDetections = DetectionCounts(h, selection)
	return s
}

// NormalizeSelection maps "" to AllDays and trims whitespace.
func NormalizeSelection(selection string) string {
	selection = strings.TrimSpace(selection)
	if selection == "" || strings.EqualFold(selection, AllDays) {
		return AllDays
	}
	return selection
}

// LevelTrend maps the newest records to their level codes, strictly by
// position with no gap filling.
func LevelTrend(h History) []LevelPoint {
	tail := h.Tail(LevelTrendWindow)
	out := make([]LevelPoint, 0, len(tail))
	for _, r := range tail {
		out = append(out, LevelPoint{Time: r.Timestamp, Value: r.Level.Code(), Label: r.Level})
	}
	return out
}

// DepthHistory maps the newest records to distance readings with risk bands.
func DepthHistory(h History) []DepthPoint {
	tail := h.Tail(DepthHistoryWindow)
	out := make([]DepthPoint, 0, len(tail))
	for _, r := range tail {
		out = append(out, DepthPoint{Timestamp: r.Timestamp, Depth: r.Distance, Risk: ClassifyRisk(r.Distance)})
	}
	return out
}

// DetectionCounts returns the detection bars for a selection and the true
// number of detections behind them. With AllDays the total spans every day
// in the history, not only the days kept in the window.
func DetectionCounts(h History, selection string) ([]DetectionBar, int) {
	selection = NormalizeSelection(selection)
	if selection == AllDays {
		return dailyDetections(h)
	}
	return intradayDetections(h, selection)
}

type dayBucket struct {
	day   time.Time
	raw   string
	count int
}

func dailyDetections(h History) ([]DetectionBar, int) {
	buckets := make(map[time.Time]*dayBucket)
	total := 0
	for _, r := range h {
		day, ok := r.Day()
		if !ok {
			continue
		}
		b, seen := buckets[day]
		if !seen {
			b = &dayBucket{day: day, raw: r.DatePart()}
			buckets[day] = b
		}
		if r.Detection == Detected {
			b.count++
			total++
		}
	}

	days := make([]*dayBucket, 0, len(buckets))
	for _, b := range buckets {
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day.Before(days[j].day) })
	if len(days) > DailyBarWindow {
		days = days[len(days)-DailyBarWindow:]
	}

	bars := make([]DetectionBar, 0, len(days))
	for _, b := range days {
		bars = append(bars, DetectionBar{
			Date:        b.day.Format(barDateLayout),
			FullDate:    b.raw,
			Count:       indicator(b.count),
			ActualCount: b.count,
			Label:       detectionLabel(b.count),
		})
	}
	return bars, total
}

func intradayDetections(h History, selection string) ([]DetectionBar, int) {
	want, parsed := parseDay(selection)
	bars := []DetectionBar{}
	total := 0
	for _, r := range h {
		if parsed {
			day, ok := r.Day()
			if !ok || !day.Equal(want) {
				continue
			}
		} else if r.DatePart() != selection {
			continue
		}

		n := 0
		if r.Detection == Detected {
			n = 1
			total++
		}
		bars = append(bars, DetectionBar{
			Date:        r.TimeOfDay(),
			Count:       n,
			ActualCount: n,
			Label:       detectionLabel(n),
		})
	}
	return bars, total
}

func indicator(n int) int {
	if n > 0 {
		return 1
	}
	return 0
}

func detectionLabel(n int) string {
	if n > 0 {
		return string(Detected)
	}
	return labelClear
}
