package dashboard

import (
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// Overview is the KPI payload of the live view.
type Overview struct {
	Generation   uint64         `json:"generation"`
	FetchedAt    *time.Time     `json:"fetched_at,omitempty"`
	Latest       *domain.Record `json:"latest"`
	Connected    bool           `json:"connected"`
	TotalRecords int            `json:"total_records"`
	Series       domain.Series  `json:"series"`
}

// Builder assembles overviews, memoizing series per accepted fetch and day
// selection.
type Builder struct {
	cache *seriesCache
}

// NewBuilder creates a Builder remembering up to maxEntries series.
func NewBuilder(maxEntries int) *Builder {
	return &Builder{cache: newSeriesCache(maxEntries)}
}

// Overview derives the live view for snap under the given day selection.
func (b *Builder) Overview(snap domain.Snapshot, selection string) Overview {
	o := Overview{
		Generation:   snap.Generation,
		TotalRecords: len(snap.History),
		Series:       b.series(snap, domain.NormalizeSelection(selection)),
	}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt
		o.FetchedAt = &t
	}
	if latest, ok := snap.Latest(); ok {
		o.Latest = &latest
		o.Connected = latest.Connected()
	}
	return o
}

func (b *Builder) series(snap domain.Snapshot, selection string) domain.Series {
	// Generation 0 is the pre-fetch empty history and is never cached.
	if snap.Generation == 0 {
		return domain.Aggregate(snap.History, selection)
	}
	key := seriesKey{generation: snap.Generation, selection: selection}
	if s, ok := b.cache.get(key); ok {
		return s
	}
	s := domain.Aggregate(snap.History, selection)
	b.cache.put(key, s)
	return s
}
