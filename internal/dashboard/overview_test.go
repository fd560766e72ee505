package dashboard

import (
	"testing"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(gen uint64, rows ...string) domain.Snapshot {
	var h domain.History
	for _, row := range rows {
		if r, ok := domain.ParseRow(row); ok {
			h = append(h, r)
		}
	}
	return domain.Snapshot{
		Generation: gen,
		FetchedAt:  time.Date(2024, time.January, 1, 10, 6, 0, 0, time.UTC),
		History:    h,
	}
}

func TestBuilder_Overview(t *testing.T) {
	b := NewBuilder(8)
	snap := snapshot(1,
		"01-01-2024 10:00,CONNECTED,1200,HIGH,ALERT",
		"01-01-2024 10:05,CONNECTED,500,LOW,NORMAL",
	)

	o := b.Overview(snap, "")

	require.NotNil(t, o.Latest)
	assert.Equal(t, "01-01-2024 10:05", o.Latest.Timestamp)
	assert.True(t, o.Connected)
	assert.Equal(t, 2, o.TotalRecords)
	assert.Equal(t, uint64(1), o.Generation)
	require.NotNil(t, o.FetchedAt)
	assert.Equal(t, domain.AllDays, o.Series.Selection)
	assert.Equal(t, 1, o.Series.TotalDetections)
	assert.False(t, o.Series.Empty)
}

func TestBuilder_OverviewBeforeFirstFetch(t *testing.T) {
	b := NewBuilder(8)

	o := b.Overview(domain.Snapshot{}, "all")

	assert.Nil(t, o.Latest)
	assert.Nil(t, o.FetchedAt)
	assert.False(t, o.Connected)
	assert.True(t, o.Series.Empty)
	assert.Zero(t, o.Series.TotalDetections)
	assert.Zero(t, b.cache.size())
}

func TestBuilder_DisconnectedLatest(t *testing.T) {
	b := NewBuilder(8)
	o := b.Overview(snapshot(1, "01-01-2024 10:00,OFFLINE,100,LOW,NORMAL"), "")
	assert.False(t, o.Connected)
}

func TestBuilder_MemoizesPerGenerationAndSelection(t *testing.T) {
	b := NewBuilder(8)
	snap := snapshot(3, "01-01-2024 10:00,CONNECTED,1200,HIGH,ALERT")

	first := b.Overview(snap, "all")
	again := b.Overview(snap, "ALL")
	day := b.Overview(snap, "2024-01-01")

	assert.Equal(t, first.Series, again.Series)
	assert.Equal(t, "2024-01-01", day.Series.Selection)
	assert.Equal(t, 2, b.cache.size())

	b.Overview(snapshot(4, "01-01-2024 10:00,CONNECTED,1200,HIGH,ALERT"), "all")
	assert.Equal(t, 3, b.cache.size())
}

// --- LRU cache unit tests ---

func TestSeriesCache_BasicGetPut(t *testing.T) {
	c := newSeriesCache(3)
	key := seriesKey{generation: 1, selection: domain.AllDays}
	c.put(key, domain.Series{Selection: domain.AllDays, TotalDetections: 4})

	got, ok := c.get(key)
	require.True(t, ok)
	assert.Equal(t, 4, got.TotalDetections)

	_, ok = c.get(seriesKey{generation: 2, selection: domain.AllDays})
	assert.False(t, ok)
}

func TestSeriesCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newSeriesCache(2)
	a := seriesKey{generation: 1, selection: "a"}
	bKey := seriesKey{generation: 1, selection: "b"}
	cKey := seriesKey{generation: 1, selection: "c"}

	c.put(a, domain.Series{Selection: "a"})
	c.put(bKey, domain.Series{Selection: "b"})
	_, _ = c.get(a)
	c.put(cKey, domain.Series{Selection: "c"})

	_, ok := c.get(bKey)
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get(a)
	assert.True(t, ok)
	_, ok = c.get(cKey)
	assert.True(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestSeriesCache_UpdateExisting(t *testing.T) {
	c := newSeriesCache(2)
	key := seriesKey{generation: 1, selection: "a"}
	c.put(key, domain.Series{TotalDetections: 1})
	c.put(key, domain.Series{TotalDetections: 2})

	got, ok := c.get(key)
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalDetections)
	assert.Equal(t, 1, c.size())
}
