package domain

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExport(t *testing.T) {
	rows := History{
		{Timestamp: "01-01-2024 10:05", Connectivity: "CONNECTED", Distance: 500, Detection: NotDetected, Level: LevelLow, Status: StatusNormal},
		{Timestamp: "01-01-2024 10:00", Connectivity: "CONNECTED", Distance: 1200.5, Detection: Detected, Level: LevelHigh, Status: StatusAlert},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, rows))

	want := strings.Join([]string{
		"Timestamp,WiFi Status,ToF Reading (us),Trash Status,Hydro Level,Operational Status",
		`"01-01-2024 10:05","CONNECTED",500,"NOT DETECTED","LOW","NORMAL"`,
		`"01-01-2024 10:00","CONNECTED",1200.5,"DETECTED","HIGH","ALERT"`,
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestExport_RoundTrip(t *testing.T) {
	body := strings.Join([]string{
		testHeader,
		testAlertRow,
		testClearRow,
		"02-01-2024 08:00,DISCONNECTED,900,2,WARNING",
		"02-01-2024 08:30,,1119.5,3,",
		"03-01-2024 12:00,CONNECTED,x,normal,3",
	}, "\n")
	res, err := ParseFeed(body)
	require.NoError(t, err)
	view := Filter(res.History, Criteria{})

	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, view))

	rows, err := ParseExport(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(view))
	for i, row := range rows {
		assert.False(t, row.Mismatch(), "line %d", row.Line)
		assert.Equal(t, view[i].Detection, row.Record.Detection)
		assert.Equal(t, view[i].Level, row.Record.Level)
		assert.Equal(t, view[i].Status, row.Record.Status)
		assert.Equal(t, view[i].Timestamp, row.Record.Timestamp)
		assert.Equal(t, view[i].Distance, row.Record.Distance)
	}
}

func TestParseExport_ReportsMismatch(t *testing.T) {
	file := "Timestamp,WiFi Status,ToF Reading (us),Trash Status,Hydro Level,Operational Status\n" +
		`"01-01-2024 10:00","CONNECTED",1200,"NOT DETECTED","HIGH","ALERT"`
	rows, err := ParseExport(strings.NewReader(file))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Mismatch())
	assert.Equal(t, 2, rows[0].Line)
}

func TestExportFilename(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.March, 4, 5, 6, 7, 800, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, "IoT_TrashRake_Filtered_2024-03-04T05-06-07.csv", ExportFilename())
}
