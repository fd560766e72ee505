package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ExportHeader is the fixed header row of the export artifact.
var ExportHeader = []string{
	"Timestamp", "WiFi Status", "ToF Reading (us)", "Trash Status", "Hydro Level", "Operational Status",
}

const exportFilenameLayout = "2006-01-02T15-04-05"

// ExportFilename returns the artifact name stamped with the current UTC time.
func ExportFilename() string {
	return "IoT_TrashRake_Filtered_" + clock.Now().UTC().Format(exportFilenameLayout) + ".csv"
}

// ExportFilenameAt is ExportFilename for a caller-supplied instant.
func ExportFilenameAt(t time.Time) string {
	return "IoT_TrashRake_Filtered_" + t.UTC().Format(exportFilenameLayout) + ".csv"
}

// WriteExport serializes rows in the given order. Text fields are always
// quoted and the distance is written bare. Lines are separated by "\n" with
// no trailing newline.
//
// encoding/csv is not used because it only quotes fields that need it.
func WriteExport(w io.Writer, rows History) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(ExportHeader, ",")); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, r := range rows {
		line := strings.Join([]string{
			quote(r.Timestamp),
			quote(r.Connectivity),
			strconv.FormatFloat(r.Distance, 'f', -1, 64),
			quote(string(r.Detection)),
			quote(string(r.Level)),
			quote(string(r.Status)),
		}, ",")
		if _, err := bw.WriteString("\n" + line); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	return bw.Flush()
}

// ExportedRow pairs a re-parsed record with the derived columns that were
// written to the file.
type ExportedRow struct {
	Line      int
	Record    Record
	Detection string
	Level     string
	Status    string
}

// Mismatch reports whether the file's derived columns disagree with the
// classifier run on the re-parsed raw columns.
func (e ExportedRow) Mismatch() bool {
	return e.Detection != string(e.Record.Detection) ||
		e.Level != string(e.Record.Level) ||
		e.Status != string(e.Record.Status)
}

// ParseExport reads an export artifact back through the record parser. The
// derived trash-status column is skipped on input and reported alongside the
// re-derived value. Rows the parser drops are skipped.
func ParseExport(r io.Reader) ([]ExportedRow, error) {
	sc := bufio.NewScanner(r)
	var out []ExportedRow
	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.Split(text, ",")
		for i := range cols {
			cols[i] = unquote(cols[i])
		}
		rec, ok := ParseFields(column(cols, 0), column(cols, 1), column(cols, 2), column(cols, 4), column(cols, 5))
		if !ok {
			continue
		}
		out = append(out, ExportedRow{
			Line:      line,
			Record:    rec,
			Detection: column(cols, 3),
			Level:     column(cols, 4),
			Status:    column(cols, 5),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return out, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
